package taskname

const (
	// Notification tasks
	NotifyCardAuthorization = "notification:card_auth"

	// Settlement tasks
	SettlementRun            = "settlement:run"
	SettlementPublishDetails = "settlement:publish:details"
)
