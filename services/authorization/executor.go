package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"cardlink-engine/pkg/errutil"
)

// DispatchMode fixes when the notification collaborator runs relative to the
// partner response. This is a per-partner protocol guarantee, not an
// implementation detail.
type DispatchMode int

const (
	// DispatchSynchronous completes notification delivery before the response
	// is final.
	DispatchSynchronous DispatchMode = iota
	// DispatchBackground submits delivery as a detached task; the response
	// returns without waiting and delivery failures are never propagated.
	DispatchBackground
)

// Executor runs one partner's request/response cycle:
// marshal → commit → build response → (notify).
type Executor struct {
	partner     Partner
	node        *snowflake.Node
	adapter     PartnerAdapter
	coordinator *Coordinator
	dispatcher  Dispatcher
	dispatch    DispatchMode
}

type ExecutorParams struct {
	Partner     Partner
	Node        *snowflake.Node
	Adapter     PartnerAdapter
	Coordinator *Coordinator
	Dispatcher  Dispatcher
	Dispatch    DispatchMode
}

func NewExecutor(p ExecutorParams) *Executor {
	return &Executor{
		partner:     p.Partner,
		node:        p.Node,
		adapter:     p.Adapter,
		coordinator: p.Coordinator,
		dispatcher:  p.Dispatcher,
		dispatch:    p.Dispatch,
	}
}

func (e *Executor) Partner() Partner {
	return e.partner
}

// Execute drives the pipeline for one partner-native request. The partner
// response is built for every outcome, including failures, and reflects the
// real ResultCode. Notification is dispatched only for ResultCreated.
func (e *Executor) Execute(ctx context.Context, request any) (PartnerResponse, error) {
	ex := &Exchange{
		Partner: e.partner,
		Request: request,
		Authorization: &Authorization{
			ID:      e.node.Generate(),
			Partner: string(e.partner),
		},
		Logger: zap.L().With(zap.String("partner", string(e.partner))),
	}

	if err := e.adapter.MarshalAuthorization(ex); err != nil {
		ex.Result = marshalResult(err)
		ex.Log().Warn("failed to marshal partner authorization", zap.Error(err))
		return e.adapter.BuildAuthorizationResponse(ex), err
	}

	result, err := e.coordinator.Commit(ctx, ex)
	response := e.adapter.BuildAuthorizationResponse(ex)
	if err != nil {
		return response, err
	}

	if result == ResultCreated {
		e.dispatchNotification(ctx, ex)
	}

	return response, nil
}

func (e *Executor) dispatchNotification(ctx context.Context, ex *Exchange) {
	note := CardNotification{
		Partner:              ex.Partner,
		CardBrand:            ex.CardBrand,
		CardToken:            ex.Authorization.CardToken,
		PartnerTransactionID: ex.Authorization.PartnerTransactionID,
		DiscountDisplay:      ex.DiscountDisplay,
	}

	if e.dispatch == DispatchBackground {
		logger := ex.Log()
		go func() {
			if err := e.dispatcher.SendNotification(context.WithoutCancel(ctx), note); err != nil {
				logger.Warn("background notification failed", zap.Error(err))
			}
		}()
		return
	}

	if err := e.dispatcher.SendNotification(ctx, note); err != nil {
		ex.Log().Warn("notification failed", zap.Error(err))
	}
}

func marshalResult(err error) ResultCode {
	var base errutil.BaseError
	if errors.As(err, &base) && base.Status() == errutil.StatusValidationFailed {
		return ResultValidationFailed
	}
	return ResultError
}
