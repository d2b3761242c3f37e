package authorization

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cardlink-engine/pkg/repository"
)

// GormStore persists canonical authorizations. The unique
// (partner, partner_transaction_id) index is the idempotency guard; the
// pre-check read is a fast path only, the index is the real safety net under
// concurrent resubmission.
type GormStore struct {
	db    *gorm.DB
	auths repository.Repository[Authorization]
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:    db,
		auths: repository.ProvideStore[Authorization](db),
	}
}

func (s *GormStore) AddAuthorization(ctx context.Context, auth *Authorization) (ResultCode, error) {
	existing, err := s.auths.FindOne(ctx, &Authorization{
		Partner:              auth.Partner,
		PartnerTransactionID: auth.PartnerTransactionID,
	})
	if err != nil {
		return ResultError, err
	}
	if existing != nil {
		zap.L().Warn("duplicate partner transaction",
			zap.String("partner", auth.Partner),
			zap.String("partner_transaction_id", auth.PartnerTransactionID),
		)
		return ResultDuplicate, nil
	}

	if auth.Status == "" {
		auth.Status = StatusCommitted
	}

	if err := s.auths.Create(ctx, auth); err != nil {
		if isUniqueViolation(err) {
			return ResultDuplicate, nil
		}
		return ResultError, err
	}

	return ResultCreated, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
