package sequence

import (
	"context"

	"gorm.io/gorm"
)

// SequenceValue is the durable counter row behind a named sequence.
type SequenceValue struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null"`
}

func (SequenceValue) TableName() string {
	return "sequence_values"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// step applies value = value + delta and reads the result inside one
// transaction. The UPDATE takes the row lock, so no two concurrent callers can
// observe the same value.
func (s *GormStore) step(ctx context.Context, name string, delta int64) (int64, error) {
	result := Missing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&SequenceValue{}).
			Where("name = ?", name).
			Update("value", gorm.Expr("value + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var row SequenceValue
		if err := tx.Where("name = ?", name).First(&row).Error; err != nil {
			return err
		}
		result = row.Value
		return nil
	})
	if err != nil {
		return Missing, err
	}
	return result, nil
}

func (s *GormStore) RetrieveNextValue(ctx context.Context, name string) (int64, error) {
	return s.step(ctx, name, 1)
}

func (s *GormStore) DecrementSequenceValue(ctx context.Context, name string) (int64, error) {
	return s.step(ctx, name, -1)
}

func (s *GormStore) EnsureSequence(ctx context.Context, name string, initial int64) error {
	return s.db.WithContext(ctx).
		Where(&SequenceValue{Name: name}).
		Attrs(&SequenceValue{Value: initial}).
		FirstOrCreate(&SequenceValue{}).Error
}
