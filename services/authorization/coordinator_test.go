package authorization

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type storeMock struct {
	addFn func(ctx context.Context, auth *Authorization) (ResultCode, error)
}

func (m *storeMock) AddAuthorization(ctx context.Context, auth *Authorization) (ResultCode, error) {
	if m.addFn != nil {
		return m.addFn(ctx, auth)
	}
	return ResultCreated, nil
}

func TestCommitRendersDiscountOnCreated(t *testing.T) {
	c := NewCoordinator(&storeMock{})
	ex := &Exchange{
		Partner:       PartnerAmex,
		Authorization: &Authorization{DiscountAmount: 1234},
	}

	result, err := c.Commit(context.Background(), ex)
	require.NoError(t, err)
	require.Equal(t, ResultCreated, result)
	require.Equal(t, ResultCreated, ex.Result)
	require.Equal(t, "$12.34", ex.DiscountDisplay)
}

func TestCommitSkipsDiscountOnDuplicate(t *testing.T) {
	c := NewCoordinator(&storeMock{
		addFn: func(ctx context.Context, auth *Authorization) (ResultCode, error) {
			return ResultDuplicate, nil
		},
	})
	ex := &Exchange{
		Partner:       PartnerVisa,
		Authorization: &Authorization{DiscountAmount: 500},
	}

	result, err := c.Commit(context.Background(), ex)
	require.NoError(t, err)
	require.Equal(t, ResultDuplicate, result)
	require.Empty(t, ex.DiscountDisplay)
}

func TestCommitPropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	c := NewCoordinator(&storeMock{
		addFn: func(ctx context.Context, auth *Authorization) (ResultCode, error) {
			return ResultError, boom
		},
	})
	ex := &Exchange{
		Partner:       PartnerMasterCard,
		Authorization: &Authorization{},
	}

	result, err := c.Commit(context.Background(), ex)
	require.ErrorIs(t, err, boom)
	require.Equal(t, ResultError, result)
	require.Equal(t, ResultError, ex.Result)
}

func TestFormatDiscount(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{50, "$0.50"},
		{1234, "$12.34"},
		{100000, "$1000.00"},
		// Large amounts stay exact; binary floating point would distort this.
		{100000001, "$1000000.01"},
		{9223372036854775807, "$92233720368547758.07"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, FormatDiscount(tc.cents))
	}
}
