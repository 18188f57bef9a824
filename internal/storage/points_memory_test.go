package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerGrantIsIdempotent(t *testing.T) {
	ledger := NewMemoryPointsLedger(10)
	ctx := context.Background()

	balance, err := ledger.EnsureGrant(ctx, "client-a")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance, "新客户端获得免费点数")

	balance, err = ledger.EnsureGrant(ctx, "client-a")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance, "重复发放不应叠加")
}

func TestMemoryLedgerCharge(t *testing.T) {
	ledger := NewMemoryPointsLedger(5)
	ctx := context.Background()

	_, err := ledger.EnsureGrant(ctx, "client-b")
	require.NoError(t, err)

	balance, err := ledger.Charge(ctx, "client-b", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)

	_, err = ledger.Charge(ctx, "client-b", 3)
	assert.ErrorIs(t, err, ErrInsufficientPoints, "余额不足时扣减失败且余额不变")

	balance, err = ledger.Balance(ctx, "client-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
}

func TestMemoryLedgerZeroCostIsNoop(t *testing.T) {
	ledger := NewMemoryPointsLedger(5)
	ctx := context.Background()

	_, err := ledger.EnsureGrant(ctx, "client-c")
	require.NoError(t, err)

	balance, err := ledger.Charge(ctx, "client-c", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance)
}

func TestMemoryLedgerUnknownClient(t *testing.T) {
	ledger := NewMemoryPointsLedger(5)

	balance, err := ledger.Balance(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}
