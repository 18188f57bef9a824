package storage

import (
	"context"
	"sync"
)

// MemoryPointsLedger 进程内的点数账本，用于测试和未配置Redis的部署
type MemoryPointsLedger struct {
	mu        sync.Mutex
	balances  map[string]int64
	granted   map[string]bool
	freeGrant int64
}

// NewMemoryPointsLedger 创建内存点数账本
func NewMemoryPointsLedger(freeGrant int64) *MemoryPointsLedger {
	return &MemoryPointsLedger{
		balances:  make(map[string]int64),
		granted:   make(map[string]bool),
		freeGrant: freeGrant,
	}
}

func (l *MemoryPointsLedger) EnsureGrant(ctx context.Context, clientID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.granted[clientID] {
		l.granted[clientID] = true
		l.balances[clientID] += l.freeGrant
	}
	return l.balances[clientID], nil
}

func (l *MemoryPointsLedger) Balance(ctx context.Context, clientID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[clientID], nil
}

func (l *MemoryPointsLedger) Charge(ctx context.Context, clientID string, cost int64) (int64, error) {
	if cost <= 0 {
		return l.Balance(ctx, clientID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[clientID] < cost {
		return 0, ErrInsufficientPoints
	}
	l.balances[clientID] -= cost
	return l.balances[clientID], nil
}

func (l *MemoryPointsLedger) Close() error {
	return nil
}
