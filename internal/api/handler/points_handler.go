package handler

import (
	"context"
	"fmt"

	"interview-agent-go/internal/storage"
)

// PointsHandler 点数余额查询处理器
type PointsHandler struct {
	ledger storage.PointsLedger
}

// NewPointsHandler 创建点数处理器
func NewPointsHandler(ledger storage.PointsLedger) *PointsHandler {
	return &PointsHandler{ledger: ledger}
}

// PointsBalanceResponse 余额查询响应
type PointsBalanceResponse struct {
	ClientID string `json:"client_id"`
	Balance  int64  `json:"balance"`
}

// HandleBalance 查询客户端余额，首次查询的客户端会先获得免费点数
func (h *PointsHandler) HandleBalance(ctx context.Context, clientID string) (*PointsBalanceResponse, error) {
	if h.ledger == nil {
		return nil, fmt.Errorf("点数功能未启用")
	}

	balance, err := h.ledger.EnsureGrant(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("查询点数余额失败: %w", err)
	}

	return &PointsBalanceResponse{
		ClientID: clientID,
		Balance:  balance,
	}, nil
}
