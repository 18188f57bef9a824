package handler

import (
	"context"
	"errors"

	"interview-agent-go/internal/config"
	"interview-agent-go/internal/logger"
	"interview-agent-go/internal/processor"
	"interview-agent-go/internal/storage"
	"interview-agent-go/internal/types"
)

// AnalyzeHandler 文档分析处理器，负责点数核算与流水线调度
type AnalyzeHandler struct {
	cfg      *config.Config
	pipeline *processor.Pipeline
	ledger   storage.PointsLedger
}

// NewAnalyzeHandler 创建文档分析处理器。ledger可为nil（点数功能关闭）
func NewAnalyzeHandler(cfg *config.Config, pipeline *processor.Pipeline, ledger storage.PointsLedger) *AnalyzeHandler {
	return &AnalyzeHandler{
		cfg:      cfg,
		pipeline: pipeline,
		ledger:   ledger,
	}
}

// HandleAnalyze 处理一次分析请求。
// 点数是非核心能力：账本存储故障时放行请求（fail-open），只有
// 明确的余额不足才拒绝
func (h *AnalyzeHandler) HandleAnalyze(ctx context.Context, clientID string, docs []processor.DocumentInput) (*types.AnalysisResult, error) {
	if h.pointsEnabled() && clientID != "" {
		if err := h.chargePoints(ctx, clientID, len(docs)); err != nil {
			return nil, err
		}
	}

	return h.pipeline.Process(ctx, docs)
}

func (h *AnalyzeHandler) pointsEnabled() bool {
	return h.ledger != nil && h.cfg.Points.Enabled
}

func (h *AnalyzeHandler) chargePoints(ctx context.Context, clientID string, docCount int) error {
	if _, err := h.ledger.EnsureGrant(ctx, clientID); err != nil {
		logger.Warn().
			Err(err).
			Str("client_id", clientID).
			Msg("发放免费点数失败，放行请求")
		return nil
	}

	cost := int64(h.cfg.Points.CostPerDoc * docCount)
	balance, err := h.ledger.Charge(ctx, clientID, cost)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientPoints) {
			logger.Info().
				Str("client_id", clientID).
				Int64("cost", cost).
				Msg("点数余额不足，拒绝请求")
			return processor.NewPointsExhaustedError("", err.Error())
		}
		// 账本故障不阻断分析
		logger.Warn().
			Err(err).
			Str("client_id", clientID).
			Msg("扣减点数失败，放行请求")
		return nil
	}

	logger.Debug().
		Str("client_id", clientID).
		Int64("cost", cost).
		Int64("balance", balance).
		Msg("点数扣减成功")
	return nil
}
