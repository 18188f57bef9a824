package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-agent-go/internal/config"
	"interview-agent-go/internal/processor"
	"interview-agent-go/internal/storage"
	"interview-agent-go/internal/types"
)

type fakeExtractor struct{}

func (e *fakeExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, string, error) {
	return "Work Experience at Acme Corp building backend services in Go.", "plain_text", nil
}

type fakeChunker struct{}

func (c *fakeChunker) Chunk(text string, docType types.DocumentType) []*types.DocumentSection {
	return []*types.DocumentSection{{Title: "Document Content", Type: types.SectionOther, Content: text, Priority: 5}}
}

type fakeAnalyzer struct{}

func (a *fakeAnalyzer) Analyze(ctx context.Context, fileName, text string) *types.DocumentAnalysis {
	return &types.DocumentAnalysis{
		DocumentType:    types.DocumentResume,
		Summary:         "test summary",
		ExtractedSkills: []string{"Go"},
	}
}

// failingLedger 模拟账本存储故障（非余额不足）
type failingLedger struct{}

func (l *failingLedger) EnsureGrant(ctx context.Context, clientID string) (int64, error) {
	return 0, errors.New("redis connection refused")
}

func (l *failingLedger) Balance(ctx context.Context, clientID string) (int64, error) {
	return 0, errors.New("redis connection refused")
}

func (l *failingLedger) Charge(ctx context.Context, clientID string, cost int64) (int64, error) {
	return 0, errors.New("redis connection refused")
}

func (l *failingLedger) Close() error { return nil }

func newTestHandler(t *testing.T, ledger storage.PointsLedger, pointsEnabled bool, costPerDoc int) *AnalyzeHandler {
	t.Helper()
	pipeline, err := processor.NewPipeline(&fakeExtractor{}, &fakeChunker{}, &fakeAnalyzer{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Points.Enabled = pointsEnabled
	cfg.Points.CostPerDoc = costPerDoc
	return NewAnalyzeHandler(cfg, pipeline, ledger)
}

func testDocs(n int) []processor.DocumentInput {
	docs := make([]processor.DocumentInput, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, processor.DocumentInput{FileName: "resume.txt", Data: []byte("text")})
	}
	return docs
}

func TestHandleAnalyzeChargesPerDocument(t *testing.T) {
	ledger := storage.NewMemoryPointsLedger(10)
	h := newTestHandler(t, ledger, true, 1)

	result, err := h.HandleAnalyze(context.Background(), "client-a", testDocs(3))
	require.NoError(t, err)
	require.NotNil(t, result)

	balance, err := ledger.Balance(context.Background(), "client-a")
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance, "3份文档应扣减3点")
}

func TestHandleAnalyzeRejectsWhenPointsExhausted(t *testing.T) {
	ledger := storage.NewMemoryPointsLedger(2)
	h := newTestHandler(t, ledger, true, 1)

	result, err := h.HandleAnalyze(context.Background(), "client-a", testDocs(3))
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, processor.ErrPointsExhausted)

	// 余额不变
	balance, _ := ledger.Balance(context.Background(), "client-a")
	assert.Equal(t, int64(2), balance)
}

func TestHandleAnalyzeFailsOpenOnLedgerError(t *testing.T) {
	h := newTestHandler(t, &failingLedger{}, true, 1)

	result, err := h.HandleAnalyze(context.Background(), "client-a", testDocs(1))
	require.NoError(t, err, "账本故障不应阻断分析")
	assert.NotNil(t, result)
}

func TestHandleAnalyzeSkipsChargeWhenDisabled(t *testing.T) {
	ledger := storage.NewMemoryPointsLedger(10)
	h := newTestHandler(t, ledger, false, 1)

	_, err := h.HandleAnalyze(context.Background(), "client-a", testDocs(2))
	require.NoError(t, err)

	balance, _ := ledger.Balance(context.Background(), "client-a")
	assert.Equal(t, int64(0), balance, "未启用时不应发放也不应扣减")
}

func TestHandleAnalyzeAnonymousClientNotCharged(t *testing.T) {
	ledger := storage.NewMemoryPointsLedger(10)
	h := newTestHandler(t, ledger, true, 1)

	_, err := h.HandleAnalyze(context.Background(), "", testDocs(2))
	require.NoError(t, err)

	balance, _ := ledger.Balance(context.Background(), "")
	assert.Equal(t, int64(0), balance)
}
