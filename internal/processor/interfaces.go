package processor

import (
	"context"

	"interview-agent-go/internal/types"
)

// Extractor 从原始文件字节中提取纯文本，返回文本与提取方式
type Extractor interface {
	Extract(ctx context.Context, data []byte, fileName string) (text string, method string, err error)
}

// Chunker 将单个文档的文本切分为带类型与优先级的章节
type Chunker interface {
	Chunk(text string, docType types.DocumentType) []*types.DocumentSection
}

// Analyzer 对单个文档做结构化分析。实现方负责内部降级，不返回错误
type Analyzer interface {
	Analyze(ctx context.Context, fileName, text string) *types.DocumentAnalysis
}

// Enhancer 对合并结果做LLM增强。bool为true表示增强生效
type Enhancer interface {
	Enhance(ctx context.Context, base *types.ConsolidatedSummary, sections []*types.DocumentSection, jobContext string) (*types.ConsolidatedSummary, bool)
	BuildInterviewContext(ctx context.Context, summary *types.ConsolidatedSummary, jobContext string) *types.InterviewContext
}
