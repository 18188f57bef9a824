package processor

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"
	guuid "github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/parser"
	"interview-agent-go/internal/tracing"
	"interview-agent-go/internal/types"
)

var tracer = otel.Tracer("processor")

// DocumentInput 一份上传文档的原始内容
type DocumentInput struct {
	FileName string
	Data     []byte
}

// Pipeline 文档分析的请求级流水线：
// 并发地对每份文档做提取、分析、分块，汇合后确定性合并，
// 可选LLM增强，最后打分并生成质量报告。
// 流水线本身无跨请求状态，各请求相互独立
type Pipeline struct {
	extractor Extractor
	chunker   Chunker
	analyzer  Analyzer
	enhancer  Enhancer

	logger *log.Logger
}

// PipelineOption 流水线的配置选项
type PipelineOption func(*Pipeline)

// WithEnhancer 启用LLM增强环节
func WithEnhancer(enhancer Enhancer) PipelineOption {
	return func(p *Pipeline) {
		p.enhancer = enhancer
	}
}

// WithPipelineLogger 配置自定义日志记录器
func WithPipelineLogger(logger *log.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline 创建流水线。extractor、chunker、analyzer为必需组件
func NewPipeline(extractor Extractor, chunker Chunker, analyzer Analyzer, options ...PipelineOption) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor不能为空")
	}
	if chunker == nil {
		return nil, fmt.Errorf("chunker不能为空")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer不能为空")
	}

	p := &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		analyzer:  analyzer,
		logger:    log.New(io.Discard, "", 0),
	}

	for _, option := range options {
		option(p)
	}

	return p, nil
}

// Process 处理一次分析请求。
// 只有零文档或全部文档无法提取时才返回错误，其余失败逐级降级
func (p *Pipeline) Process(ctx context.Context, docs []DocumentInput) (*types.AnalysisResult, error) {
	requestID := newRequestID()

	ctx, span := tracer.Start(ctx, "Pipeline.Process",
		trace.WithAttributes(
			attribute.String("request_id", requestID),
			attribute.Int("document_count", len(docs)),
		),
	)
	defer span.End()

	if len(docs) == 0 {
		err := NewNoDocumentsError(requestID)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	// 按上传顺序索引的结果槽位，每份文档独立并发处理
	results := make([]*types.DocumentResult, len(docs))
	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			results[index] = p.processDocument(ctx, index, docs[index])
		}(i)
	}
	wg.Wait()
	span.AddEvent("per-document processing joined")

	// 汇合：按上传顺序收集可用文档的章节与分析
	var allSections []*types.DocumentSection
	var analyses []*types.DocumentAnalysis
	var jobContext string
	extractable := 0
	for i := range results {
		if results[i].Extracted.Error {
			continue
		}
		extractable++
		allSections = append(allSections, results[i].Sections...)
		analyses = append(analyses, results[i].Analysis)
		if jobContext == "" && results[i].Analysis.DocumentType == types.DocumentJobDescription {
			jobContext = results[i].Extracted.Text
		}
	}

	if extractable == 0 {
		err := NewNoExtractableTextError(requestID, fmt.Sprintf("%d份文档全部提取失败", len(docs)))
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		return nil, err
	}

	// 单线程的确定性合并
	summary := NewConsolidator(p.logger).Consolidate(allSections, analyses)

	// 可选的增强环节。processingMethod必须如实反映增强是否生效
	processingMethod := constants.ProcessingLocalConsolidation
	var interviewCtx *types.InterviewContext
	if p.enhancer != nil {
		enhanced, ok := p.enhancer.Enhance(ctx, summary, allSections, jobContext)
		if ok {
			summary = enhanced
			processingMethod = constants.ProcessingAIConsolidation
		}
		interviewCtx = p.enhancer.BuildInterviewContext(ctx, summary, jobContext)
	} else {
		interviewCtx = parser.StaticInterviewContext(summary)
	}
	span.SetAttributes(attribute.String("processing_method", processingMethod))

	score := ScoreReadiness(summary)

	result := &types.AnalysisResult{
		RequestID:        requestID,
		Summary:          summary,
		InterviewContext: interviewCtx,
		Quality:          buildQualityReport(allSections, analyses, score, extractable),
		ProcessingMethod: processingMethod,
		Documents:        results,
	}

	p.logger.Printf("[Pipeline] 请求 %s 完成: 文档=%d/%d, 章节=%d, 得分=%d, 方式=%s",
		requestID, extractable, len(docs), len(allSections), score, processingMethod)
	return result, nil
}

// processDocument 单份文档的提取、分析、分块。提取失败时标记错误并跳过后续步骤
func (p *Pipeline) processDocument(ctx context.Context, index int, doc DocumentInput) *types.DocumentResult {
	ctx, span := tracer.Start(ctx, "Pipeline.processDocument",
		trace.WithAttributes(
			attribute.Int("document_index", index),
			attribute.String("file_name", doc.FileName),
		),
	)
	defer span.End()

	docID := guuid.NewString()

	text, method, err := p.extractor.Extract(ctx, doc.Data, doc.FileName)
	if err != nil {
		extractErr := NewExtractError(docID, err.Error())
		tracing.RecordErrorWithInfo(span, extractErr, tracing.ErrorTypeExtraction,
			attribute.String("extraction.method", method),
		)
		p.logger.Printf("[Pipeline] 文档 %s 提取失败: %v", doc.FileName, extractErr)
		return &types.DocumentResult{
			Index: index,
			Extracted: &types.ExtractedDocument{
				DocumentID:  docID,
				FileName:    doc.FileName,
				Method:      method,
				Error:       true,
				ErrorDetail: extractErr.Error(),
			},
		}
	}
	span.AddEvent("text extracted")
	span.SetAttributes(attribute.String("document.preview", tracing.SafeDocumentContent(text)))

	analysis := p.analyzer.Analyze(ctx, doc.FileName, text)
	sections := p.chunker.Chunk(text, analysis.DocumentType)
	span.SetAttributes(
		attribute.String("document_type", string(analysis.DocumentType)),
		attribute.Int("section_count", len(sections)),
	)

	return &types.DocumentResult{
		Index: index,
		Extracted: &types.ExtractedDocument{
			DocumentID:   docID,
			FileName:     doc.FileName,
			DocumentType: analysis.DocumentType,
			Text:         text,
			Method:       method,
		},
		Sections: sections,
		Analysis: analysis,
	}
}

// buildQualityReport 汇总本次合并的质量指标
func buildQualityReport(sections []*types.DocumentSection, analyses []*types.DocumentAnalysis, score, extractable int) *types.ConsolidationQuality {
	skillSet := make(map[string]bool)
	workExperiences := 0
	for _, a := range analyses {
		for _, s := range a.ExtractedSkills {
			skillSet[strings.ToLower(s)] = true
		}
		workExperiences += len(a.ExperienceDetails.WorkHistory)
	}

	return &types.ConsolidationQuality{
		SectionsAnalyzed:            len(sections),
		DocumentsProcessed:          extractable,
		TechnicalSkillsFound:        len(skillSet),
		WorkExperiencesConsolidated: workExperiences,
		InterviewReadinessScore:     score,
	}
}

// newRequestID 生成时间有序的唯一标识，失败时回退到随机V4
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}
