package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"interview-agent-go/internal/constants"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/nguyenthenguyen/docx"
)

// 字节启发式提取使用的模式
var (
	// 可打印ASCII字符连续片段（4个及以上）
	printableRunPattern = regexp.MustCompile(`[ -~]{4,}`)
	// 片段中至少2个连续字母
	consecutiveLettersPattern = regexp.MustCompile(`[A-Za-z]{2}`)
	// 邮箱地址
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// 电话候选：数字与常见分隔符的连续段，剥离分隔符后校验位数
	phoneCandidatePattern = regexp.MustCompile(`[\d()+\-\s.]{8,20}`)
	// 日期模式 D{1,2}[/-.]D{1,2}[/-.]D{2,4}
	datePattern = regexp.MustCompile(`\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}`)
	// 匹配片段须包含至少一个字母
	hasLetterPattern = regexp.MustCompile(`[A-Za-z]`)
	// DOCX文档XML中的文本节点
	docxTextRunPattern = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// 剩余XML标签
	xmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	// 非数字字符（电话号码归一化用）
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// TextExtractor 将上传的原始字节转换为尽力而为的纯文本
// 结构化提取失败时统一降级到字节启发式提取；提取本身从不向上抛出panic
type TextExtractor struct {
	pdfParser *pdf.PDFParser
	logger    *log.Logger
}

// TextExtractorOption 提取器的函数选项
type TextExtractorOption func(*TextExtractor)

// WithExtractorLogger 配置自定义日志记录器
func WithExtractorLogger(logger *log.Logger) TextExtractorOption {
	return func(e *TextExtractor) {
		e.logger = logger
	}
}

// NewTextExtractor 初始化文本提取器
// PDF解析器初始化失败不视为致命错误：PDF路径会直接走启发式提取
func NewTextExtractor(ctx context.Context, options ...TextExtractorOption) *TextExtractor {
	e := &TextExtractor{
		logger: log.New(io.Discard, "", 0),
	}

	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false, // 需要整个PDF的连续文本
	})
	if err == nil {
		e.pdfParser = p
	}

	for _, option := range options {
		option(e)
	}

	if e.pdfParser == nil {
		e.logger.Printf("PDF结构化解析器不可用，PDF文档将使用字节启发式提取")
	}

	return e
}

// Extract 从原始字节提取纯文本
// 返回提取文本、提取方式标识；提取文本短于最小有效长度时返回错误，
// 调用方据此将文档标记为提取失败
func (e *TextExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, string, error) {
	var text, method string

	switch detectFormat(fileName, data) {
	case "text":
		text = string(bytes.ToValidUTF8(data, nil))
		method = constants.ExtractionPlainText
	case "docx":
		structured, err := e.extractDocx(data)
		if err == nil && structured != "" {
			text = structured
			method = constants.ExtractionStructuredDocx
		} else {
			if err != nil {
				e.logger.Printf("DOCX结构化提取失败，降级到启发式提取: %v", err)
			}
			text = heuristicExtract(data)
			method = constants.ExtractionDocxFallback
		}
	case "pdf":
		structured, err := e.extractPDF(ctx, data, fileName)
		if err == nil && structured != "" {
			text = structured
			method = constants.ExtractionStructuredPDF
		} else {
			if err != nil {
				e.logger.Printf("PDF结构化提取失败，降级到启发式提取: %v", err)
			}
			text = heuristicExtract(data)
			method = constants.ExtractionPDFFallback
		}
	default:
		text = heuristicExtract(data)
		method = constants.ExtractionBinaryFallback
	}

	e.logger.Printf("提取完成: 方式=%s, 文本长度=%d", method, len(text))

	if len(text) < constants.MinExtractedTextLength {
		return text, method, fmt.Errorf("提取文本过短: %d 字符 (最小 %d)", len(text), constants.MinExtractedTextLength)
	}
	return text, method, nil
}

// detectFormat 根据文件名和内容魔数判断文档格式
func detectFormat(fileName string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".txt", ".md", ".text":
		return "text"
	case ".docx":
		return "docx"
	case ".pdf":
		return "pdf"
	}

	// 无扩展名时根据内容判断
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "pdf"
	}
	// DOCX是ZIP容器
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return "docx"
	}
	if utf8.Valid(data) {
		return "text"
	}
	return "binary"
}

// extractDocx 结构化DOCX提取：读取文档XML部分的文本节点，
// 以空格连接并反转义标准XML实体。库内部panic会被捕获并转为错误
func (e *TextExtractor) extractDocx(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("DOCX解析panic: %v", r)
		}
	}()

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("DOCX解析失败: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()

	// 取出所有 <w:t> 文本节点
	matches := docxTextRunPattern.FindAllStringSubmatch(content, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := strings.TrimSpace(m[1]); t != "" {
			parts = append(parts, t)
		}
	}

	joined := strings.Join(parts, " ")
	if joined == "" {
		// 文档XML格式不规范时退回标签剥离
		joined = strings.TrimSpace(xmlTagPattern.ReplaceAllString(content, " "))
	}

	return unescapeXMLEntities(joined), nil
}

// unescapeXMLEntities 反转义五个标准XML实体
func unescapeXMLEntities(s string) string {
	replacer := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	return replacer.Replace(s)
}

// extractPDF 结构化PDF提取
func (e *TextExtractor) extractPDF(ctx context.Context, data []byte, fileName string) (text string, err error) {
	if e.pdfParser == nil {
		return "", fmt.Errorf("PDF解析器不可用")
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("PDF解析panic: %v", r)
		}
	}()

	docs, err := e.pdfParser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(fileName),
	)
	if err != nil {
		return "", fmt.Errorf("PDF解析失败: %w", err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("PDF解析无结果")
	}

	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.Content)
	}
	return sb.String(), nil
}

// heuristicExtract 字节启发式提取：任何二进制格式的共享降级路径
// 扫描可打印片段、邮箱、电话、日期，去重后过滤并以空格连接。
// 输出是"可读片段"而非忠实文本，有损是预期行为
func heuristicExtract(data []byte) string {
	decoded := string(bytes.ToValidUTF8(data, nil))

	var candidates []string

	// (a) 4个以上可打印字符且含2个连续字母的片段
	for _, run := range printableRunPattern.FindAllString(decoded, -1) {
		if consecutiveLettersPattern.MatchString(run) {
			candidates = append(candidates, strings.TrimSpace(run))
		}
	}

	// (b) 邮箱
	candidates = append(candidates, emailPattern.FindAllString(decoded, -1)...)

	// (c) 剥离分隔符后8-15位的电话号码
	for _, cand := range phoneCandidatePattern.FindAllString(decoded, -1) {
		digits := nonDigitPattern.ReplaceAllString(cand, "")
		if len(digits) >= 8 && len(digits) <= 15 {
			candidates = append(candidates, digits)
		}
	}

	// (d) 日期
	candidates = append(candidates, datePattern.FindAllString(decoded, -1)...)

	// 去重（保持首次出现顺序），过滤长度2-100且至少含一个字母的片段
	seen := make(map[string]bool, len(candidates))
	var kept []string
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if len(c) < 2 || len(c) > 100 {
			continue
		}
		if !hasLetterPattern.MatchString(c) {
			continue
		}
		kept = append(kept, c)
	}

	return strings.Join(kept, " ")
}
