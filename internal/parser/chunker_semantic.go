package parser

import (
	"fmt"
	"io"
	"log"
	"regexp"
	"sort"
	"strings"

	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/types"
)

// headingRule 章节标题匹配规则：有序的(模式, 标题, 类型, 优先级)元组
// 数据驱动，扩充标题词表无需改动控制流
type headingRule struct {
	pattern  string
	title    string
	secType  types.SectionType
	priority int
}

// 简历标题表。匹配顺序即表顺序
var resumeHeadingRules = []headingRule{
	{`(?im)^[ \t]*(work|professional|employment)[ \t]+(experience|history)[ \t:]*$`, "Work Experience", types.SectionExperience, 10},
	{`(?im)^[ \t]*(technical[ \t]+)?skills([ \t]+&[ \t]+(tools|technologies))?[ \t:]*$`, "Technical Skills", types.SectionSkills, 9},
	{`(?im)^[ \t]*(professional[ \t]+)?(summary|profile|objective)[ \t:]*$`, "Professional Summary", types.SectionSummary, 8},
	{`(?im)^[ \t]*education([ \t]+(&|and)[ \t]+training)?[ \t:]*$`, "Education", types.SectionEducation, 7},
	{`(?im)^[ \t]*(contact([ \t]+(info|information|details))?|personal[ \t]+(info|information|details))[ \t:]*$`, "Contact Information", types.SectionContact, 6},
}

// 职位描述标题表
var jobHeadingRules = []headingRule{
	{`(?im)^[ \t]*((key[ \t]+)?requirements|qualifications)[ \t:]*$`, "Requirements", types.SectionSkills, 10},
	{`(?im)^[ \t]*required[ \t]+skills[ \t:]*$`, "Required Skills", types.SectionSkills, 10},
	{`(?im)^[ \t]*((key[ \t]+)?responsibilities|duties|what[ \t]+you('ll|[ \t]+will)[ \t]+do)[ \t:]*$`, "Responsibilities", types.SectionExperience, 9},
	{`(?im)^[ \t]*(preferred([ \t]+(skills|qualifications))?|nice[ \t]+to[ \t]+have)[ \t:]*$`, "Preferred Qualifications", types.SectionSkills, 8},
	{`(?im)^[ \t]*((job|role|position)[ \t]+)?description[ \t:]*$`, "Description", types.SectionSummary, 7},
	{`(?im)^[ \t]*(benefits|perks|what[ \t]+we[ \t]+offer)[ \t:]*$`, "Benefits", types.SectionOther, 5},
}

// compiledHeadingRule 编译后的标题规则
type compiledHeadingRule struct {
	regex    *regexp.Regexp
	title    string
	secType  types.SectionType
	priority int
}

// SemanticChunker 将单个文档的提取文本切分为带类型、标题、优先级的章节
// 四种策略按文档类型分派：简历/职位描述走标题匹配，求职信/通用走段落切分
type SemanticChunker struct {
	resumeRules []compiledHeadingRule
	jobRules    []compiledHeadingRule
	keywords    *KeywordExtractor
	logger      *log.Logger
}

// SemanticChunkerOption 分块器的函数选项
type SemanticChunkerOption func(*SemanticChunker)

// WithChunkerLogger 配置自定义日志记录器
func WithChunkerLogger(logger *log.Logger) SemanticChunkerOption {
	return func(c *SemanticChunker) {
		c.logger = logger
	}
}

// NewSemanticChunker 创建语义分块器，编译所有标题规则
func NewSemanticChunker(options ...SemanticChunkerOption) (*SemanticChunker, error) {
	c := &SemanticChunker{
		keywords: NewKeywordExtractor(),
		logger:   log.New(io.Discard, "", 0),
	}

	var err error
	if c.resumeRules, err = compileRules(resumeHeadingRules); err != nil {
		return nil, fmt.Errorf("编译简历标题规则失败: %w", err)
	}
	if c.jobRules, err = compileRules(jobHeadingRules); err != nil {
		return nil, fmt.Errorf("编译职位描述标题规则失败: %w", err)
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

func compileRules(rules []headingRule) ([]compiledHeadingRule, error) {
	compiled := make([]compiledHeadingRule, 0, len(rules))
	for _, r := range rules {
		regex, err := regexp.Compile(r.pattern)
		if err != nil {
			return nil, fmt.Errorf("规则 %q: %w", r.title, err)
		}
		compiled = append(compiled, compiledHeadingRule{
			regex:    regex,
			title:    r.title,
			secType:  r.secType,
			priority: r.priority,
		})
	}
	return compiled, nil
}

// Chunk 按文档类型分派到对应的切分策略
func (c *SemanticChunker) Chunk(text string, docType types.DocumentType) []*types.DocumentSection {
	var sections []*types.DocumentSection

	switch docType {
	case types.DocumentResume:
		sections = c.chunkByHeadings(text, c.resumeRules, constants.MinResumeSectionLength)
	case types.DocumentJobDescription:
		sections = c.chunkByHeadings(text, c.jobRules, constants.MinJobSectionLength)
	case types.DocumentCoverLetter:
		sections = c.chunkCoverLetter(text)
	default:
		sections = c.chunkGeneric(text)
	}

	// 每个章节都经过关键词提取
	for _, s := range sections {
		s.Keywords = c.keywords.Extract(s.Content)
	}

	c.logger.Printf("分块完成: 类型=%s, 章节数=%d", docType, len(sections))
	return sections
}

// headingMatch 文本中的一次标题命中
type headingMatch struct {
	start int
	rule  compiledHeadingRule
}

// chunkByHeadings 标题匹配策略：每次命中的起始偏移成为章节边界，
// 章节从标题命中处延伸到下一个命中处（或文本末尾）。
// 重复标题不去重：每次命中都产生独立边界，这是预期行为
func (c *SemanticChunker) chunkByHeadings(text string, rules []compiledHeadingRule, minLength int) []*types.DocumentSection {
	var matches []headingMatch
	for _, rule := range rules {
		for _, loc := range rule.regex.FindAllStringIndex(text, -1) {
			matches = append(matches, headingMatch{start: loc[0], rule: rule})
		}
	}

	// 零命中：整个文本作为一个other类型的兜底章节
	if len(matches) == 0 {
		return []*types.DocumentSection{{
			Title:    "Document Content",
			Content:  text,
			Type:     types.SectionOther,
			Priority: 5,
		}}
	}

	// 边界按起始偏移排序
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	sections := make([]*types.DocumentSection, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		content := strings.TrimSpace(text[m.start:end])

		// 过短的章节丢弃
		if len(content) < minLength {
			continue
		}

		sections = append(sections, &types.DocumentSection{
			Title:    m.rule.title,
			Content:  content,
			Type:     m.rule.secType,
			Priority: m.rule.priority,
		})
	}

	return sections
}

// chunkCoverLetter 求职信策略：按空行分段，保留足够长的段落。
// 首段为开场、末段为结尾，中间为论点段；优先级从8起随段落序号递减
func (c *SemanticChunker) chunkCoverLetter(text string) []*types.DocumentSection {
	paragraphs := splitParagraphs(text, constants.MinParagraphLength)

	sections := make([]*types.DocumentSection, 0, len(paragraphs))
	for i, p := range paragraphs {
		var title string
		secType := types.SectionOther
		switch {
		case i == 0:
			title = "Opening & Introduction"
			secType = types.SectionSummary
		case i == len(paragraphs)-1:
			title = "Closing Statement"
		default:
			title = fmt.Sprintf("Key Argument %d", i)
		}

		sections = append(sections, &types.DocumentSection{
			Title:    title,
			Content:  p,
			Type:     secType,
			Priority: 8 - i,
		})
	}

	return sections
}

// chunkGeneric 通用策略：每个足够长的段落一个章节，固定优先级5
func (c *SemanticChunker) chunkGeneric(text string) []*types.DocumentSection {
	paragraphs := splitParagraphs(text, constants.MinParagraphLength)

	sections := make([]*types.DocumentSection, 0, len(paragraphs))
	for i, p := range paragraphs {
		sections = append(sections, &types.DocumentSection{
			Title:    fmt.Sprintf("Content Block %d", i+1),
			Content:  p,
			Type:     types.SectionOther,
			Priority: 5,
		})
	}

	return sections
}

var paragraphSplitPattern = regexp.MustCompile(`\n[ \t]*\n`)

// splitParagraphs 按空行切分段落，仅保留达到最小长度的段落
func splitParagraphs(text string, minLength int) []string {
	raw := paragraphSplitPattern.Split(text, -1)
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if len(p) >= minLength {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
