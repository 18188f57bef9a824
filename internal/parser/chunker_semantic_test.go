package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-agent-go/internal/types"
)

const sampleResumeText = `Professional Summary
Experienced backend engineer with eight years building distributed systems
and leading small teams through complex platform migrations.

Work Experience
Senior Engineer at Acme Corp, 2019 - Present. Built event-driven order
pipeline handling 50k messages per minute. Led a team of four engineers.

Technical Skills
Go, Python, PostgreSQL, Redis, Kubernetes, Docker, Terraform, gRPC,
Prometheus, Grafana and related observability tooling.

Education
B.S. Computer Science, State University, 2015. AWS Solutions Architect
certification obtained in 2021.

Contact Information
Email: jane@example.com, Phone: +1 555 0100, based in Berlin, Germany.`

func TestChunkResumeByHeadings(t *testing.T) {
	chunker, err := NewSemanticChunker()
	require.NoError(t, err, "创建分块器不应失败")

	sections := chunker.Chunk(sampleResumeText, types.DocumentResume)
	require.Len(t, sections, 5, "五个标题应产生五个章节")

	byTitle := make(map[string]*types.DocumentSection)
	for _, s := range sections {
		byTitle[s.Title] = s
	}

	require.Contains(t, byTitle, "Work Experience")
	assert.Equal(t, types.SectionExperience, byTitle["Work Experience"].Type)
	assert.Equal(t, 10, byTitle["Work Experience"].Priority, "工作经历应具有最高优先级")

	require.Contains(t, byTitle, "Technical Skills")
	assert.Equal(t, types.SectionSkills, byTitle["Technical Skills"].Type)
	assert.Contains(t, byTitle["Technical Skills"].Keywords, "kubernetes", "技能章节应提取到关键词")

	require.Contains(t, byTitle, "Contact Information")
	assert.Equal(t, types.SectionContact, byTitle["Contact Information"].Type)
	assert.Equal(t, 6, byTitle["Contact Information"].Priority)
}

func TestChunkResumeDuplicateHeadingsKept(t *testing.T) {
	chunker, err := NewSemanticChunker()
	require.NoError(t, err)

	text := `Work Experience
First engineering role with plenty of descriptive content about projects delivered.

Education
B.S. Computer Science with additional coursework in distributed computing.

Work Experience
Second engineering role, also with enough descriptive content to pass the threshold.`

	sections := chunker.Chunk(text, types.DocumentResume)
	require.Len(t, sections, 3, "重复标题不去重，应保留两个工作经历章节")

	var experienceCount int
	for _, s := range sections {
		if s.Title == "Work Experience" {
			experienceCount++
		}
	}
	assert.Equal(t, 2, experienceCount)
}

func TestChunkResumeDropsShortSections(t *testing.T) {
	chunker, err := NewSemanticChunker()
	require.NoError(t, err)

	text := `Technical Skills
Go, Redis.

Work Experience
Senior Engineer at Acme Corp since 2019, responsible for the order pipeline
and for mentoring junior engineers across two product teams.`

	sections := chunker.Chunk(text, types.DocumentResume)
	require.Len(t, sections, 1, "不足最小长度的章节应被丢弃")
	assert.Equal(t, "Work Experience", sections[0].Title)
}

func TestChunkNoHeadingsFallsBackToCatchAll(t *testing.T) {
	chunker, err := NewSemanticChunker()
	require.NoError(t, err)

	text := "Just a wall of text without any recognizable section headings at all."
	sections := chunker.Chunk(text, types.DocumentResume)

	require.Len(t, sections, 1, "零命中应产生一个兜底章节")
	assert.Equal(t, "Document Content", sections[0].Title)
	assert.Equal(t, types.SectionOther, sections[0].Type)
	assert.Equal(t, 5, sections[0].Priority)
	assert.Equal(t, text, sections[0].Content)
}

func TestChunkJobDescription(t *testing.T) {
	chunker, err := NewSemanticChunker()
	require.NoError(t, err)

	text := `Description
We are hiring a senior backend engineer for our payments platform team.

Responsibilities
Design and operate Go services, own the on-call rotation, review code.

Requirements
Five years of backend experience, strong Go and PostgreSQL knowledge.

Benefits
Remote-friendly, learning budget, thirty days of vacation per year.`

	sections := chunker.Chunk(text, types.DocumentJobDescription)
	require.Len(t, sections, 4)

	byTitle := make(map[string]*types.DocumentSection)
	for _, s := range sections {
		byTitle[s.Title] = s
	}
	assert.Equal(t, 10, byTitle["Requirements"].Priority, "要求章节应具有最高优先级")
	assert.Equal(t, 5, byTitle["Benefits"].Priority)
	assert.Equal(t, types.SectionExperience, byTitle["Responsibilities"].Type)
}

func TestChunkCoverLetter(t *testing.T) {
	chunker, err := NewSemanticChunker()
	require.NoError(t, err)

	paragraph := func(topic string) string {
		return fmt.Sprintf("This paragraph discusses %s in enough depth that it comfortably clears the minimum paragraph length threshold used for cover letters.", topic)
	}
	text := strings.Join([]string{
		paragraph("why I am excited about this role"),
		paragraph("my experience scaling Go services"),
		paragraph("my approach to mentoring teammates"),
		paragraph("my availability and closing thoughts"),
	}, "\n\n")

	sections := chunker.Chunk(text, types.DocumentCoverLetter)
	require.Len(t, sections, 4)

	assert.Equal(t, "Opening & Introduction", sections[0].Title)
	assert.Equal(t, types.SectionSummary, sections[0].Type)
	assert.Equal(t, 8, sections[0].Priority)

	assert.Equal(t, "Key Argument 1", sections[1].Title)
	assert.Equal(t, 7, sections[1].Priority)
	assert.Equal(t, "Key Argument 2", sections[2].Title)
	assert.Equal(t, 6, sections[2].Priority)

	assert.Equal(t, "Closing Statement", sections[3].Title)
	assert.Equal(t, 5, sections[3].Priority)
}

func TestChunkGenericDocument(t *testing.T) {
	chunker, err := NewSemanticChunker()
	require.NoError(t, err)

	long := strings.Repeat("Relevant professional content for the generic document strategy. ", 3)
	text := long + "\n\nshort\n\n" + long

	sections := chunker.Chunk(text, types.DocumentOther)
	require.Len(t, sections, 2, "过短段落应被丢弃")

	assert.Equal(t, "Content Block 1", sections[0].Title)
	assert.Equal(t, "Content Block 2", sections[1].Title)
	for _, s := range sections {
		assert.Equal(t, types.SectionOther, s.Type)
		assert.Equal(t, 5, s.Priority)
	}
}
