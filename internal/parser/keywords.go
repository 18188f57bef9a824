package parser

import (
	"regexp"
	"strings"
)

// 关键词封闭词表。每类一组正则，对小写化内容匹配
var keywordLexicons = []string{
	// 技术栈
	`\b(javascript|typescript|python|java|golang|go|rust|ruby|php|c\+\+|c#|swift|kotlin|scala)\b`,
	`\b(react|angular|vue|svelte|next\.js|node\.js|express|django|flask|spring|rails|laravel)\b`,
	`\b(mysql|postgresql|mongodb|redis|elasticsearch|cassandra|dynamodb|sqlite|oracle)\b`,
	`\b(aws|azure|gcp|docker|kubernetes|terraform|ansible|jenkins|gitlab|github actions)\b`,
	// 工具
	`\b(git|jira|confluence|slack|figma|postman|grafana|prometheus|datadog|splunk)\b`,
	// 方法论
	`\b(agile|scrum|kanban|devops|ci/cd|tdd|bdd|microservices|rest|graphql|grpc)\b`,
	// 行业与工作模式
	`\b(fintech|healthcare|e-commerce|saas|b2b|b2c|startup|enterprise)\b`,
	`\b(remote|hybrid|on-site|full-time|part-time|contract|freelance)\b`,
}

// KeywordExtractor 从章节内容中提取封闭词表内的关键词
type KeywordExtractor struct {
	patterns []*regexp.Regexp
}

// NewKeywordExtractor 创建关键词提取器。词表是包内常量，编译失败属于编程错误
func NewKeywordExtractor() *KeywordExtractor {
	patterns := make([]*regexp.Regexp, 0, len(keywordLexicons))
	for _, lexicon := range keywordLexicons {
		patterns = append(patterns, regexp.MustCompile(lexicon))
	}
	return &KeywordExtractor{patterns: patterns}
}

// Extract 返回内容中命中的关键词，按首次出现去重，保持词表扫描顺序
func (k *KeywordExtractor) Extract(content string) []string {
	lowered := strings.ToLower(content)

	seen := make(map[string]bool)
	var keywords []string
	for _, pattern := range k.patterns {
		for _, match := range pattern.FindAllString(lowered, -1) {
			if seen[match] {
				continue
			}
			seen[match] = true
			keywords = append(keywords, match)
		}
	}
	return keywords
}
