package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordExtractorBasic(t *testing.T) {
	extractor := NewKeywordExtractor()

	keywords := extractor.Extract("Built services in Go and Python on Kubernetes, deployed to AWS with Terraform.")

	assert.Contains(t, keywords, "go")
	assert.Contains(t, keywords, "python")
	assert.Contains(t, keywords, "kubernetes")
	assert.Contains(t, keywords, "aws")
	assert.Contains(t, keywords, "terraform")
}

func TestKeywordExtractorDeduplicates(t *testing.T) {
	extractor := NewKeywordExtractor()

	keywords := extractor.Extract("Redis, redis and more Redis, plus Docker and docker again.")

	var redisCount, dockerCount int
	for _, k := range keywords {
		switch k {
		case "redis":
			redisCount++
		case "docker":
			dockerCount++
		}
	}
	assert.Equal(t, 1, redisCount, "同一关键词只保留一次")
	assert.Equal(t, 1, dockerCount)
}

func TestKeywordExtractorNoMatches(t *testing.T) {
	extractor := NewKeywordExtractor()

	keywords := extractor.Extract("A paragraph about gardening with nothing technical in it.")
	assert.Empty(t, keywords)
}

func TestKeywordExtractorMethodologyAndIndustry(t *testing.T) {
	extractor := NewKeywordExtractor()

	keywords := extractor.Extract("Agile fintech startup, remote position, microservices over gRPC.")

	assert.Contains(t, keywords, "agile")
	assert.Contains(t, keywords, "fintech")
	assert.Contains(t, keywords, "startup")
	assert.Contains(t, keywords, "remote")
	assert.Contains(t, keywords, "microservices")
	assert.Contains(t, keywords, "grpc")
}
