package processor

import (
	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/types"
)

// ScoreReadiness 确定性加权打分，封顶100分。
// 技术完整度30分 + 经验30分 + 面试准备25分 + 成就15分
func ScoreReadiness(summary *types.ConsolidatedSummary) int {
	if summary == nil {
		return 0
	}

	score := 0

	// 技术完整度
	if len(summary.TechnicalProfile.CoreTechnologies) > 0 {
		score += 10
	}
	if len(summary.TechnicalProfile.Frameworks) > 0 {
		score += 10
	}
	if len(summary.TechnicalProfile.Tools) > 0 {
		score += 10
	}

	// 经验
	if summary.WorkExperience.TotalYears != "" && summary.WorkExperience.TotalYears != constants.DefaultTotalYears {
		score += 15
	}
	if len(summary.WorkExperience.CareerHighlights) > 0 {
		score += 15
	}

	// 面试准备
	if len(summary.InterviewReadiness.TechQuestionTopics) >= 5 {
		score += 15
	}
	if len(summary.InterviewReadiness.ProjectExamples) >= 3 {
		score += 10
	}

	// 成就
	if len(summary.Achievements.Quantifiable) > 0 {
		score += 5
	}
	if len(summary.Achievements.Technical) > 0 {
		score += 5
	}
	if len(summary.Achievements.Leadership) > 0 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
