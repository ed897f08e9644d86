package service

import (
	"math"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

// ClassifyCompletion reports how much of a student's assessment is filled in.
// The absent and exempt flags win over component counting, absent first.
func ClassifyCompletion(a *models.Assessment) models.CompletionResult {
	if a == nil {
		return models.CompletionResult{Status: models.CompletionNotStarted}
	}
	if a.IsAbsent {
		return models.CompletionResult{Status: models.CompletionAbsent}
	}
	if a.IsExempt {
		return models.CompletionResult{Status: models.CompletionExempt}
	}
	switch entered := EnteredComponents(a); {
	case entered == 0:
		return models.CompletionResult{Status: models.CompletionNotStarted}
	case entered < componentCount:
		return models.CompletionResult{Status: models.CompletionPartial, ContributesToStats: true}
	default:
		return models.CompletionResult{Status: models.CompletionComplete, ContributesToStats: true}
	}
}

// SummarizeCompletion counts statuses over a class. Absent and exempt students
// count as done for the completion percentage.
func SummarizeCompletion(statuses []models.CompletionStatus) models.CompletionSummary {
	summary := models.CompletionSummary{TotalStudents: len(statuses)}
	for _, status := range statuses {
		switch status {
		case models.CompletionNotStarted:
			summary.NotStarted++
		case models.CompletionPartial:
			summary.Partial++
		case models.CompletionComplete:
			summary.Complete++
		case models.CompletionAbsent:
			summary.Absent++
		case models.CompletionExempt:
			summary.Exempt++
		}
	}
	if summary.TotalStudents > 0 {
		done := summary.Complete + summary.Absent + summary.Exempt
		summary.CompletionPercentage = int(math.Round(100 * float64(done) / float64(summary.TotalStudents)))
	}
	return summary
}
