package service

import (
	"fmt"
	"math"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
)

// Score bounds. Three continuous assessments and the exam add up to 100.
const (
	MaxContinuousAssessment = 10.0
	MaxExam                 = 70.0
	componentCount          = 4
)

type scoreComponent struct {
	label string
	value *float64
	max   float64
}

func components(ca1, ca2, ca3, exam *float64) [componentCount]scoreComponent {
	return [componentCount]scoreComponent{
		{label: "CA1", value: ca1, max: MaxContinuousAssessment},
		{label: "CA2", value: ca2, max: MaxContinuousAssessment},
		{label: "CA3", value: ca3, max: MaxContinuousAssessment},
		{label: "Exam", value: exam, max: MaxExam},
	}
}

// ComputeTotal sums the entered components. A component is entered when it is
// non-nil, so zero is a real score. It returns nil when nothing is entered.
func ComputeTotal(ca1, ca2, ca3, exam *float64) *float64 {
	var (
		total   float64
		entered bool
	)
	for _, c := range components(ca1, ca2, ca3, exam) {
		if c.value == nil {
			continue
		}
		entered = true
		total += *c.value
	}
	if !entered {
		return nil
	}
	total = round2(total)
	return &total
}

// AssessmentTotal is ComputeTotal over a stored assessment.
func AssessmentTotal(a *models.Assessment) *float64 {
	if a == nil {
		return nil
	}
	return ComputeTotal(a.CA1, a.CA2, a.CA3, a.Exam)
}

// EnteredComponents counts the non-nil components of an assessment.
func EnteredComponents(a *models.Assessment) int {
	if a == nil {
		return 0
	}
	count := 0
	for _, c := range components(a.CA1, a.CA2, a.CA3, a.Exam) {
		if c.value != nil {
			count++
		}
	}
	return count
}

// ValidateScoreBounds checks every entered component of a record. position is
// the 1-based position of the record in the request.
func ValidateScoreBounds(position int, record dto.AssessmentRecord) error {
	for _, c := range components(record.CA1, record.CA2, record.CA3, record.Exam) {
		if c.value == nil {
			continue
		}
		v := *c.value
		if math.IsNaN(v) || v < 0 || v > c.max {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf(
				"record %d (student %s): %s score %s is out of range, must be between 0 and %s",
				position, record.StudentID, c.label, formatScore(v), formatScore(c.max)))
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatScore(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
