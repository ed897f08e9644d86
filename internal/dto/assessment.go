package dto

// AssessmentRecord is one student's scores in a save request. Score bounds are
// checked per batch by the service, not by struct validation.
type AssessmentRecord struct {
	StudentID         string   `json:"studentId" validate:"required"`
	ClassEnrollmentID string   `json:"classEnrollmentId" validate:"required"`
	CA1               *float64 `json:"ca1"`
	CA2               *float64 `json:"ca2"`
	CA3               *float64 `json:"ca3"`
	Exam              *float64 `json:"exam"`
	IsAbsent          bool     `json:"isAbsent"`
	IsExempt          bool     `json:"isExempt"`
}

// SaveAssessmentsRequest captures POST /assessments payload.
type SaveAssessmentsRequest struct {
	TermID      string             `json:"termId" validate:"required"`
	SubjectID   string             `json:"subjectId" validate:"required"`
	ClassTermID string             `json:"classTermId" validate:"required"`
	Records     []AssessmentRecord `json:"records" validate:"required,min=1,dive"`
}

// PublishAssessmentsRequest captures POST /assessments/publish payload.
type PublishAssessmentsRequest struct {
	ClassTermID string `json:"classTermId" validate:"required"`
	SubjectID   string `json:"subjectId" validate:"required"`
}
