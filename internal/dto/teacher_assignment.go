package dto

// AssignSubjectRequest grants a teacher a subject for a term.
type AssignSubjectRequest struct {
	SubjectID string `json:"subjectId" validate:"required"`
	TermID    string `json:"termId" validate:"required"`
}

// AssignClassTermRequest grants a teacher a class term.
type AssignClassTermRequest struct {
	ClassTermID string `json:"classTermId" validate:"required"`
}
