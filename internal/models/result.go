package models

import "time"

// SubjectResult is a student's standing in one subject.
type SubjectResult struct {
	SubjectID   string           `json:"subject_id"`
	SubjectName string           `json:"subject_name"`
	Score       *float64         `json:"score"`
	Grade       *GradeResult     `json:"grade,omitempty"`
	Position    int              `json:"position"`
	Status      CompletionStatus `json:"status"`
}

// StudentResult is one row of a class result sheet. Position zero means the
// student has no computed score and is unranked.
type StudentResult struct {
	StudentID         string          `json:"student_id"`
	StudentName       string          `json:"student_name"`
	AdmissionNo       string          `json:"admission_no"`
	Subjects          []SubjectResult `json:"subjects"`
	TotalScore        float64         `json:"total_score"`
	SubjectsWithScore int             `json:"subjects_with_score"`
	AverageScore      float64         `json:"average_score"`
	Grade             *GradeResult    `json:"grade,omitempty"`
	Position          int             `json:"position"`
}

// ScoreStatistics summarises a set of scores.
type ScoreStatistics struct {
	Highest *float64 `json:"highest"`
	Lowest  *float64 `json:"lowest"`
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// SubjectStatistics holds statistics for one subject across a class.
type SubjectStatistics struct {
	SubjectID   string          `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	Statistics  ScoreStatistics `json:"statistics"`
}

// ClassResultSet is the derived result sheet of a class term. It is computed
// on every read and never stored.
type ClassResultSet struct {
	ClassTermID       string              `json:"class_term_id"`
	ClassName         string              `json:"class_name"`
	TermID            string              `json:"term_id"`
	TermName          string              `json:"term_name"`
	OverallBasis      string              `json:"overall_basis"`
	Subjects          []Subject           `json:"subjects"`
	Students          []StudentResult     `json:"students"`
	SubjectStatistics []SubjectStatistics `json:"subject_statistics"`
	ClassStatistics   ScoreStatistics     `json:"class_statistics"`
	GeneratedAt       time.Time           `json:"generated_at"`
}

// StudentReport is a single report card cut from the class result set.
type StudentReport struct {
	ClassTermID       string              `json:"class_term_id"`
	ClassName         string              `json:"class_name"`
	TermName          string              `json:"term_name"`
	ClassSize         int                 `json:"class_size"`
	Result            StudentResult       `json:"result"`
	SubjectStatistics []SubjectStatistics `json:"subject_statistics"`
	ClassStatistics   ScoreStatistics     `json:"class_statistics"`
}

// ExportFormat enumerates supported result sheet formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportedFile is a rendered result sheet ready to download.
type ExportedFile struct {
	FileName    string
	ContentType string
	Content     []byte
}
