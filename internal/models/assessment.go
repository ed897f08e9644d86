package models

import "time"

// Assessment is one student's scored record for a subject in a term.
type Assessment struct {
	ID                string    `db:"id" json:"id"`
	StudentID         string    `db:"student_id" json:"student_id"`
	SubjectID         string    `db:"subject_id" json:"subject_id"`
	TermID            string    `db:"term_id" json:"term_id"`
	ClassEnrollmentID string    `db:"class_enrollment_id" json:"class_enrollment_id"`
	TeacherID         *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CA1               *float64  `db:"ca1" json:"ca1"`
	CA2               *float64  `db:"ca2" json:"ca2"`
	CA3               *float64  `db:"ca3" json:"ca3"`
	Exam              *float64  `db:"exam" json:"exam"`
	IsAbsent          bool      `db:"is_absent" json:"is_absent"`
	IsExempt          bool      `db:"is_exempt" json:"is_exempt"`
	IsPublished       bool      `db:"is_published" json:"is_published"`
	CreatedBy         *string   `db:"created_by" json:"created_by,omitempty"`
	EditedBy          *string   `db:"edited_by" json:"edited_by,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// AssessmentKeyMode selects which columns identify an existing assessment on save.
type AssessmentKeyMode string

const (
	// AssessmentKeyStudentSubjectTerm matches any row for the student, subject and term.
	AssessmentKeyStudentSubjectTerm AssessmentKeyMode = "student_subject_term"
	// AssessmentKeyWithTeacher additionally matches the owning teacher.
	AssessmentKeyWithTeacher AssessmentKeyMode = "student_subject_term_teacher"
)

// AssessmentFilter scopes assessment listings.
type AssessmentFilter struct {
	TermID      string
	ClassTermID string
	SubjectIDs  []string
	StudentID   string
}

// CompletionStatus classifies how much of an assessment has been filled in.
type CompletionStatus string

const (
	CompletionNotStarted CompletionStatus = "not_started"
	CompletionPartial    CompletionStatus = "partial"
	CompletionComplete   CompletionStatus = "complete"
	CompletionAbsent     CompletionStatus = "absent"
	CompletionExempt     CompletionStatus = "exempt"
)

// CompletionResult is the classification of a single student's record.
type CompletionResult struct {
	Status             CompletionStatus `json:"status"`
	ContributesToStats bool             `json:"contributes_to_stats"`
}

// CompletionSummary counts statuses across a class.
type CompletionSummary struct {
	TotalStudents        int `json:"total_students"`
	NotStarted           int `json:"not_started"`
	Partial              int `json:"partial"`
	Complete             int `json:"complete"`
	Absent               int `json:"absent"`
	Exempt               int `json:"exempt"`
	CompletionPercentage int `json:"completion_percentage"`
}

// AssessmentSheetRow is one enrolled student's line on an assessment sheet.
type AssessmentSheetRow struct {
	StudentID    string           `json:"student_id"`
	StudentName  string           `json:"student_name"`
	AdmissionNo  string           `json:"admission_no"`
	EnrollmentID string           `json:"enrollment_id"`
	Assessment   *Assessment      `json:"assessment,omitempty"`
	TotalScore   *float64         `json:"total_score"`
	Grade        *GradeResult     `json:"grade,omitempty"`
	Status       CompletionStatus `json:"status"`
}

// AssessmentSheet is the score entry view of one subject in a class term.
type AssessmentSheet struct {
	ClassTermID string               `json:"class_term_id"`
	TermID      string               `json:"term_id"`
	SubjectID   string               `json:"subject_id"`
	Teacher     TeacherResolution    `json:"teacher"`
	Rows        []AssessmentSheetRow `json:"rows"`
	Summary     CompletionSummary    `json:"summary"`
}

// SubjectCompletion is the completion summary of one subject.
type SubjectCompletion struct {
	SubjectID   string            `json:"subject_id"`
	SubjectName string            `json:"subject_name"`
	Summary     CompletionSummary `json:"summary"`
}

// CompletionOverview summarises completion for every subject of a class term.
type CompletionOverview struct {
	ClassTermID string              `json:"class_term_id"`
	TermID      string              `json:"term_id"`
	Subjects    []SubjectCompletion `json:"subjects"`
}

// SaveAssessmentsResult reports the outcome of a batched save.
// FailedBatch is 1-based and zero when every batch committed.
type SaveAssessmentsResult struct {
	TotalRecords     int                `json:"total_records"`
	SavedCount       int                `json:"saved_count"`
	BatchesCommitted int                `json:"batches_committed"`
	FailedBatch      int                `json:"failed_batch,omitempty"`
	Saved            []Assessment       `json:"saved"`
	Teacher          *TeacherResolution `json:"teacher,omitempty"`
}

// PublishResult reports the outcome of an auto-publish attempt.
type PublishResult struct {
	Published       bool  `json:"published"`
	PublishedCount  int64 `json:"published_count"`
	TotalStudents   int   `json:"total_students"`
	IncompleteCount int   `json:"incomplete_count"`
}
