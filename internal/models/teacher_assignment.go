package models

import "time"

// TeacherSubject grants a teacher a subject for one term.
type TeacherSubject struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherSubjectDetail enriches TeacherSubject with descriptive fields.
type TeacherSubjectDetail struct {
	TeacherSubject
	SubjectName string `db:"subject_name" json:"subject_name"`
	TermName    string `db:"term_name" json:"term_name"`
}

// TeacherClassTerm grants a teacher a class for one term.
type TeacherClassTerm struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	ClassTermID string    `db:"class_term_id" json:"class_term_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TeacherClassTermDetail enriches TeacherClassTerm with descriptive fields.
type TeacherClassTermDetail struct {
	TeacherClassTerm
	ClassName string `db:"class_name" json:"class_name"`
	TermName  string `db:"term_name" json:"term_name"`
}

// TeacherAssignments lists every grant held by a teacher.
type TeacherAssignments struct {
	TeacherID  string                   `json:"teacher_id"`
	Subjects   []TeacherSubjectDetail   `json:"subjects"`
	ClassTerms []TeacherClassTermDetail `json:"class_terms"`
}

// AssignedTeacher is the row returned by teacher resolution queries.
type AssignedTeacher struct {
	TeacherID string `db:"teacher_id"`
	FullName  string `db:"full_name"`
}

// TeacherResolution describes which teacher owns a subject in a class term.
type TeacherResolution struct {
	TeacherID   *string `json:"teacher_id"`
	TeacherName *string `json:"teacher_name"`
	IsAssigned  bool    `json:"is_assigned"`
	Message     string  `json:"message"`
}
