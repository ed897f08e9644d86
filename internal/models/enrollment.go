package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive      EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
	EnrollmentStatusWithdrawn   EnrollmentStatus = "WITHDRAWN"
)

// StudentClassEnrollment links a student to a class term.
type StudentClassEnrollment struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	ClassTermID string           `db:"class_term_id" json:"class_term_id"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	JoinedAt    time.Time        `db:"joined_at" json:"joined_at"`
}

// EnrolledStudent is an enrollment joined with the student's display fields.
type EnrolledStudent struct {
	StudentClassEnrollment
	StudentName string `db:"student_name" json:"student_name"`
	AdmissionNo string `db:"admission_no" json:"admission_no"`
}
