package models

import "time"

// TermType represents the type of academic term.
type TermType string

const (
	TermTypeFirst  TermType = "FIRST"
	TermTypeSecond TermType = "SECOND"
	TermTypeThird  TermType = "THIRD"
)

// Term models an academic term within a school's session.
type Term struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	Name         string    `db:"name" json:"name"`
	Type         TermType  `db:"type" json:"type"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
