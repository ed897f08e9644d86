package models

import "time"

// ClassTerm is a class instance scoped to one academic term.
type ClassTerm struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassTermDetail enriches ClassTerm with the names used on result sheets.
type ClassTermDetail struct {
	ClassTerm
	SchoolID  string `db:"school_id" json:"school_id"`
	ClassName string `db:"class_name" json:"class_name"`
	TermName  string `db:"term_name" json:"term_name"`
}
