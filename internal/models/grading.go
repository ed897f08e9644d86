package models

import "time"

// GradingSystem is a school's named table of grade bands.
type GradingSystem struct {
	ID        string            `db:"id" json:"id"`
	SchoolID  string            `db:"school_id" json:"school_id"`
	Name      string            `db:"name" json:"name"`
	IsDefault bool              `db:"is_default" json:"is_default"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
	Levels    []GradeLevel      `json:"levels"`
	Issues    []GradeLevelIssue `json:"issues,omitempty"`
}

// GradeLevel maps an inclusive score band to a grade and remark.
type GradeLevel struct {
	ID              string  `db:"id" json:"id"`
	GradingSystemID string  `db:"grading_system_id" json:"grading_system_id"`
	MinScore        float64 `db:"min_score" json:"min_score"`
	MaxScore        float64 `db:"max_score" json:"max_score"`
	Grade           string  `db:"grade" json:"grade"`
	Remark          string  `db:"remark" json:"remark"`
}

// GradeResult is a resolved grade. Fallback marks a sentinel produced when
// grading bands could not be loaded, not a real grade.
type GradeResult struct {
	Grade    string `json:"grade"`
	Remark   string `json:"remark"`
	Fallback bool   `json:"fallback,omitempty"`
}

// GradeLevelIssueKind names a band layout problem.
type GradeLevelIssueKind string

const (
	GradeLevelOverlap GradeLevelIssueKind = "overlap"
	GradeLevelGap     GradeLevelIssueKind = "gap"
)

// GradeLevelIssue flags overlapping or non-contiguous neighbouring bands.
type GradeLevelIssue struct {
	Kind   GradeLevelIssueKind `json:"kind"`
	Upper  string              `json:"upper"`
	Lower  string              `json:"lower"`
	Detail string              `json:"detail"`
}
