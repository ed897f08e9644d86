package dto

// GradeLevelRequest describes one band of a grading system.
type GradeLevelRequest struct {
	MinScore float64 `json:"minScore" validate:"gte=0,lte=100"`
	MaxScore float64 `json:"maxScore" validate:"gte=0,lte=100"`
	Grade    string  `json:"grade" validate:"required,max=8"`
	Remark   string  `json:"remark" validate:"max=64"`
}

// CreateGradingSystemRequest captures POST /grading/systems payload.
type CreateGradingSystemRequest struct {
	Name      string              `json:"name" validate:"required,max=120"`
	IsDefault bool                `json:"isDefault"`
	Levels    []GradeLevelRequest `json:"levels" validate:"required,min=1,dive"`
}

// ReplaceGradeLevelsRequest captures PUT /grading/systems/:id/levels payload.
type ReplaceGradeLevelsRequest struct {
	Levels []GradeLevelRequest `json:"levels" validate:"required,min=1,dive"`
}
