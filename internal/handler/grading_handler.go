package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/internal/service"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
	"github.com/noah-isme/sma-assessment-api/pkg/response"
)

type gradingService interface {
	ResolveGrade(ctx context.Context, total *float64, schoolID string) *models.GradeResult
	ListSystems(ctx context.Context, actor service.AuthorizationContext) ([]models.GradingSystem, error)
	CreateSystem(ctx context.Context, actor service.AuthorizationContext, req dto.CreateGradingSystemRequest) (*models.GradingSystem, error)
	ReplaceLevels(ctx context.Context, actor service.AuthorizationContext, systemID string, req dto.ReplaceGradeLevelsRequest) (*models.GradingSystem, error)
	SetDefault(ctx context.Context, actor service.AuthorizationContext, systemID string) error
	DeleteSystem(ctx context.Context, actor service.AuthorizationContext, systemID string) error
}

// GradingHandler exposes grade resolution and grading system management.
type GradingHandler struct {
	grading gradingService
}

// NewGradingHandler constructs handler.
func NewGradingHandler(grading gradingService) *GradingHandler {
	return &GradingHandler{grading: grading}
}

// Resolve godoc
// @Summary Resolve a total score to the school's grade
// @Tags Grading
// @Produce json
// @Param score query number true "Total score"
// @Success 200 {object} response.Envelope
// @Router /grading/resolve [get]
func (h *GradingHandler) Resolve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	query, ok := requiredQuery(c, "score")
	if !ok {
		return
	}
	score, err := strconv.ParseFloat(query["score"], 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "score must be a number"))
		return
	}
	okJSON(c, h.grading.ResolveGrade(c.Request.Context(), &score, actor.SchoolID))
}

// List godoc
// @Summary List grading systems
// @Tags Grading
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading/systems [get]
func (h *GradingHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	systems, err := h.grading.ListSystems(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, systems)
}

// Create godoc
// @Summary Create grading system
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradingSystemRequest true "Grading system"
// @Success 201 {object} response.Envelope
// @Router /grading/systems [post]
func (h *GradingHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateGradingSystemRequest
	if !bindJSON(c, &req) {
		return
	}
	system, err := h.grading.CreateSystem(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, system)
}

// ReplaceLevels godoc
// @Summary Replace the bands of a grading system
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Grading system ID"
// @Param payload body dto.ReplaceGradeLevelsRequest true "Grade levels"
// @Success 200 {object} response.Envelope
// @Router /grading/systems/{id}/levels [put]
func (h *GradingHandler) ReplaceLevels(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ReplaceGradeLevelsRequest
	if !bindJSON(c, &req) {
		return
	}
	system, err := h.grading.ReplaceLevels(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, system)
}

// SetDefault godoc
// @Summary Make a grading system the school default
// @Tags Grading
// @Produce json
// @Param id path string true "Grading system ID"
// @Success 200 {object} response.Envelope
// @Router /grading/systems/{id}/default [post]
func (h *GradingHandler) SetDefault(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.grading.SetDefault(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, gin.H{"status": "default"})
}

// Delete godoc
// @Summary Delete a non-default grading system
// @Tags Grading
// @Param id path string true "Grading system ID"
// @Success 204
// @Router /grading/systems/{id} [delete]
func (h *GradingHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.grading.DeleteSystem(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
