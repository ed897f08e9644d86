package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/internal/service"
	"github.com/noah-isme/sma-assessment-api/pkg/response"
)

type teacherAssignmentService interface {
	ListAssignments(ctx context.Context, actor service.AuthorizationContext, teacherID string) (*models.TeacherAssignments, error)
	AssignSubject(ctx context.Context, actor service.AuthorizationContext, teacherID string, req dto.AssignSubjectRequest) (*models.TeacherSubject, error)
	AssignClassTerm(ctx context.Context, actor service.AuthorizationContext, teacherID string, req dto.AssignClassTermRequest) (*models.TeacherClassTerm, error)
	UnassignSubject(ctx context.Context, actor service.AuthorizationContext, teacherID, grantID string) error
	UnassignClassTerm(ctx context.Context, actor service.AuthorizationContext, teacherID, grantID string) error
}

// TeacherAssignmentHandler manages teacher subject and class grants.
type TeacherAssignmentHandler struct {
	assignments teacherAssignmentService
}

// NewTeacherAssignmentHandler constructs handler.
func NewTeacherAssignmentHandler(assignments teacherAssignmentService) *TeacherAssignmentHandler {
	return &TeacherAssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List a teacher's subject and class grants
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/assignments [get]
func (h *TeacherAssignmentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	assignments, err := h.assignments.ListAssignments(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, assignments)
}

// AssignSubject godoc
// @Summary Grant a subject for a term
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.AssignSubjectRequest true "Subject grant"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/subjects [post]
func (h *TeacherAssignmentHandler) AssignSubject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	grant, err := h.assignments.AssignSubject(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grant)
}

// UnassignSubject godoc
// @Summary Remove a subject grant
// @Tags Teachers
// @Param id path string true "Teacher ID"
// @Param grantId path string true "Grant ID"
// @Success 204
// @Router /teachers/{id}/subjects/{grantId} [delete]
func (h *TeacherAssignmentHandler) UnassignSubject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.assignments.UnassignSubject(c.Request.Context(), actor, c.Param("id"), c.Param("grantId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignClassTerm godoc
// @Summary Grant a class term
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.AssignClassTermRequest true "Class grant"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/class-terms [post]
func (h *TeacherAssignmentHandler) AssignClassTerm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.AssignClassTermRequest
	if !bindJSON(c, &req) {
		return
	}
	grant, err := h.assignments.AssignClassTerm(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grant)
}

// UnassignClassTerm godoc
// @Summary Remove a class term grant
// @Tags Teachers
// @Param id path string true "Teacher ID"
// @Param grantId path string true "Grant ID"
// @Success 204
// @Router /teachers/{id}/class-terms/{grantId} [delete]
func (h *TeacherAssignmentHandler) UnassignClassTerm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.assignments.UnassignClassTerm(c.Request.Context(), actor, c.Param("id"), c.Param("grantId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
