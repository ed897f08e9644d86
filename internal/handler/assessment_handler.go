package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/middleware"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/internal/service"
	"github.com/noah-isme/sma-assessment-api/pkg/response"
)

type assessmentService interface {
	SaveAssessments(ctx context.Context, actor service.AuthorizationContext, req dto.SaveAssessmentsRequest) (*models.SaveAssessmentsResult, error)
	AssessmentSheet(ctx context.Context, actor service.AuthorizationContext, classTermID, subjectID string) (*models.AssessmentSheet, error)
	CompletionOverview(ctx context.Context, actor service.AuthorizationContext, classTermID string) (*models.CompletionOverview, error)
	AutoPublish(ctx context.Context, actor service.AuthorizationContext, req dto.PublishAssessmentsRequest) (*models.PublishResult, error)
}

type teacherResolver interface {
	ResolveForActor(ctx context.Context, actor service.AuthorizationContext, subjectID, classTermID string) (*models.TeacherResolution, error)
}

// AssessmentHandler exposes score entry endpoints.
type AssessmentHandler struct {
	assessments assessmentService
	teachers    teacherResolver
}

// NewAssessmentHandler constructs handler.
func NewAssessmentHandler(assessments assessmentService, teachers teacherResolver) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, teachers: teachers}
}

// Save godoc
// @Summary Save assessments in batches
// @Description Records are committed in batches. When a batch fails, earlier batches stay saved and the partial result is returned with the error.
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.SaveAssessmentsRequest true "Assessment records"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Save(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveAssessmentsRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.assessments.SaveAssessments(c.Request.Context(), actor, req)
	if err != nil {
		if result == nil {
			response.Error(c, err)
			return
		}
		response.ErrorWithData(c, err, result)
		return
	}
	middleware.SetMeta(c, "batches_committed", result.BatchesCommitted)
	okJSON(c, result)
}

// Sheet godoc
// @Summary Assessment sheet of one subject in a class term
// @Tags Assessments
// @Produce json
// @Param classTermId query string true "Class term ID"
// @Param subjectId query string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/sheet [get]
func (h *AssessmentHandler) Sheet(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	query, ok := requiredQuery(c, "classTermId", "subjectId")
	if !ok {
		return
	}
	sheet, err := h.assessments.AssessmentSheet(c.Request.Context(), actor, query["classTermId"], query["subjectId"])
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, sheet)
}

// Overview godoc
// @Summary Completion overview of a class term
// @Tags Assessments
// @Produce json
// @Param classTermId query string true "Class term ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/overview [get]
func (h *AssessmentHandler) Overview(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	query, ok := requiredQuery(c, "classTermId")
	if !ok {
		return
	}
	overview, err := h.assessments.CompletionOverview(c.Request.Context(), actor, query["classTermId"])
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, overview)
}

// Publish godoc
// @Summary Publish a subject's assessments once every student is done
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.PublishAssessmentsRequest true "Publish scope"
// @Success 200 {object} response.Envelope
// @Router /assessments/publish [post]
func (h *AssessmentHandler) Publish(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.PublishAssessmentsRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.assessments.AutoPublish(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, result)
}

// Teacher godoc
// @Summary Resolve the teacher responsible for a subject in a class term
// @Tags Assessments
// @Produce json
// @Param classTermId query string true "Class term ID"
// @Param subjectId query string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/teacher [get]
func (h *AssessmentHandler) Teacher(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	query, ok := requiredQuery(c, "classTermId", "subjectId")
	if !ok {
		return
	}
	resolution, err := h.teachers.ResolveForActor(c.Request.Context(), actor, query["subjectId"], query["classTermId"])
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, resolution)
}
