package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/internal/service"
	"github.com/noah-isme/sma-assessment-api/pkg/response"
)

type rankingService interface {
	RankClass(ctx context.Context, actor service.AuthorizationContext, classTermID string, subjectIDs []string) (*models.ClassResultSet, error)
	StudentReport(ctx context.Context, actor service.AuthorizationContext, classTermID, studentID string) (*models.StudentReport, error)
	ExportClassResults(ctx context.Context, actor service.AuthorizationContext, classTermID string, subjectIDs []string, format models.ExportFormat) (*models.ExportedFile, error)
}

// ResultHandler exposes compiled class results.
type ResultHandler struct {
	results rankingService
}

// NewResultHandler constructs handler.
func NewResultHandler(results rankingService) *ResultHandler {
	return &ResultHandler{results: results}
}

// ClassResults godoc
// @Summary Ranked result sheet of a class term
// @Tags Results
// @Produce json
// @Param classTermId path string true "Class term ID"
// @Param subjectIds query []string false "Subjects to include, all offered subjects when empty" collectionFormat(csv)
// @Success 200 {object} response.Envelope
// @Router /results/class/{classTermId} [get]
func (h *ResultHandler) ClassResults(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	set, err := h.results.RankClass(c.Request.Context(), actor, c.Param("classTermId"), splitList(c.QueryArray("subjectIds")))
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, set)
}

// StudentReport godoc
// @Summary Report card of one student in a class term
// @Tags Results
// @Produce json
// @Param classTermId path string true "Class term ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /results/class/{classTermId}/students/{studentId} [get]
func (h *ResultHandler) StudentReport(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	report, err := h.results.StudentReport(c.Request.Context(), actor, c.Param("classTermId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	okJSON(c, report)
}

// Export godoc
// @Summary Download the class result sheet
// @Tags Results
// @Produce text/csv
// @Produce application/pdf
// @Param classTermId path string true "Class term ID"
// @Param format query string false "csv or pdf" default(pdf)
// @Param subjectIds query []string false "Subjects to include" collectionFormat(csv)
// @Success 200 {file} file
// @Router /results/class/{classTermId}/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatPDF)))
	file, err := h.results.ExportClassResults(c.Request.Context(), actor, c.Param("classTermId"), splitList(c.QueryArray("subjectIds")), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
