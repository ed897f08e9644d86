package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/internal/service"
)

type gradingServiceMock struct {
	resolvedScore  float64
	resolvedSchool string
	created        dto.CreateGradingSystemRequest
	deleted        string
}

func (m *gradingServiceMock) ResolveGrade(ctx context.Context, total *float64, schoolID string) *models.GradeResult {
	m.resolvedScore, m.resolvedSchool = *total, schoolID
	return &models.GradeResult{Grade: "A1", Remark: "Excellent"}
}

func (m *gradingServiceMock) ListSystems(ctx context.Context, actor service.AuthorizationContext) ([]models.GradingSystem, error) {
	return nil, nil
}

func (m *gradingServiceMock) CreateSystem(ctx context.Context, actor service.AuthorizationContext, req dto.CreateGradingSystemRequest) (*models.GradingSystem, error) {
	m.created = req
	return &models.GradingSystem{ID: "gs-1", Name: req.Name}, nil
}

func (m *gradingServiceMock) ReplaceLevels(ctx context.Context, actor service.AuthorizationContext, systemID string, req dto.ReplaceGradeLevelsRequest) (*models.GradingSystem, error) {
	return &models.GradingSystem{ID: systemID}, nil
}

func (m *gradingServiceMock) SetDefault(ctx context.Context, actor service.AuthorizationContext, systemID string) error {
	return nil
}

func (m *gradingServiceMock) DeleteSystem(ctx context.Context, actor service.AuthorizationContext, systemID string) error {
	m.deleted = systemID
	return nil
}

func TestGradingHandlerResolve(t *testing.T) {
	mock := &gradingServiceMock{}
	handler := NewGradingHandler(mock)

	c, w := newTestContext(http.MethodGet, "/grading/resolve?score=78.5", nil)
	asTeacher(c, "teacher-1")
	handler.Resolve(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 78.5, mock.resolvedScore)
	assert.Equal(t, "school-1", mock.resolvedSchool)
	var grade models.GradeResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &grade))
	assert.Equal(t, "A1", grade.Grade)
}

func TestGradingHandlerResolveRejectsBadScore(t *testing.T) {
	handler := NewGradingHandler(&gradingServiceMock{})

	c, w := newTestContext(http.MethodGet, "/grading/resolve?score=abc", nil)
	asAdmin(c)
	handler.Resolve(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "score must be a number", decode(t, w).Error.Message)

	c, w = newTestContext(http.MethodGet, "/grading/resolve", nil)
	asAdmin(c)
	handler.Resolve(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradingHandlerCreateAndDelete(t *testing.T) {
	mock := &gradingServiceMock{}
	handler := NewGradingHandler(mock)

	body := []byte(`{"name":"WAEC","isDefault":true,"levels":[{"minScore":0,"maxScore":100,"grade":"P"}]}`)
	c, w := newTestContext(http.MethodPost, "/grading/systems", body)
	asAdmin(c)
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "WAEC", mock.created.Name)
	assert.True(t, mock.created.IsDefault)
	require.Len(t, mock.created.Levels, 1)

	c, w = newTestContext(http.MethodDelete, "/grading/systems/gs-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "gs-1"}}
	asAdmin(c)
	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "gs-1", mock.deleted)
}
