package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/internal/service"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
)

type teacherAssignmentServiceMock struct {
	teacherID  string
	subject    dto.AssignSubjectRequest
	unassigned string
	err        error
}

func (m *teacherAssignmentServiceMock) ListAssignments(ctx context.Context, actor service.AuthorizationContext, teacherID string) (*models.TeacherAssignments, error) {
	m.teacherID = teacherID
	return &models.TeacherAssignments{TeacherID: teacherID}, m.err
}

func (m *teacherAssignmentServiceMock) AssignSubject(ctx context.Context, actor service.AuthorizationContext, teacherID string, req dto.AssignSubjectRequest) (*models.TeacherSubject, error) {
	m.teacherID, m.subject = teacherID, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.TeacherSubject{ID: "grant-1", TeacherID: teacherID, SubjectID: req.SubjectID, TermID: req.TermID}, nil
}

func (m *teacherAssignmentServiceMock) AssignClassTerm(ctx context.Context, actor service.AuthorizationContext, teacherID string, req dto.AssignClassTermRequest) (*models.TeacherClassTerm, error) {
	return &models.TeacherClassTerm{ID: "grant-2", TeacherID: teacherID, ClassTermID: req.ClassTermID}, m.err
}

func (m *teacherAssignmentServiceMock) UnassignSubject(ctx context.Context, actor service.AuthorizationContext, teacherID, grantID string) error {
	m.unassigned = grantID
	return m.err
}

func (m *teacherAssignmentServiceMock) UnassignClassTerm(ctx context.Context, actor service.AuthorizationContext, teacherID, grantID string) error {
	m.unassigned = grantID
	return m.err
}

func TestTeacherAssignmentHandlerAssignSubject(t *testing.T) {
	mock := &teacherAssignmentServiceMock{}
	handler := NewTeacherAssignmentHandler(mock)

	c, w := newTestContext(http.MethodPost, "/teachers/teacher-1/subjects", []byte(`{"subjectId":"s1","termId":"t1"}`))
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}
	asAdmin(c)
	handler.AssignSubject(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "teacher-1", mock.teacherID)
	assert.Equal(t, dto.AssignSubjectRequest{SubjectID: "s1", TermID: "t1"}, mock.subject)
}

func TestTeacherAssignmentHandlerConflict(t *testing.T) {
	mock := &teacherAssignmentServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "subject already assigned for this term")}
	handler := NewTeacherAssignmentHandler(mock)

	c, w := newTestContext(http.MethodPost, "/teachers/teacher-1/subjects", []byte(`{"subjectId":"s1","termId":"t1"}`))
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}
	asAdmin(c)
	handler.AssignSubject(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w).Error.Code)
}

func TestTeacherAssignmentHandlerUnassignClassTerm(t *testing.T) {
	mock := &teacherAssignmentServiceMock{}
	handler := NewTeacherAssignmentHandler(mock)

	c, w := newTestContext(http.MethodDelete, "/teachers/teacher-1/class-terms/grant-2", nil)
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}, {Key: "grantId", Value: "grant-2"}}
	asAdmin(c)
	handler.UnassignClassTerm(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "grant-2", mock.unassigned)
}
