package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/pkg/database"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
	"github.com/noah-isme/sma-assessment-api/pkg/validation"
)

// Resolution messages.
const (
	msgSubjectTeacher = "Subject teacher: "
	msgClassTeacher   = "Class teacher: %s (no specific subject assignment)"
	msgNoTeacher      = "No teacher assigned to this subject or class"
)

type teacherAssignmentRepo interface {
	FindSubjectTeacher(ctx context.Context, subjectID, classTermID string) (*models.AssignedTeacher, error)
	FindClassTeacher(ctx context.Context, classTermID string) (*models.AssignedTeacher, error)
	HasSubjectGrant(ctx context.Context, teacherID, subjectID, termID string) (bool, error)
	HasClassTermGrant(ctx context.Context, teacherID, classTermID string) (bool, error)
	ListSubjects(ctx context.Context, teacherID string) ([]models.TeacherSubjectDetail, error)
	ListClassTerms(ctx context.Context, teacherID string) ([]models.TeacherClassTermDetail, error)
	CreateSubject(ctx context.Context, grant *models.TeacherSubject) error
	CreateClassTerm(ctx context.Context, grant *models.TeacherClassTerm) error
	DeleteSubject(ctx context.Context, teacherID, grantID string) error
	DeleteClassTerm(ctx context.Context, teacherID, grantID string) error
}

// TeacherAssignmentService resolves subject ownership and manages teacher grants.
type TeacherAssignmentService struct {
	teachers    teacherReader
	subjects    subjectReader
	terms       termReader
	classTerms  classTermReader
	assignments teacherAssignmentRepo
	validator   *validation.Validator
	logger      *zap.Logger
}

// NewTeacherAssignmentService creates a service instance.
func NewTeacherAssignmentService(
	teachers teacherReader,
	subjects subjectReader,
	terms termReader,
	classTerms classTermReader,
	assignments teacherAssignmentRepo,
	validator *validation.Validator,
	logger *zap.Logger,
) *TeacherAssignmentService {
	if validator == nil {
		validator = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{
		teachers:    teachers,
		subjects:    subjects,
		terms:       terms,
		classTerms:  classTerms,
		assignments: assignments,
		validator:   validator,
		logger:      logger,
	}
}

// ResolveTeacher finds who owns a subject in a class term: the subject teacher
// holding both grants, else any class teacher, else nobody. Lookup failures are
// logged and reported as unassigned so callers are never blocked.
func (s *TeacherAssignmentService) ResolveTeacher(ctx context.Context, subjectID, classTermID string) models.TeacherResolution {
	teacher, err := s.assignments.FindSubjectTeacher(ctx, subjectID, classTermID)
	if err == nil {
		return assigned(teacher, msgSubjectTeacher+teacher.FullName)
	}
	if !database.IsNotFound(err) {
		s.logger.Warn("subject teacher lookup failed", zap.String("subject_id", subjectID), zap.String("class_term_id", classTermID), zap.Error(err))
		return models.TeacherResolution{Message: msgNoTeacher}
	}

	teacher, err = s.assignments.FindClassTeacher(ctx, classTermID)
	if err == nil {
		return assigned(teacher, fmtClassTeacher(teacher.FullName))
	}
	if !database.IsNotFound(err) {
		s.logger.Warn("class teacher lookup failed", zap.String("class_term_id", classTermID), zap.Error(err))
	}
	return models.TeacherResolution{Message: msgNoTeacher}
}

// ResolveForActor resolves the teacher after checking that the subject and class
// term belong to the actor's school.
func (s *TeacherAssignmentService) ResolveForActor(ctx context.Context, actor AuthorizationContext, subjectID, classTermID string) (*models.TeacherResolution, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "subject not found", "failed to load subject")
	}
	if err := actor.ensureSchool(subject.SchoolID); err != nil {
		return nil, err
	}
	classTerm, err := s.classTerms.FindByID(ctx, classTermID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class term not found", "failed to load class term")
	}
	if err := actor.ensureSchool(classTerm.SchoolID); err != nil {
		return nil, err
	}
	resolution := s.ResolveTeacher(ctx, subject.ID, classTerm.ID)
	return &resolution, nil
}

func assigned(teacher *models.AssignedTeacher, message string) models.TeacherResolution {
	id, name := teacher.TeacherID, teacher.FullName
	return models.TeacherResolution{TeacherID: &id, TeacherName: &name, IsAssigned: true, Message: message}
}

// Authorize requires the teacher to hold both the subject grant for the term and
// the class term grant.
func (s *TeacherAssignmentService) Authorize(ctx context.Context, teacherID, subjectID, termID, classTermID string) error {
	hasSubject, err := s.assignments.HasSubjectGrant(ctx, teacherID, subjectID, termID)
	if err != nil {
		return appErrors.Internal(err, "failed to check subject assignment")
	}
	if !hasSubject {
		return appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to this subject for the term")
	}
	return s.AuthorizeClassTerm(ctx, teacherID, classTermID)
}

// AuthorizeClassTerm requires the teacher to hold the class term grant.
func (s *TeacherAssignmentService) AuthorizeClassTerm(ctx context.Context, teacherID, classTermID string) error {
	hasClass, err := s.assignments.HasClassTermGrant(ctx, teacherID, classTermID)
	if err != nil {
		return appErrors.Internal(err, "failed to check class assignment")
	}
	if !hasClass {
		return appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to this class")
	}
	return nil
}

// ListAssignments returns every grant of a teacher. Teachers may only list their own.
func (s *TeacherAssignmentService) ListAssignments(ctx context.Context, actor AuthorizationContext, teacherID string) (*models.TeacherAssignments, error) {
	if actor.IsTeacherScoped() && actor.RestrictedTeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers may only view their own assignments")
	}
	if _, err := s.loadTeacher(ctx, actor, teacherID); err != nil {
		return nil, err
	}
	subjects, err := s.assignments.ListSubjects(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subject assignments")
	}
	classTerms, err := s.assignments.ListClassTerms(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class assignments")
	}
	if subjects == nil {
		subjects = []models.TeacherSubjectDetail{}
	}
	if classTerms == nil {
		classTerms = []models.TeacherClassTermDetail{}
	}
	return &models.TeacherAssignments{TeacherID: teacherID, Subjects: subjects, ClassTerms: classTerms}, nil
}

// AssignSubject grants a subject for a term.
func (s *TeacherAssignmentService) AssignSubject(ctx context.Context, actor AuthorizationContext, teacherID string, req dto.AssignSubjectRequest) (*models.TeacherSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, s.validator.Message(err))
	}
	if _, err := s.loadActiveTeacher(ctx, actor, teacherID); err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "subject not found", "failed to load subject")
	}
	if err := actor.ensureSchool(subject.SchoolID); err != nil {
		return nil, err
	}
	term, err := s.terms.FindByID(ctx, req.TermID)
	if err != nil {
		return nil, notFoundOrInternal(err, "term not found", "failed to load term")
	}
	if err := actor.ensureSchool(term.SchoolID); err != nil {
		return nil, err
	}

	exists, err := s.assignments.HasSubjectGrant(ctx, teacherID, req.SubjectID, req.TermID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check subject assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already assigned to this subject for the term")
	}

	grant := &models.TeacherSubject{TeacherID: teacherID, SubjectID: req.SubjectID, TermID: req.TermID}
	if err := s.assignments.CreateSubject(ctx, grant); err != nil {
		if database.KindOf(err) == database.KindUniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already assigned to this subject for the term")
		}
		return nil, appErrors.Internal(err, "failed to create subject assignment")
	}
	s.logger.Info("teacher subject assigned", zap.String("teacher_id", teacherID), zap.String("subject_id", req.SubjectID), zap.String("term_id", req.TermID))
	return grant, nil
}

// AssignClassTerm grants a class term.
func (s *TeacherAssignmentService) AssignClassTerm(ctx context.Context, actor AuthorizationContext, teacherID string, req dto.AssignClassTermRequest) (*models.TeacherClassTerm, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, s.validator.Message(err))
	}
	if _, err := s.loadActiveTeacher(ctx, actor, teacherID); err != nil {
		return nil, err
	}
	classTerm, err := s.classTerms.FindByID(ctx, req.ClassTermID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class term not found", "failed to load class term")
	}
	if err := actor.ensureSchool(classTerm.SchoolID); err != nil {
		return nil, err
	}

	exists, err := s.assignments.HasClassTermGrant(ctx, teacherID, req.ClassTermID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check class assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already assigned to this class")
	}

	grant := &models.TeacherClassTerm{TeacherID: teacherID, ClassTermID: req.ClassTermID}
	if err := s.assignments.CreateClassTerm(ctx, grant); err != nil {
		if database.KindOf(err) == database.KindUniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already assigned to this class")
		}
		return nil, appErrors.Internal(err, "failed to create class assignment")
	}
	s.logger.Info("teacher class term assigned", zap.String("teacher_id", teacherID), zap.String("class_term_id", req.ClassTermID))
	return grant, nil
}

// UnassignSubject removes a subject grant.
func (s *TeacherAssignmentService) UnassignSubject(ctx context.Context, actor AuthorizationContext, teacherID, grantID string) error {
	if _, err := s.loadTeacher(ctx, actor, teacherID); err != nil {
		return err
	}
	if err := s.assignments.DeleteSubject(ctx, teacherID, grantID); err != nil {
		return notFoundOrInternal(err, "subject assignment not found", "failed to delete subject assignment")
	}
	return nil
}

// UnassignClassTerm removes a class term grant.
func (s *TeacherAssignmentService) UnassignClassTerm(ctx context.Context, actor AuthorizationContext, teacherID, grantID string) error {
	if _, err := s.loadTeacher(ctx, actor, teacherID); err != nil {
		return err
	}
	if err := s.assignments.DeleteClassTerm(ctx, teacherID, grantID); err != nil {
		return notFoundOrInternal(err, "class assignment not found", "failed to delete class assignment")
	}
	return nil
}

func (s *TeacherAssignmentService) loadTeacher(ctx context.Context, actor AuthorizationContext, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		return nil, notFoundOrInternal(err, "teacher not found", "failed to load teacher")
	}
	if err := actor.ensureSchool(teacher.SchoolID); err != nil {
		return nil, err
	}
	return teacher, nil
}

func (s *TeacherAssignmentService) loadActiveTeacher(ctx context.Context, actor AuthorizationContext, teacherID string) (*models.Teacher, error) {
	teacher, err := s.loadTeacher(ctx, actor, teacherID)
	if err != nil {
		return nil, err
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher inactive")
	}
	return teacher, nil
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if database.IsNotFound(err) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

func fmtClassTeacher(name string) string {
	return fmt.Sprintf(msgClassTeacher, name)
}
