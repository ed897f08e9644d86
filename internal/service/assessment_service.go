package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/pkg/database"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
	"github.com/noah-isme/sma-assessment-api/pkg/validation"
)

type assessmentRepository interface {
	SaveBatch(ctx context.Context, records []models.Assessment, mode models.AssessmentKeyMode) ([]models.Assessment, error)
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error)
	PublishAll(ctx context.Context, classTermID, subjectID, termID string) (int64, error)
}

type teacherAuthorizer interface {
	ResolveTeacher(ctx context.Context, subjectID, classTermID string) models.TeacherResolution
	Authorize(ctx context.Context, teacherID, subjectID, termID, classTermID string) error
	AuthorizeClassTerm(ctx context.Context, teacherID, classTermID string) error
}

type gradeScaleLoader interface {
	LoadScale(ctx context.Context, schoolID string) *GradeScale
}

// AssessmentServiceConfig tunes batching and caching of assessment writes and reads.
type AssessmentServiceConfig struct {
	BatchSize     int
	TxTimeout     time.Duration
	SheetCacheTTL time.Duration
}

// AssessmentServiceParams groups constructor dependencies.
type AssessmentServiceParams struct {
	Assessments assessmentRepository
	Terms       termReader
	Subjects    subjectReader
	ClassTerms  classTermReader
	Students    studentReader
	Enrollments enrollmentReader
	Teachers    teacherAuthorizer
	Grading     gradeScaleLoader
	Cache       *CacheService
	Metrics     *MetricsService
	Validator   *validation.Validator
	Logger      *zap.Logger
	Config      AssessmentServiceConfig
}

// AssessmentService saves assessments in batches and serves score entry views.
// One engine serves administrators and teachers; the AuthorizationContext decides
// the key used to match existing rows and which grants are required.
type AssessmentService struct {
	assessments assessmentRepository
	terms       termReader
	subjects    subjectReader
	classTerms  classTermReader
	students    studentReader
	enrollments enrollmentReader
	teachers    teacherAuthorizer
	grading     gradeScaleLoader
	cache       *CacheService
	metrics     *MetricsService
	validator   *validation.Validator
	logger      *zap.Logger
	cfg         AssessmentServiceConfig
}

// NewAssessmentService constructs an AssessmentService with sane defaults.
func NewAssessmentService(params AssessmentServiceParams) *AssessmentService {
	cfg := params.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 5 * time.Second
	}
	if cfg.SheetCacheTTL <= 0 {
		cfg.SheetCacheTTL = 5 * time.Minute
	}
	validator := params.Validator
	if validator == nil {
		validator = validation.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		assessments: params.Assessments,
		terms:       params.Terms,
		subjects:    params.Subjects,
		classTerms:  params.ClassTerms,
		students:    params.Students,
		enrollments: params.Enrollments,
		teachers:    params.Teachers,
		grading:     params.Grading,
		cache:       params.Cache,
		metrics:     params.Metrics,
		validator:   validator,
		logger:      logger,
		cfg:         cfg,
	}
}

type saveScope struct {
	term      *models.Term
	subject   *models.Subject
	classTerm *models.ClassTermDetail
}

// SaveAssessments validates preconditions for the whole request, then writes the
// records in fixed-size batches, each in its own transaction. A failing batch
// stops the save; earlier batches stay committed and are reported in the result,
// which is returned alongside the error.
func (s *AssessmentService) SaveAssessments(ctx context.Context, actor AuthorizationContext, req dto.SaveAssessmentsRequest) (*models.SaveAssessmentsResult, error) {
	if !actor.CanWrite() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot record assessments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, s.validator.Message(err))
	}

	scope, err := s.loadScope(ctx, actor, req.TermID, req.SubjectID, req.ClassTermID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRoster(ctx, actor, req); err != nil {
		return nil, err
	}

	result := &models.SaveAssessmentsResult{TotalRecords: len(req.Records), Saved: []models.Assessment{}}
	var teacherID *string
	if actor.IsTeacherScoped() {
		if err := s.teachers.Authorize(ctx, actor.RestrictedTeacherID, scope.subject.ID, scope.term.ID, scope.classTerm.ID); err != nil {
			return nil, err
		}
		id := actor.RestrictedTeacherID
		teacherID = &id
	} else {
		resolution := s.teachers.ResolveTeacher(ctx, scope.subject.ID, scope.classTerm.ID)
		if !resolution.IsAssigned {
			s.logger.Warn("saving assessments without an assigned teacher",
				zap.String("subject_id", scope.subject.ID), zap.String("class_term_id", scope.classTerm.ID))
		}
		result.Teacher = &resolution
		teacherID = resolution.TeacherID
	}

	saveErr := s.saveInBatches(ctx, actor, req, teacherID, result)

	if result.SavedCount > 0 {
		s.invalidate(ctx, scope.term.ID, scope.subject.ID)
		s.metrics.RecordAssessmentsSaved(actor.SavePath(), result.SavedCount)
	}
	s.logger.Info("assessments saved",
		zap.String("path", actor.SavePath()),
		zap.String("user_id", actor.UserID),
		zap.String("term_id", scope.term.ID),
		zap.String("subject_id", scope.subject.ID),
		zap.String("class_term_id", scope.classTerm.ID),
		zap.Int("records", result.TotalRecords),
		zap.Int("saved", result.SavedCount),
		zap.Int("failed_batch", result.FailedBatch))

	return result, saveErr
}

func (s *AssessmentService) saveInBatches(ctx context.Context, actor AuthorizationContext, req dto.SaveAssessmentsRequest, teacherID *string, result *models.SaveAssessmentsResult) error {
	size := s.cfg.BatchSize
	batchCount := (len(req.Records) + size - 1) / size
	editor := actor.UserID

	for start := 0; start < len(req.Records); start += size {
		end := start + size
		if end > len(req.Records) {
			end = len(req.Records)
		}
		batchNo := start/size + 1

		rows := make([]models.Assessment, 0, end-start)
		for i := start; i < end; i++ {
			record := req.Records[i]
			if err := ValidateScoreBounds(i+1, record); err != nil {
				return s.batchFailure(result, batchNo, batchCount, err)
			}
			rows = append(rows, models.Assessment{
				StudentID:         record.StudentID,
				SubjectID:         req.SubjectID,
				TermID:            req.TermID,
				ClassEnrollmentID: record.ClassEnrollmentID,
				TeacherID:         teacherID,
				CA1:               record.CA1,
				CA2:               record.CA2,
				CA3:               record.CA3,
				Exam:              record.Exam,
				IsAbsent:          record.IsAbsent,
				IsExempt:          record.IsExempt,
				EditedBy:          &editor,
			})
		}

		txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
		started := time.Now()
		saved, err := s.assessments.SaveBatch(txCtx, rows, actor.KeyMode())
		cancel()
		s.metrics.ObserveDBQuery("assessment_batch", time.Since(started))
		if err != nil {
			return s.batchFailure(result, batchNo, batchCount, classifyWriteError(err))
		}

		result.Saved = append(result.Saved, saved...)
		result.SavedCount += len(saved)
		result.BatchesCommitted++
	}
	return nil
}

func (s *AssessmentService) batchFailure(result *models.SaveAssessmentsResult, batchNo, batchCount int, cause error) error {
	s.metrics.RecordBatchFailure()
	result.FailedBatch = batchNo

	appErr := appErrors.FromError(cause)
	message := fmt.Sprintf("batch %d of %d failed: %s", batchNo, batchCount, appErr.Message)
	if result.SavedCount == 0 {
		return appErrors.Wrap(cause, appErr.Code, appErr.Status, message)
	}
	message = fmt.Sprintf("%s (%d record(s) from earlier batches were saved)", message, result.SavedCount)
	return appErrors.Wrap(cause, appErrors.ErrPartialSave.Code, appErrors.ErrPartialSave.Status, message)
}

func classifyWriteError(err error) error {
	switch database.KindOf(err) {
	case database.KindTimeout:
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "transaction timed out")
	case database.KindUniqueViolation:
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "assessment was saved concurrently, retry the request")
	case database.KindForeignKeyViolation:
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "referenced record no longer exists")
	default:
		return appErrors.Internal(err, "failed to save assessments")
	}
}

// loadScope checks that the term, subject and class term exist in the actor's
// school and that the class term belongs to the term.
func (s *AssessmentService) loadScope(ctx context.Context, actor AuthorizationContext, termID, subjectID, classTermID string) (*saveScope, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		return nil, notFoundOrInternal(err, "term not found", "failed to load term")
	}
	if err := actor.ensureSchool(term.SchoolID); err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "subject not found", "failed to load subject")
	}
	if err := actor.ensureSchool(subject.SchoolID); err != nil {
		return nil, err
	}
	classTerm, err := s.loadClassTerm(ctx, actor, classTermID)
	if err != nil {
		return nil, err
	}
	if classTerm.TermID != term.ID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class term does not belong to the term")
	}
	return &saveScope{term: term, subject: subject, classTerm: classTerm}, nil
}

func (s *AssessmentService) loadClassTerm(ctx context.Context, actor AuthorizationContext, classTermID string) (*models.ClassTermDetail, error) {
	classTerm, err := s.classTerms.FindByID(ctx, classTermID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class term not found", "failed to load class term")
	}
	if err := actor.ensureSchool(classTerm.SchoolID); err != nil {
		return nil, err
	}
	return classTerm, nil
}

// checkRoster verifies every record names an existing student of the school
// with an active enrollment in the class term.
func (s *AssessmentService) checkRoster(ctx context.Context, actor AuthorizationContext, req dto.SaveAssessmentsRequest) error {
	studentIDs := make([]string, 0, len(req.Records))
	enrollmentIDs := make([]string, 0, len(req.Records))
	seen := make(map[string]int, len(req.Records))
	for i, record := range req.Records {
		if first, dup := seen[record.StudentID]; dup {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("record %d (student %s): duplicates record %d", i+1, record.StudentID, first))
		}
		seen[record.StudentID] = i + 1
		studentIDs = append(studentIDs, record.StudentID)
		enrollmentIDs = append(enrollmentIDs, record.ClassEnrollmentID)
	}

	students, err := s.students.ListByIDs(ctx, studentIDs)
	if err != nil {
		return appErrors.Internal(err, "failed to load students")
	}
	studentsByID := make(map[string]models.Student, len(students))
	for _, student := range students {
		studentsByID[student.ID] = student
	}

	enrollments, err := s.enrollments.ListByIDs(ctx, enrollmentIDs)
	if err != nil {
		return appErrors.Internal(err, "failed to load enrollments")
	}
	enrollmentsByID := make(map[string]models.StudentClassEnrollment, len(enrollments))
	for _, enrollment := range enrollments {
		enrollmentsByID[enrollment.ID] = enrollment
	}

	for i, record := range req.Records {
		position := i + 1
		student, ok := studentsByID[record.StudentID]
		if !ok || student.SchoolID != actor.SchoolID {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("record %d: student %s not found", position, record.StudentID))
		}
		enrollment, ok := enrollmentsByID[record.ClassEnrollmentID]
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("record %d: enrollment %s not found", position, record.ClassEnrollmentID))
		}
		if enrollment.StudentID != record.StudentID || enrollment.ClassTermID != req.ClassTermID {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("record %d: enrollment %s does not link student %s to the class term", position, enrollment.ID, record.StudentID))
		}
		if enrollment.Status != models.EnrollmentStatusActive {
			return appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("record %d: enrollment %s is %s, not %s", position, enrollment.ID, enrollment.Status, models.EnrollmentStatusActive))
		}
	}
	return nil
}

// AssessmentSheet returns the score entry view of one subject for every active
// student of a class term.
func (s *AssessmentService) AssessmentSheet(ctx context.Context, actor AuthorizationContext, classTermID, subjectID string) (*models.AssessmentSheet, error) {
	classTerm, err := s.loadClassTerm(ctx, actor, classTermID)
	if err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "subject not found", "failed to load subject")
	}
	if err := actor.ensureSchool(subject.SchoolID); err != nil {
		return nil, err
	}
	if actor.IsTeacherScoped() {
		if err := s.teachers.Authorize(ctx, actor.RestrictedTeacherID, subject.ID, classTerm.TermID, classTerm.ID); err != nil {
			return nil, err
		}
	}

	key := SheetCacheKey(classTerm.TermID, subject.ID, classTerm.ID)
	var cached models.AssessmentSheet
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	roster, latest, err := s.loadClassAssessments(ctx, classTerm, []string{subject.ID})
	if err != nil {
		return nil, err
	}
	scale := s.grading.LoadScale(ctx, actor.SchoolID)

	sheet := &models.AssessmentSheet{
		ClassTermID: classTerm.ID,
		TermID:      classTerm.TermID,
		SubjectID:   subject.ID,
		Teacher:     s.teachers.ResolveTeacher(ctx, subject.ID, classTerm.ID),
		Rows:        make([]models.AssessmentSheetRow, 0, len(roster)),
	}
	statuses := make([]models.CompletionStatus, 0, len(roster))
	for _, student := range roster {
		assessment := latest[assessmentKey{studentID: student.StudentID, subjectID: subject.ID}]
		total := AssessmentTotal(assessment)
		status := ClassifyCompletion(assessment).Status
		statuses = append(statuses, status)
		sheet.Rows = append(sheet.Rows, models.AssessmentSheetRow{
			StudentID:    student.StudentID,
			StudentName:  student.StudentName,
			AdmissionNo:  student.AdmissionNo,
			EnrollmentID: student.ID,
			Assessment:   assessment,
			TotalScore:   total,
			Grade:        scale.Resolve(total),
			Status:       status,
		})
	}
	sheet.Summary = SummarizeCompletion(statuses)

	if !scale.Degraded() {
		s.cache.Set(ctx, key, sheet, s.cfg.SheetCacheTTL)
	}
	return sheet, nil
}

// CompletionOverview summarises completion of every subject offered to a class term.
func (s *AssessmentService) CompletionOverview(ctx context.Context, actor AuthorizationContext, classTermID string) (*models.CompletionOverview, error) {
	classTerm, err := s.loadClassTerm(ctx, actor, classTermID)
	if err != nil {
		return nil, err
	}
	if actor.IsTeacherScoped() {
		if err := s.teachers.AuthorizeClassTerm(ctx, actor.RestrictedTeacherID, classTerm.ID); err != nil {
			return nil, err
		}
	}

	key := OverviewCacheKey(classTerm.ID)
	var cached models.CompletionOverview
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	subjects, err := s.subjects.ListByClassTerm(ctx, classTerm.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class subjects")
	}
	subjectIDs := make([]string, len(subjects))
	for i, subject := range subjects {
		subjectIDs[i] = subject.ID
	}
	roster, latest, err := s.loadClassAssessments(ctx, classTerm, subjectIDs)
	if err != nil {
		return nil, err
	}

	overview := &models.CompletionOverview{
		ClassTermID: classTerm.ID,
		TermID:      classTerm.TermID,
		Subjects:    make([]models.SubjectCompletion, 0, len(subjects)),
	}
	for _, subject := range subjects {
		statuses := make([]models.CompletionStatus, 0, len(roster))
		for _, student := range roster {
			a := latest[assessmentKey{studentID: student.StudentID, subjectID: subject.ID}]
			statuses = append(statuses, ClassifyCompletion(a).Status)
		}
		overview.Subjects = append(overview.Subjects, models.SubjectCompletion{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Summary:     SummarizeCompletion(statuses),
		})
	}

	s.cache.Set(ctx, key, overview, s.cfg.SheetCacheTTL)
	return overview, nil
}

// AutoPublish publishes every assessment of a subject in a class term, but only
// when each active student is absent, exempt or has all four components. When
// any student is incomplete nothing changes and the count is reported.
func (s *AssessmentService) AutoPublish(ctx context.Context, actor AuthorizationContext, req dto.PublishAssessmentsRequest) (*models.PublishResult, error) {
	if !actor.CanWrite() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot publish assessments")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, s.validator.Message(err))
	}
	classTerm, err := s.loadClassTerm(ctx, actor, req.ClassTermID)
	if err != nil {
		return nil, err
	}
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "subject not found", "failed to load subject")
	}
	if err := actor.ensureSchool(subject.SchoolID); err != nil {
		return nil, err
	}
	if actor.IsTeacherScoped() {
		if err := s.teachers.Authorize(ctx, actor.RestrictedTeacherID, subject.ID, classTerm.TermID, classTerm.ID); err != nil {
			return nil, err
		}
	}

	roster, latest, err := s.loadClassAssessments(ctx, classTerm, []string{subject.ID})
	if err != nil {
		return nil, err
	}
	result := &models.PublishResult{TotalStudents: len(roster)}
	for _, student := range roster {
		switch ClassifyCompletion(latest[assessmentKey{studentID: student.StudentID, subjectID: subject.ID}]).Status {
		case models.CompletionComplete, models.CompletionAbsent, models.CompletionExempt:
		default:
			result.IncompleteCount++
		}
	}
	if result.IncompleteCount > 0 {
		s.metrics.RecordPublishAttempt("incomplete")
		s.logger.Info("auto-publish skipped",
			zap.String("class_term_id", classTerm.ID), zap.String("subject_id", subject.ID), zap.Int("incomplete", result.IncompleteCount))
		return result, nil
	}

	published, err := s.assessments.PublishAll(ctx, classTerm.ID, subject.ID, classTerm.TermID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to publish assessments")
	}
	result.Published = true
	result.PublishedCount = published
	s.invalidate(ctx, classTerm.TermID, subject.ID)
	s.metrics.RecordPublishAttempt("published")
	s.logger.Info("assessments published",
		zap.String("class_term_id", classTerm.ID), zap.String("subject_id", subject.ID), zap.Int64("rows", published))
	return result, nil
}

func (s *AssessmentService) loadClassAssessments(ctx context.Context, classTerm *models.ClassTermDetail, subjectIDs []string) ([]models.EnrolledStudent, map[assessmentKey]*models.Assessment, error) {
	roster, err := s.enrollments.ListActiveByClassTerm(ctx, classTerm.ID)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load class roster")
	}
	if len(subjectIDs) == 0 {
		return roster, map[assessmentKey]*models.Assessment{}, nil
	}
	rows, err := s.assessments.List(ctx, models.AssessmentFilter{ClassTermID: classTerm.ID, TermID: classTerm.TermID, SubjectIDs: subjectIDs})
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to load assessments")
	}
	return roster, latestAssessments(rows), nil
}

func (s *AssessmentService) invalidate(ctx context.Context, termID, subjectID string) {
	s.cache.Invalidate(ctx,
		fmt.Sprintf("assessments:term:%s:subject:%s:*", termID, subjectID),
		"assessments:overview:*")
}

// sheetCachePattern matches every cached assessment sheet.
const sheetCachePattern = "assessments:term:*"

// SheetCacheKey is the cache key of an assessment sheet.
func SheetCacheKey(termID, subjectID, classTermID string) string {
	return fmt.Sprintf("assessments:term:%s:subject:%s:class:%s", termID, subjectID, classTermID)
}

// OverviewCacheKey is the cache key of a class term completion overview.
func OverviewCacheKey(classTermID string) string {
	return "assessments:overview:class:" + classTermID
}

type assessmentKey struct {
	studentID string
	subjectID string
}

// latestAssessments keeps the most recently updated row per student and subject,
// reconciling rows owned by different teachers.
func latestAssessments(rows []models.Assessment) map[assessmentKey]*models.Assessment {
	latest := make(map[assessmentKey]*models.Assessment, len(rows))
	for i := range rows {
		row := &rows[i]
		key := assessmentKey{studentID: row.StudentID, subjectID: row.SubjectID}
		if current, ok := latest[key]; !ok || newerAssessment(row, current) {
			latest[key] = row
		}
	}
	return latest
}

// newerAssessment orders rows by updated_at, then created_at, then id, so equal
// timestamps resolve the same way regardless of row order.
func newerAssessment(a, b *models.Assessment) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
