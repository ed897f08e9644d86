package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-assessment-api/internal/models"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
)

const (
	testSchool     = "school-1"
	otherSchool    = "school-2"
	testTerm       = "term-1"
	testClassTerm  = "ct-1"
	testSubject    = "sub-math"
	testSubjectEng = "sub-eng"
	teacherAda     = "teacher-ada"
	teacherBola    = "teacher-bola"
)

func floatPtr(v float64) *float64 { return &v }

func adminActor() AuthorizationContext {
	return AuthorizationContext{UserID: "admin-1", Role: models.RoleAdmin, SchoolID: testSchool, CanWriteAnyTeacher: true}
}

func teacherActor(teacherID string) AuthorizationContext {
	return AuthorizationContext{UserID: "user-" + teacherID, Role: models.RoleTeacher, SchoolID: testSchool, RestrictedTeacherID: teacherID}
}

type memCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{items: map[string][]byte{}}
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

type fakeTerms map[string]*models.Term

func (f fakeTerms) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if term, ok := f[id]; ok {
		cp := *term
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSubjects struct {
	items   map[string]*models.Subject
	offered map[string][]string
}

func (f *fakeSubjects) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := f.items[id]; ok {
		cp := *subject
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubjects) ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	var out []models.Subject
	for _, id := range ids {
		if subject, ok := f.items[id]; ok {
			out = append(out, *subject)
		}
	}
	return out, nil
}

func (f *fakeSubjects) ListByClassTerm(ctx context.Context, classTermID string) ([]models.Subject, error) {
	return f.ListByIDs(ctx, f.offered[classTermID])
}

type fakeClassTerms map[string]*models.ClassTermDetail

func (f fakeClassTerms) FindByID(ctx context.Context, id string) (*models.ClassTermDetail, error) {
	if classTerm, ok := f[id]; ok {
		cp := *classTerm
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type fakeStudents map[string]models.Student

func (f fakeStudents) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	var out []models.Student
	for _, id := range ids {
		if student, ok := f[id]; ok {
			out = append(out, student)
		}
	}
	return out, nil
}

type fakeEnrollments struct {
	items []models.EnrolledStudent
}

func (f *fakeEnrollments) ListByIDs(ctx context.Context, ids []string) ([]models.StudentClassEnrollment, error) {
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.StudentClassEnrollment
	for _, item := range f.items {
		if wanted[item.ID] {
			out = append(out, item.StudentClassEnrollment)
		}
	}
	return out, nil
}

func (f *fakeEnrollments) ListActiveByClassTerm(ctx context.Context, classTermID string) ([]models.EnrolledStudent, error) {
	var out []models.EnrolledStudent
	for _, item := range f.items {
		if item.ClassTermID == classTermID && item.Status == models.EnrollmentStatusActive {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeTeachers map[string]*models.Teacher

func (f fakeTeachers) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := f[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

// fakeAssessmentStore keeps rows in memory and applies the same identity rules
// as the SQL repository for both key modes.
type fakeAssessmentStore struct {
	mu        sync.Mutex
	rows      []models.Assessment
	calls     int
	failOn    map[int]error
	clock     time.Time
	publishes int
}

func newFakeAssessmentStore() *fakeAssessmentStore {
	return &fakeAssessmentStore{failOn: map[int]error{}, clock: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)}
}

func (f *fakeAssessmentStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeAssessmentStore) SaveBatch(ctx context.Context, records []models.Assessment, mode models.AssessmentKeyMode) ([]models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.failOn[f.calls]; ok {
		return nil, err
	}

	snapshot := append([]models.Assessment(nil), f.rows...)
	saved := make([]models.Assessment, 0, len(records))
	for _, record := range records {
		now := f.tick()
		idx := f.match(record, mode)
		if idx < 0 {
			record.ID = uuid.NewString()
			record.CreatedAt = now
			record.UpdatedAt = now
			record.CreatedBy = record.EditedBy
			f.rows = append(f.rows, record)
			saved = append(saved, record)
			continue
		}
		existing := f.rows[idx]
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.CreatedBy = existing.CreatedBy
		record.IsPublished = existing.IsPublished
		record.UpdatedAt = now
		if existing.TeacherID != nil || record.TeacherID == nil {
			record.TeacherID = existing.TeacherID
		}
		if f.collides(idx, record) {
			f.rows = snapshot
			return nil, &pq.Error{Code: "23505", Constraint: "assessments_student_subject_term_teacher_key"}
		}
		f.rows[idx] = record
		saved = append(saved, record)
	}
	return saved, nil
}

func (f *fakeAssessmentStore) match(record models.Assessment, mode models.AssessmentKeyMode) int {
	best := -1
	for i, row := range f.rows {
		if row.StudentID != record.StudentID || row.SubjectID != record.SubjectID || row.TermID != record.TermID {
			continue
		}
		if mode == models.AssessmentKeyWithTeacher && !sameTeacher(row.TeacherID, record.TeacherID) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		owned := record.TeacherID != nil && sameTeacher(row.TeacherID, record.TeacherID)
		bestOwned := record.TeacherID != nil && sameTeacher(f.rows[best].TeacherID, record.TeacherID)
		if owned != bestOwned {
			if owned {
				best = i
			}
			continue
		}
		if row.CreatedAt.Before(f.rows[best].CreatedAt) {
			best = i
		}
	}
	return best
}

// collides reports whether writing record at idx would break the unique
// (student, subject, term, teacher) key. NULL teachers never collide.
func (f *fakeAssessmentStore) collides(idx int, record models.Assessment) bool {
	if record.TeacherID == nil {
		return false
	}
	for i, row := range f.rows {
		if i != idx && row.StudentID == record.StudentID && row.SubjectID == record.SubjectID &&
			row.TermID == record.TermID && sameTeacher(row.TeacherID, record.TeacherID) {
			return true
		}
	}
	return false
}

func sameTeacher(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *fakeAssessmentStore) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subjects := map[string]bool{}
	for _, id := range filter.SubjectIDs {
		subjects[id] = true
	}
	var out []models.Assessment
	for _, row := range f.rows {
		if filter.TermID != "" && row.TermID != filter.TermID {
			continue
		}
		if len(subjects) > 0 && !subjects[row.SubjectID] {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return newerAssessment(&out[i], &out[j]) })
	return out, nil
}

func (f *fakeAssessmentStore) PublishAll(ctx context.Context, classTermID, subjectID, termID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes++
	var n int64
	for i := range f.rows {
		if f.rows[i].SubjectID == subjectID && f.rows[i].TermID == termID {
			f.rows[i].IsPublished = true
			n++
		}
	}
	return n, nil
}

func (f *fakeAssessmentStore) rowsFor(studentID string) []models.Assessment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Assessment
	for _, row := range f.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	return out
}

type fakeAssignments struct {
	subjectGrants []models.TeacherSubject
	classGrants   []models.TeacherClassTerm
	names         map[string]string
	lookupErr     error
	createErr     error
}

func (f *fakeAssignments) FindSubjectTeacher(ctx context.Context, subjectID, classTermID string) (*models.AssignedTeacher, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, grant := range f.subjectGrants {
		if grant.SubjectID != subjectID {
			continue
		}
		for _, class := range f.classGrants {
			if class.TeacherID == grant.TeacherID && class.ClassTermID == classTermID {
				return &models.AssignedTeacher{TeacherID: grant.TeacherID, FullName: f.names[grant.TeacherID]}, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAssignments) FindClassTeacher(ctx context.Context, classTermID string) (*models.AssignedTeacher, error) {
	for _, class := range f.classGrants {
		if class.ClassTermID == classTermID {
			return &models.AssignedTeacher{TeacherID: class.TeacherID, FullName: f.names[class.TeacherID]}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAssignments) HasSubjectGrant(ctx context.Context, teacherID, subjectID, termID string) (bool, error) {
	for _, grant := range f.subjectGrants {
		if grant.TeacherID == teacherID && grant.SubjectID == subjectID && grant.TermID == termID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignments) HasClassTermGrant(ctx context.Context, teacherID, classTermID string) (bool, error) {
	for _, grant := range f.classGrants {
		if grant.TeacherID == teacherID && grant.ClassTermID == classTermID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignments) ListSubjects(ctx context.Context, teacherID string) ([]models.TeacherSubjectDetail, error) {
	var out []models.TeacherSubjectDetail
	for _, grant := range f.subjectGrants {
		if grant.TeacherID == teacherID {
			out = append(out, models.TeacherSubjectDetail{TeacherSubject: grant})
		}
	}
	return out, nil
}

func (f *fakeAssignments) ListClassTerms(ctx context.Context, teacherID string) ([]models.TeacherClassTermDetail, error) {
	var out []models.TeacherClassTermDetail
	for _, grant := range f.classGrants {
		if grant.TeacherID == teacherID {
			out = append(out, models.TeacherClassTermDetail{TeacherClassTerm: grant})
		}
	}
	return out, nil
}

func (f *fakeAssignments) CreateSubject(ctx context.Context, grant *models.TeacherSubject) error {
	if f.createErr != nil {
		return f.createErr
	}
	grant.ID = uuid.NewString()
	f.subjectGrants = append(f.subjectGrants, *grant)
	return nil
}

func (f *fakeAssignments) CreateClassTerm(ctx context.Context, grant *models.TeacherClassTerm) error {
	if f.createErr != nil {
		return f.createErr
	}
	grant.ID = uuid.NewString()
	f.classGrants = append(f.classGrants, *grant)
	return nil
}

func (f *fakeAssignments) DeleteSubject(ctx context.Context, teacherID, grantID string) error {
	for i, grant := range f.subjectGrants {
		if grant.ID == grantID && grant.TeacherID == teacherID {
			f.subjectGrants = append(f.subjectGrants[:i], f.subjectGrants[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeAssignments) DeleteClassTerm(ctx context.Context, teacherID, grantID string) error {
	for i, grant := range f.classGrants {
		if grant.ID == grantID && grant.TeacherID == teacherID {
			f.classGrants = append(f.classGrants[:i], f.classGrants[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// fixture wires the services against one school with a single class term.
type fixture struct {
	terms       fakeTerms
	subjects    *fakeSubjects
	classTerms  fakeClassTerms
	students    fakeStudents
	enrollments *fakeEnrollments
	teachers    fakeTeachers
	store       *fakeAssessmentStore
	assignments *fakeAssignments
	cacheRepo   *memCacheRepo
	cache       *CacheService
	grading     *GradingService
	gradingRepo *fakeGradingRepo
	teacherSvc  *TeacherAssignmentService
}

func newFixture(studentCount int) *fixture {
	f := &fixture{
		terms: fakeTerms{testTerm: {ID: testTerm, SchoolID: testSchool, Name: "First Term"}},
		subjects: &fakeSubjects{
			items: map[string]*models.Subject{
				testSubject:    {ID: testSubject, SchoolID: testSchool, Name: "Mathematics"},
				testSubjectEng: {ID: testSubjectEng, SchoolID: testSchool, Name: "English"},
			},
			offered: map[string][]string{testClassTerm: {testSubject, testSubjectEng}},
		},
		classTerms: fakeClassTerms{testClassTerm: {
			ClassTerm: models.ClassTerm{ID: testClassTerm, ClassID: "class-1", TermID: testTerm},
			SchoolID:  testSchool, ClassName: "JSS1A", TermName: "First Term",
		}},
		students:    fakeStudents{},
		enrollments: &fakeEnrollments{},
		teachers: fakeTeachers{
			teacherAda:  {ID: teacherAda, SchoolID: testSchool, FullName: "Ada Obi", Active: true},
			teacherBola: {ID: teacherBola, SchoolID: testSchool, FullName: "Bola Ade", Active: true},
		},
		store: newFakeAssessmentStore(),
		assignments: &fakeAssignments{
			names: map[string]string{teacherAda: "Ada Obi", teacherBola: "Bola Ade"},
		},
		cacheRepo:   newMemCacheRepo(),
		gradingRepo: newFakeGradingRepo(),
	}
	for i := 1; i <= studentCount; i++ {
		f.addStudent(studentID(i), models.EnrollmentStatusActive)
	}
	f.cache = NewCacheService(f.cacheRepo, nil, time.Minute, nil, true)
	f.grading = NewGradingService(f.gradingRepo, NewGradingCache(f.cache, time.Hour), nil, nil, nil)
	f.teacherSvc = NewTeacherAssignmentService(f.teachers, f.subjects, f.terms, f.classTerms, f.assignments, nil, nil)
	return f
}

func studentID(i int) string {
	return fmt.Sprintf("stu-%02d", i)
}

func enrollmentID(id string) string {
	return "enr-" + id
}

func (f *fixture) addStudent(id string, status models.EnrollmentStatus) {
	f.students[id] = models.Student{ID: id, SchoolID: testSchool, FullName: "Student " + id, AdmissionNo: "ADM-" + id}
	f.enrollments.items = append(f.enrollments.items, models.EnrolledStudent{
		StudentClassEnrollment: models.StudentClassEnrollment{ID: enrollmentID(id), StudentID: id, ClassTermID: testClassTerm, Status: status},
		StudentName:            "Student " + id,
		AdmissionNo:            "ADM-" + id,
	})
}

func (f *fixture) grantTeacher(teacherID, subjectID string) {
	f.assignments.subjectGrants = append(f.assignments.subjectGrants, models.TeacherSubject{ID: uuid.NewString(), TeacherID: teacherID, SubjectID: subjectID, TermID: testTerm})
	f.assignments.classGrants = append(f.assignments.classGrants, models.TeacherClassTerm{ID: uuid.NewString(), TeacherID: teacherID, ClassTermID: testClassTerm})
}

func (f *fixture) assessmentService(batchSize int) *AssessmentService {
	return NewAssessmentService(AssessmentServiceParams{
		Assessments: f.store,
		Terms:       f.terms,
		Subjects:    f.subjects,
		ClassTerms:  f.classTerms,
		Students:    f.students,
		Enrollments: f.enrollments,
		Teachers:    f.teacherSvc,
		Grading:     f.grading,
		Cache:       f.cache,
		Config:      AssessmentServiceConfig{BatchSize: batchSize, TxTimeout: time.Second},
	})
}

func (f *fixture) rankingService(basis string) *RankingService {
	return NewRankingService(RankingServiceParams{
		Assessments: f.store,
		Subjects:    f.subjects,
		ClassTerms:  f.classTerms,
		Enrollments: f.enrollments,
		Teachers:    f.teacherSvc,
		Grading:     f.grading,
		Config:      RankingServiceConfig{OverallBasis: basis, SchoolName: "Unity College", ReportsEnabled: true},
		Now:         func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
}

type fakeGradingRepo struct {
	systems    map[string]*models.GradingSystem
	findErr    error
	findCalls  int
	replaced   []models.GradeLevel
	defaultSet string
	deleted    string
}

func newFakeGradingRepo() *fakeGradingRepo {
	return &fakeGradingRepo{systems: map[string]*models.GradingSystem{}}
}

func (f *fakeGradingRepo) FindDefault(ctx context.Context, schoolID string) (*models.GradingSystem, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, system := range f.systems {
		if system.SchoolID == schoolID && system.IsDefault {
			cp := *system
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGradingRepo) FindByID(ctx context.Context, id string) (*models.GradingSystem, error) {
	if system, ok := f.systems[id]; ok {
		cp := *system
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGradingRepo) ListBySchool(ctx context.Context, schoolID string) ([]models.GradingSystem, error) {
	var out []models.GradingSystem
	for _, system := range f.systems {
		if system.SchoolID == schoolID {
			out = append(out, *system)
		}
	}
	return out, nil
}

func (f *fakeGradingRepo) Create(ctx context.Context, system *models.GradingSystem) error {
	system.ID = uuid.NewString()
	if system.IsDefault {
		for _, other := range f.systems {
			if other.SchoolID == system.SchoolID {
				other.IsDefault = false
			}
		}
	}
	cp := *system
	f.systems[system.ID] = &cp
	return nil
}

func (f *fakeGradingRepo) ReplaceLevels(ctx context.Context, systemID string, levels []models.GradeLevel) error {
	f.replaced = levels
	if system, ok := f.systems[systemID]; ok {
		system.Levels = levels
	}
	return nil
}

func (f *fakeGradingRepo) SetDefault(ctx context.Context, schoolID, systemID string) error {
	if _, ok := f.systems[systemID]; !ok {
		return sql.ErrNoRows
	}
	for id, system := range f.systems {
		if system.SchoolID == schoolID {
			system.IsDefault = id == systemID
		}
	}
	f.defaultSet = systemID
	return nil
}

func (f *fakeGradingRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.systems[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.systems, id)
	f.deleted = id
	return nil
}
