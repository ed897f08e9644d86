package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/pkg/config"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
	"github.com/noah-isme/sma-assessment-api/pkg/export"
)

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
	ContentType() string
	Extension() string
}

type classTermAuthorizer interface {
	AuthorizeClassTerm(ctx context.Context, teacherID, classTermID string) error
}

// RankingServiceConfig controls how overall grades are derived and exported.
type RankingServiceConfig struct {
	OverallBasis   string
	SchoolName     string
	ReportsEnabled bool
}

// RankingServiceParams groups constructor dependencies.
type RankingServiceParams struct {
	Assessments assessmentRepository
	Subjects    subjectReader
	ClassTerms  classTermReader
	Enrollments enrollmentReader
	Teachers    classTermAuthorizer
	Grading     gradeScaleLoader
	Renderers   map[models.ExportFormat]documentRenderer
	Logger      *zap.Logger
	Config      RankingServiceConfig
	Now         func() time.Time
}

// RankingService compiles class result sheets from stored assessments.
type RankingService struct {
	assessments assessmentRepository
	subjects    subjectReader
	classTerms  classTermReader
	enrollments enrollmentReader
	teachers    classTermAuthorizer
	grading     gradeScaleLoader
	renderers   map[models.ExportFormat]documentRenderer
	logger      *zap.Logger
	cfg         RankingServiceConfig
	now         func() time.Time
}

// NewRankingService constructs a RankingService. CSV and PDF renderers are
// installed when none are supplied.
func NewRankingService(params RankingServiceParams) *RankingService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderers := params.Renderers
	if renderers == nil {
		renderers = map[models.ExportFormat]documentRenderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		}
	}
	cfg := params.Config
	if cfg.OverallBasis != config.OverallBasisTotal {
		cfg.OverallBasis = config.OverallBasisAverage
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &RankingService{
		assessments: params.Assessments,
		subjects:    params.Subjects,
		classTerms:  params.ClassTerms,
		enrollments: params.Enrollments,
		teachers:    params.Teachers,
		grading:     params.Grading,
		renderers:   renderers,
		logger:      logger,
		cfg:         cfg,
		now:         now,
	}
}

// RankClass computes the result sheet of a class term over the given subjects,
// or every subject offered to the class when subjectIDs is empty.
func (s *RankingService) RankClass(ctx context.Context, actor AuthorizationContext, classTermID string, subjectIDs []string) (*models.ClassResultSet, error) {
	classTerm, err := s.classTerms.FindByID(ctx, classTermID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class term not found", "failed to load class term")
	}
	if err := actor.ensureSchool(classTerm.SchoolID); err != nil {
		return nil, err
	}
	if actor.IsTeacherScoped() {
		if err := s.teachers.AuthorizeClassTerm(ctx, actor.RestrictedTeacherID, classTerm.ID); err != nil {
			return nil, err
		}
	}

	subjects, err := s.resolveSubjects(ctx, actor, classTerm.ID, subjectIDs)
	if err != nil {
		return nil, err
	}
	roster, err := s.enrollments.ListActiveByClassTerm(ctx, classTerm.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}

	latest := map[assessmentKey]*models.Assessment{}
	if len(subjects) > 0 {
		ids := make([]string, len(subjects))
		for i, subject := range subjects {
			ids[i] = subject.ID
		}
		rows, err := s.assessments.List(ctx, models.AssessmentFilter{ClassTermID: classTerm.ID, TermID: classTerm.TermID, SubjectIDs: ids})
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load assessments")
		}
		latest = latestAssessments(rows)
	}

	scale := s.grading.LoadScale(ctx, actor.SchoolID)
	set := compileResults(roster, subjects, latest, scale, s.cfg.OverallBasis)
	set.ClassTermID = classTerm.ID
	set.ClassName = classTerm.ClassName
	set.TermID = classTerm.TermID
	set.TermName = classTerm.TermName
	set.GeneratedAt = s.now().UTC()
	return set, nil
}

// StudentReport cuts one student's report card out of the class result set,
// keeping class-wide positions and statistics.
func (s *RankingService) StudentReport(ctx context.Context, actor AuthorizationContext, classTermID, studentID string) (*models.StudentReport, error) {
	set, err := s.RankClass(ctx, actor, classTermID, nil)
	if err != nil {
		return nil, err
	}
	for _, result := range set.Students {
		if result.StudentID != studentID {
			continue
		}
		return &models.StudentReport{
			ClassTermID:       set.ClassTermID,
			ClassName:         set.ClassName,
			TermName:          set.TermName,
			ClassSize:         len(set.Students),
			Result:            result,
			SubjectStatistics: set.SubjectStatistics,
			ClassStatistics:   set.ClassStatistics,
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not actively enrolled in the class term")
}

// ExportClassResults renders the class result sheet in the requested format.
func (s *RankingService) ExportClassResults(ctx context.Context, actor AuthorizationContext, classTermID string, subjectIDs []string, format models.ExportFormat) (*models.ExportedFile, error) {
	if !s.cfg.ReportsEnabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "result exports are disabled")
	}
	renderer, ok := s.renderers[models.ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	set, err := s.RankClass(ctx, actor, classTermID, subjectIDs)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(s.resultDocument(set))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render result sheet")
	}
	s.logger.Info("result sheet exported",
		zap.String("class_term_id", set.ClassTermID),
		zap.String("format", renderer.Extension()),
		zap.Int("students", len(set.Students)))

	return &models.ExportedFile{
		FileName:    fmt.Sprintf("results-%s-%s.%s", slug(set.ClassName), slug(set.TermName), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *RankingService) resolveSubjects(ctx context.Context, actor AuthorizationContext, classTermID string, subjectIDs []string) ([]models.Subject, error) {
	offered, err := s.subjects.ListByClassTerm(ctx, classTermID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class subjects")
	}
	if len(subjectIDs) == 0 {
		return offered, nil
	}

	byID := make(map[string]models.Subject, len(offered))
	for _, subject := range offered {
		byID[subject.ID] = subject
	}
	selected := make([]models.Subject, 0, len(subjectIDs))
	seen := make(map[string]struct{}, len(subjectIDs))
	for _, id := range subjectIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		subject, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s is not offered to the class term", id))
		}
		if err := actor.ensureSchool(subject.SchoolID); err != nil {
			return nil, err
		}
		selected = append(selected, subject)
	}
	return selected, nil
}

func (s *RankingService) resultDocument(set *models.ClassResultSet) export.Document {
	headers := []string{"Position", "Admission No", "Student"}
	for _, subject := range set.Subjects {
		headers = append(headers, subject.Name)
	}
	headers = append(headers, "Total", "Average", "Grade")

	rows := make([]map[string]string, 0, len(set.Students))
	for _, student := range set.Students {
		row := map[string]string{
			"Position":     positionLabel(student.Position),
			"Admission No": student.AdmissionNo,
			"Student":      student.StudentName,
			"Total":        fmt.Sprintf("%.2f", student.TotalScore),
			"Average":      fmt.Sprintf("%.2f", student.AverageScore),
		}
		if student.Grade != nil {
			row["Grade"] = student.Grade.Grade
		}
		for i, subject := range student.Subjects {
			row[set.Subjects[i].Name] = subjectCell(subject)
		}
		rows = append(rows, row)
	}

	subtitle := []string{fmt.Sprintf("%s - %s", set.ClassName, set.TermName)}
	if s.cfg.SchoolName != "" {
		subtitle = append([]string{s.cfg.SchoolName}, subtitle...)
	}
	return export.Document{
		Title:    "Class Result Sheet",
		Subtitle: subtitle,
		Footer:   "Generated " + set.GeneratedAt.Format(time.RFC1123),
		Data:     export.Dataset{Headers: headers, Rows: rows},
	}
}

// compileResults builds the per-student results, positions and statistics.
// Students are ordered by position with unranked students last.
func compileResults(roster []models.EnrolledStudent, subjects []models.Subject, latest map[assessmentKey]*models.Assessment, scale *GradeScale, basis string) *models.ClassResultSet {
	students := make([]models.StudentResult, 0, len(roster))
	for _, enrolled := range roster {
		result := models.StudentResult{
			StudentID:   enrolled.StudentID,
			StudentName: enrolled.StudentName,
			AdmissionNo: enrolled.AdmissionNo,
			Subjects:    make([]models.SubjectResult, 0, len(subjects)),
		}
		for _, subject := range subjects {
			a := latest[assessmentKey{studentID: enrolled.StudentID, subjectID: subject.ID}]
			subjectResult := models.SubjectResult{
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				Status:      ClassifyCompletion(a).Status,
			}
			if a != nil && !a.IsExempt {
				subjectResult.Score = AssessmentTotal(a)
			}
			if subjectResult.Score != nil {
				subjectResult.Grade = scale.Resolve(subjectResult.Score)
				result.TotalScore += *subjectResult.Score
				result.SubjectsWithScore++
			}
			result.Subjects = append(result.Subjects, subjectResult)
		}
		result.TotalScore = round2(result.TotalScore)
		if result.SubjectsWithScore > 0 {
			result.AverageScore = round2(result.TotalScore / float64(result.SubjectsWithScore))
			basisScore := result.AverageScore
			if basis == config.OverallBasisTotal {
				basisScore = result.TotalScore
			}
			result.Grade = scale.Resolve(&basisScore)
		}
		students = append(students, result)
	}

	// Overall positions.
	ranked := make([]int, 0, len(students))
	for i := range students {
		if students[i].SubjectsWithScore > 0 {
			ranked = append(ranked, i)
		}
	}
	totals := make([]float64, len(ranked))
	for i, idx := range ranked {
		totals[i] = students[idx].TotalScore
	}
	for i, position := range competitionRank(totals) {
		students[ranked[i]].Position = position
	}

	// Per-subject positions and statistics.
	subjectStats := make([]models.SubjectStatistics, 0, len(subjects))
	for j, subject := range subjects {
		var (
			holders []int
			scores  []float64
		)
		for i := range students {
			if score := students[i].Subjects[j].Score; score != nil {
				holders = append(holders, i)
				scores = append(scores, *score)
			}
		}
		for k, position := range competitionRank(scores) {
			students[holders[k]].Subjects[j].Position = position
		}
		subjectStats = append(subjectStats, models.SubjectStatistics{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Statistics:  scoreStatistics(scores),
		})
	}

	sort.SliceStable(students, func(i, j int) bool {
		pi, pj := students[i].Position, students[j].Position
		if pi == 0 || pj == 0 {
			return pi != 0 && pj == 0
		}
		return pi < pj
	})

	if subjects == nil {
		subjects = []models.Subject{}
	}
	return &models.ClassResultSet{
		OverallBasis:      basis,
		Subjects:          subjects,
		Students:          students,
		SubjectStatistics: subjectStats,
		ClassStatistics:   scoreStatistics(totals),
	}
}

// competitionRank assigns standard competition ranks ("1224") to scores in
// descending order. Scores equal at two decimals share a rank. The result is
// aligned with the input.
func competitionRank(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return round2(scores[order[a]]) > round2(scores[order[b]]) })

	positions := make([]int, len(scores))
	for rank, idx := range order {
		if rank > 0 && round2(scores[idx]) == round2(scores[order[rank-1]]) {
			positions[idx] = positions[order[rank-1]]
			continue
		}
		positions[idx] = rank + 1
	}
	return positions
}

func scoreStatistics(scores []float64) models.ScoreStatistics {
	stats := models.ScoreStatistics{Count: len(scores)}
	if len(scores) == 0 {
		return stats
	}
	highest, lowest, sum := scores[0], scores[0], 0.0
	for _, score := range scores {
		if score > highest {
			highest = score
		}
		if score < lowest {
			lowest = score
		}
		sum += score
	}
	average := round2(sum / float64(len(scores)))
	highest, lowest = round2(highest), round2(lowest)
	stats.Highest, stats.Lowest, stats.Average = &highest, &lowest, &average
	return stats
}

func positionLabel(position int) string {
	if position == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", position)
}

func subjectCell(result models.SubjectResult) string {
	switch {
	case result.Status == models.CompletionExempt:
		return "EX"
	case result.Score == nil && result.Status == models.CompletionAbsent:
		return "ABS"
	case result.Score == nil:
		return "-"
	}
	cell := fmt.Sprintf("%.2f", *result.Score)
	if result.Grade != nil {
		cell += " " + result.Grade.Grade
	}
	return cell
}

func slug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	dash := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
