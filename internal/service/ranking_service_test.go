package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-assessment-api/internal/dto"
	"github.com/noah-isme/sma-assessment-api/internal/models"
	"github.com/noah-isme/sma-assessment-api/pkg/config"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
)

func TestCompetitionRank(t *testing.T) {
	assert.Equal(t, []int{1, 1, 3}, competitionRank([]float64{90, 90, 70}))
	assert.Equal(t, []int{4, 1, 3, 1}, competitionRank([]float64{10, 50.004, 20, 50}))
	assert.Empty(t, competitionRank(nil))
}

// seedResults stores scores for four students:
// stu-01 and stu-02 tie on 144, stu-03 is exempt from maths, stu-04 has nothing.
func seedResults(t *testing.T, f *fixture) {
	t.Helper()
	svc := f.assessmentService(5)
	ctx := context.Background()

	exempt := record(studentID(3), nil, nil, nil, nil)
	exempt.IsExempt = true
	_, err := svc.SaveAssessments(ctx, adminActor(), saveRequest(
		fullRecord(studentID(1), 46),
		fullRecord(studentID(2), 46),
		exempt,
	))
	require.NoError(t, err)

	eng := dto.SaveAssessmentsRequest{TermID: testTerm, SubjectID: testSubjectEng, ClassTermID: testClassTerm, Records: []dto.AssessmentRecord{
		fullRecord(studentID(1), 50),
		fullRecord(studentID(2), 50),
		fullRecord(studentID(3), 30),
	}}
	_, err = svc.SaveAssessments(ctx, adminActor(), eng)
	require.NoError(t, err)
}

func TestRankClass(t *testing.T) {
	f := newFixture(4)
	seedResults(t, f)

	set, err := f.rankingService(config.OverallBasisAverage).RankClass(context.Background(), adminActor(), testClassTerm, nil)
	require.NoError(t, err)
	require.Len(t, set.Students, 4)
	assert.Equal(t, "JSS1A", set.ClassName)
	assert.Len(t, set.Subjects, 2)

	first, second, third, last := set.Students[0], set.Students[1], set.Students[2], set.Students[3]
	assert.Equal(t, studentID(1), first.StudentID)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, 144.0, first.TotalScore)
	assert.Equal(t, 72.0, first.AverageScore)
	assert.Equal(t, "A2", first.Grade.Grade)

	assert.Equal(t, studentID(3), third.StudentID)
	assert.Equal(t, 3, third.Position)
	assert.Equal(t, 54.0, third.TotalScore)
	assert.Equal(t, 1, third.SubjectsWithScore)
	assert.Nil(t, third.Subjects[0].Score)
	assert.Equal(t, models.CompletionExempt, third.Subjects[0].Status)
	assert.Equal(t, 0, third.Subjects[0].Position)
	assert.Equal(t, 3, third.Subjects[1].Position)

	assert.Equal(t, studentID(4), last.StudentID)
	assert.Equal(t, 0, last.Position)
	assert.Nil(t, last.Grade)

	math := set.SubjectStatistics[0].Statistics
	assert.Equal(t, 2, math.Count)
	assert.Equal(t, 70.0, *math.Highest)
	english := set.SubjectStatistics[1].Statistics
	assert.Equal(t, 3, english.Count)
	assert.Equal(t, 67.33, *english.Average)

	assert.Equal(t, 3, set.ClassStatistics.Count)
	assert.Equal(t, 144.0, *set.ClassStatistics.Highest)
	assert.Equal(t, 54.0, *set.ClassStatistics.Lowest)
	assert.Equal(t, 114.0, *set.ClassStatistics.Average)
}

func TestRankClassOverallBasisTotal(t *testing.T) {
	f := newFixture(4)
	seedResults(t, f)

	set, err := f.rankingService(config.OverallBasisTotal).RankClass(context.Background(), adminActor(), testClassTerm, nil)
	require.NoError(t, err)
	assert.Equal(t, config.OverallBasisTotal, set.OverallBasis)
	assert.Equal(t, FailGrade, set.Students[0].Grade.Grade)
}

func TestRankClassSubjectSelection(t *testing.T) {
	f := newFixture(4)
	seedResults(t, f)
	svc := f.rankingService("")
	ctx := context.Background()

	set, err := svc.RankClass(ctx, adminActor(), testClassTerm, []string{testSubjectEng, testSubjectEng})
	require.NoError(t, err)
	require.Len(t, set.Subjects, 1)
	assert.Equal(t, config.OverallBasisAverage, set.OverallBasis)
	assert.Equal(t, 74.0, set.Students[0].TotalScore)

	_, err = svc.RankClass(ctx, adminActor(), testClassTerm, []string{"sub-unknown"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRankClassTeacherScope(t *testing.T) {
	f := newFixture(1)
	svc := f.rankingService("")
	ctx := context.Background()

	_, err := svc.RankClass(ctx, teacherActor(teacherAda), testClassTerm, nil)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	f.grantTeacher(teacherAda, testSubject)
	_, err = svc.RankClass(ctx, teacherActor(teacherAda), testClassTerm, nil)
	assert.NoError(t, err)
}

func TestStudentReport(t *testing.T) {
	f := newFixture(4)
	seedResults(t, f)
	svc := f.rankingService("")
	ctx := context.Background()

	report, err := svc.StudentReport(ctx, adminActor(), testClassTerm, studentID(3))
	require.NoError(t, err)
	assert.Equal(t, 4, report.ClassSize)
	assert.Equal(t, 3, report.Result.Position)
	assert.Len(t, report.SubjectStatistics, 2)

	_, err = svc.StudentReport(ctx, adminActor(), testClassTerm, "stu-x")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportClassResultsCSV(t *testing.T) {
	f := newFixture(4)
	seedResults(t, f)

	file, err := f.rankingService("").ExportClassResults(context.Background(), adminActor(), testClassTerm, nil, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "results-jss1a-first-term.csv", file.FileName)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Position,Admission No,Student,Mathematics,English,Total,Average,Grade", lines[0])
	assert.Equal(t, "1,ADM-stu-01,Student stu-01,70.00 A2,74.00 A2,144.00,72.00,A2", lines[1])
	assert.Equal(t, "3,ADM-stu-03,Student stu-03,EX,54.00 B2,54.00,54.00,B2", lines[3])
	assert.Equal(t, "-,ADM-stu-04,Student stu-04,-,-,0.00,0.00,", lines[4])
}

func TestExportClassResultsPDF(t *testing.T) {
	f := newFixture(2)
	_, err := f.assessmentService(5).SaveAssessments(context.Background(), adminActor(), saveRequest(fullRecord(studentID(1), 60)))
	require.NoError(t, err)

	file, err := f.rankingService("").ExportClassResults(context.Background(), adminActor(), testClassTerm, nil, models.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportClassResultsRejected(t *testing.T) {
	f := newFixture(1)
	svc := f.rankingService("")
	ctx := context.Background()

	_, err := svc.ExportClassResults(ctx, adminActor(), testClassTerm, nil, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	svc.cfg.ReportsEnabled = false
	_, err = svc.ExportClassResults(ctx, adminActor(), testClassTerm, nil, models.ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
