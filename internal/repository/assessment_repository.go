package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

const assessmentColumns = `a.id, a.student_id, a.subject_id, a.term_id, a.class_enrollment_id, a.teacher_id,
       a.ca1, a.ca2, a.ca3, a.exam, a.is_absent, a.is_exempt, a.is_published,
       a.created_by, a.edited_by, a.created_at, a.updated_at`

const insertAssessment = `INSERT INTO assessments (id, student_id, subject_id, term_id, class_enrollment_id, teacher_id,
        ca1, ca2, ca3, exam, is_absent, is_exempt, is_published, created_by, edited_by, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :term_id, :class_enrollment_id, :teacher_id,
        :ca1, :ca2, :ca3, :exam, :is_absent, :is_exempt, :is_published, :created_by, :edited_by, :created_at, :updated_at)`

// AssessmentRepository persists assessment rows.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an assessment repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

type existingAssessment struct {
	ID          string    `db:"id"`
	TeacherID   *string   `db:"teacher_id"`
	IsPublished bool      `db:"is_published"`
	CreatedBy   *string   `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// SaveBatch writes records in a single transaction and returns them as stored.
// With AssessmentKeyStudentSubjectTerm one row for the student, subject and term is
// locked and updated, or a row is inserted. The row owned by the record's teacher is
// preferred over the oldest row, and an owned row never changes teacher. With AssessmentKeyWithTeacher the
// row keyed additionally by teacher is upserted, so each teacher owns a separate row.
func (r *AssessmentRepository) SaveBatch(ctx context.Context, records []models.Assessment, mode models.AssessmentKeyMode) ([]models.Assessment, error) {
	if len(records) == 0 {
		return []models.Assessment{}, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assessment batch: %w", err)
	}

	saved := make([]models.Assessment, 0, len(records))
	for i := range records {
		record := records[i]
		now := time.Now().UTC()
		record.UpdatedAt = now

		switch mode {
		case models.AssessmentKeyWithTeacher:
			err = r.upsertForTeacher(ctx, tx, &record, now)
		default:
			err = r.upsertForStudent(ctx, tx, &record, now)
		}
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, err
		}
		saved = append(saved, record)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assessment batch: %w", err)
	}
	return saved, nil
}

func (r *AssessmentRepository) upsertForStudent(ctx context.Context, tx *sqlx.Tx, record *models.Assessment, now time.Time) error {
	const findExisting = `SELECT id, teacher_id, is_published, created_by, created_at FROM assessments
        WHERE student_id = $1 AND subject_id = $2 AND term_id = $3
        ORDER BY CASE WHEN teacher_id = $4 THEN 0 ELSE 1 END, created_at ASC, id ASC
        LIMIT 1 FOR UPDATE`
	var existing existingAssessment
	err := tx.GetContext(ctx, &existing, findExisting, record.StudentID, record.SubjectID, record.TermID, record.TeacherID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock assessment: %w", err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		r.prepareInsert(record, now)
		if _, err := tx.NamedExecContext(ctx, insertAssessment, record); err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}
		return nil
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.CreatedBy = existing.CreatedBy
	record.IsPublished = existing.IsPublished
	// Moving an owned row to another teacher would collide with that teacher's key
	// (student, subject, term, teacher). Only an unowned row takes the new teacher.
	if existing.TeacherID != nil || record.TeacherID == nil {
		record.TeacherID = existing.TeacherID
	}
	const update = `UPDATE assessments SET class_enrollment_id = :class_enrollment_id, teacher_id = :teacher_id,
        ca1 = :ca1, ca2 = :ca2, ca3 = :ca3, exam = :exam, is_absent = :is_absent, is_exempt = :is_exempt,
        edited_by = :edited_by, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, record); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) upsertForTeacher(ctx context.Context, tx *sqlx.Tx, record *models.Assessment, now time.Time) error {
	r.prepareInsert(record, now)
	const upsert = insertAssessment + `
        ON CONFLICT (student_id, subject_id, term_id, teacher_id)
        DO UPDATE SET class_enrollment_id = EXCLUDED.class_enrollment_id, ca1 = EXCLUDED.ca1, ca2 = EXCLUDED.ca2,
        ca3 = EXCLUDED.ca3, exam = EXCLUDED.exam, is_absent = EXCLUDED.is_absent, is_exempt = EXCLUDED.is_exempt,
        edited_by = EXCLUDED.edited_by, updated_at = EXCLUDED.updated_at
        RETURNING id, is_published, created_by, created_at`
	rows, err := sqlx.NamedQueryContext(ctx, tx, upsert, record)
	if err != nil {
		return fmt.Errorf("upsert teacher assessment: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("upsert teacher assessment: %w", err)
		}
		return fmt.Errorf("upsert teacher assessment: %w", sql.ErrNoRows)
	}
	if err := rows.Scan(&record.ID, &record.IsPublished, &record.CreatedBy, &record.CreatedAt); err != nil {
		return fmt.Errorf("scan teacher assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) prepareInsert(record *models.Assessment, now time.Time) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record.CreatedBy = record.EditedBy
	record.IsPublished = false
}

// List returns assessments of a class term in a term. Rows of the same student and
// subject are ordered newest first.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.Assessment, error) {
	conditions := []string{"e.class_term_id = $1", "a.term_id = $2"}
	args := []interface{}{filter.ClassTermID, filter.TermID}
	if len(filter.SubjectIDs) > 0 {
		args = append(args, pq.Array(filter.SubjectIDs))
		conditions = append(conditions, fmt.Sprintf("a.subject_id = ANY($%d)", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s
FROM assessments a
JOIN student_class_enrollments e ON e.id = a.class_enrollment_id
WHERE %s
ORDER BY a.student_id, a.subject_id, a.updated_at DESC, a.created_at DESC, a.id DESC`, assessmentColumns, strings.Join(conditions, " AND "))

	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// PublishAll marks every assessment of the class term, subject and term as published.
// updated_at is left alone so publishing does not change which row reads as latest.
func (r *AssessmentRepository) PublishAll(ctx context.Context, classTermID, subjectID, termID string) (int64, error) {
	const query = `UPDATE assessments AS a SET is_published = TRUE
FROM student_class_enrollments e
WHERE e.id = a.class_enrollment_id AND e.class_term_id = $1 AND a.subject_id = $2 AND a.term_id = $3`
	result, err := r.db.ExecContext(ctx, query, classTermID, subjectID, termID)
	if err != nil {
		return 0, fmt.Errorf("publish assessments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check published assessments: %w", err)
	}
	return affected, nil
}
