package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

// TeacherAssignmentRepository persists TeacherSubject and TeacherClassTerm grants.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// FindSubjectTeacher returns the teacher granted the subject for the class term's
// term who is also granted the class term. It returns sql.ErrNoRows when none exists.
func (r *TeacherAssignmentRepository) FindSubjectTeacher(ctx context.Context, subjectID, classTermID string) (*models.AssignedTeacher, error) {
	const query = `
SELECT tr.id AS teacher_id, tr.full_name
FROM teacher_subjects ts
JOIN class_terms ct ON ct.term_id = ts.term_id
JOIN teacher_class_terms tct ON tct.teacher_id = ts.teacher_id AND tct.class_term_id = ct.id
JOIN teachers tr ON tr.id = ts.teacher_id
WHERE ts.subject_id = $1 AND ct.id = $2
ORDER BY ts.created_at ASC
LIMIT 1`
	var teacher models.AssignedTeacher
	if err := r.db.GetContext(ctx, &teacher, query, subjectID, classTermID); err != nil {
		return nil, fmt.Errorf("find subject teacher: %w", err)
	}
	return &teacher, nil
}

// FindClassTeacher returns the earliest teacher granted the class term. It returns
// sql.ErrNoRows when none exists.
func (r *TeacherAssignmentRepository) FindClassTeacher(ctx context.Context, classTermID string) (*models.AssignedTeacher, error) {
	const query = `
SELECT tr.id AS teacher_id, tr.full_name
FROM teacher_class_terms tct
JOIN teachers tr ON tr.id = tct.teacher_id
WHERE tct.class_term_id = $1
ORDER BY tct.created_at ASC
LIMIT 1`
	var teacher models.AssignedTeacher
	if err := r.db.GetContext(ctx, &teacher, query, classTermID); err != nil {
		return nil, fmt.Errorf("find class teacher: %w", err)
	}
	return &teacher, nil
}

// HasSubjectGrant checks whether the teacher holds the subject for the term.
func (r *TeacherAssignmentRepository) HasSubjectGrant(ctx context.Context, teacherID, subjectID, termID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2 AND term_id = $3 LIMIT 1`
	return r.exists(ctx, "check teacher subject", query, teacherID, subjectID, termID)
}

// HasClassTermGrant checks whether the teacher holds the class term.
func (r *TeacherAssignmentRepository) HasClassTermGrant(ctx context.Context, teacherID, classTermID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_class_terms WHERE teacher_id = $1 AND class_term_id = $2 LIMIT 1`
	return r.exists(ctx, "check teacher class term", query, teacherID, classTermID)
}

func (r *TeacherAssignmentRepository) exists(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	var found int
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// ListSubjects returns the subject grants of a teacher, newest term first.
func (r *TeacherAssignmentRepository) ListSubjects(ctx context.Context, teacherID string) ([]models.TeacherSubjectDetail, error) {
	const query = `
SELECT ts.id, ts.teacher_id, ts.subject_id, ts.term_id, ts.created_at, s.name AS subject_name, t.name AS term_name
FROM teacher_subjects ts
JOIN subjects s ON s.id = ts.subject_id
JOIN terms t ON t.id = ts.term_id
WHERE ts.teacher_id = $1
ORDER BY t.start_date DESC, s.name ASC`
	var grants []models.TeacherSubjectDetail
	if err := r.db.SelectContext(ctx, &grants, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return grants, nil
}

// ListClassTerms returns the class term grants of a teacher, newest term first.
func (r *TeacherAssignmentRepository) ListClassTerms(ctx context.Context, teacherID string) ([]models.TeacherClassTermDetail, error) {
	const query = `
SELECT tct.id, tct.teacher_id, tct.class_term_id, tct.created_at, c.name AS class_name, t.name AS term_name
FROM teacher_class_terms tct
JOIN class_terms ct ON ct.id = tct.class_term_id
JOIN classes c ON c.id = ct.class_id
JOIN terms t ON t.id = ct.term_id
WHERE tct.teacher_id = $1
ORDER BY t.start_date DESC, c.name ASC`
	var grants []models.TeacherClassTermDetail
	if err := r.db.SelectContext(ctx, &grants, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher class terms: %w", err)
	}
	return grants, nil
}

// CreateSubject inserts a subject grant.
func (r *TeacherAssignmentRepository) CreateSubject(ctx context.Context, grant *models.TeacherSubject) error {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_subjects (id, teacher_id, subject_id, term_id, created_at)
		VALUES (:id, :teacher_id, :subject_id, :term_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("create teacher subject: %w", err)
	}
	return nil
}

// CreateClassTerm inserts a class term grant.
func (r *TeacherAssignmentRepository) CreateClassTerm(ctx context.Context, grant *models.TeacherClassTerm) error {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_class_terms (id, teacher_id, class_term_id, created_at)
		VALUES (:id, :teacher_id, :class_term_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("create teacher class term: %w", err)
	}
	return nil
}

// DeleteSubject removes a subject grant owned by the teacher.
func (r *TeacherAssignmentRepository) DeleteSubject(ctx context.Context, teacherID, grantID string) error {
	return r.delete(ctx, "teacher_subjects", teacherID, grantID)
}

// DeleteClassTerm removes a class term grant owned by the teacher.
func (r *TeacherAssignmentRepository) DeleteClassTerm(ctx context.Context, teacherID, grantID string) error {
	return r.delete(ctx, "teacher_class_terms", teacherID, grantID)
}

func (r *TeacherAssignmentRepository) delete(ctx context.Context, table, teacherID, grantID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND teacher_id = $2`, table)
	result, err := r.db.ExecContext(ctx, query, grantID, teacherID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted %s rows: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
