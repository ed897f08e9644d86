package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

// EnrollmentRepository reads student class enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByIDs returns enrollments matching ids.
func (r *EnrollmentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.StudentClassEnrollment, error) {
	if len(ids) == 0 {
		return []models.StudentClassEnrollment{}, nil
	}
	const query = `SELECT id, student_id, class_term_id, status, joined_at
FROM student_class_enrollments WHERE id = ANY($1)`
	var enrollments []models.StudentClassEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveByClassTerm returns active enrollments of a class term ordered by student name.
func (r *EnrollmentRepository) ListActiveByClassTerm(ctx context.Context, classTermID string) ([]models.EnrolledStudent, error) {
	const query = `
SELECT e.id, e.student_id, e.class_term_id, e.status, e.joined_at, s.full_name AS student_name, s.admission_no
FROM student_class_enrollments e
JOIN students s ON s.id = e.student_id
WHERE e.class_term_id = $1 AND e.status = $2
ORDER BY s.full_name ASC`
	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, classTermID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list class term enrollments: %w", err)
	}
	return students, nil
}
