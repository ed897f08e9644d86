package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

const subjectColumns = `s.id, s.school_id, s.code, s.name, s.created_at, s.updated_at`

// SubjectRepository reads subjects and the subjects offered to a class term.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository instantiates a subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects s WHERE s.id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// ListByIDs returns the subjects matching ids ordered by name.
func (r *SubjectRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}
	query := `SELECT ` + subjectColumns + ` FROM subjects s WHERE s.id = ANY($1) ORDER BY s.name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListByClassTerm returns the subjects offered to a class term ordered by name.
func (r *SubjectRepository) ListByClassTerm(ctx context.Context, classTermID string) ([]models.Subject, error) {
	query := `SELECT ` + subjectColumns + `
FROM class_term_subjects cts
JOIN subjects s ON s.id = cts.subject_id
WHERE cts.class_term_id = $1
ORDER BY s.name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, classTermID); err != nil {
		return nil, fmt.Errorf("list class term subjects: %w", err)
	}
	return subjects, nil
}
