package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

// ClassTermRepository reads class terms with their class and term names.
type ClassTermRepository struct {
	db *sqlx.DB
}

// NewClassTermRepository constructs the repository.
func NewClassTermRepository(db *sqlx.DB) *ClassTermRepository {
	return &ClassTermRepository{db: db}
}

// FindByID returns a class term detail by id.
func (r *ClassTermRepository) FindByID(ctx context.Context, id string) (*models.ClassTermDetail, error) {
	const query = `
SELECT ct.id, ct.class_id, ct.term_id, ct.created_at, c.school_id, c.name AS class_name, t.name AS term_name
FROM class_terms ct
JOIN classes c ON c.id = ct.class_id
JOIN terms t ON t.id = ct.term_id
WHERE ct.id = $1`
	var detail models.ClassTermDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, fmt.Errorf("find class term: %w", err)
	}
	return &detail, nil
}
