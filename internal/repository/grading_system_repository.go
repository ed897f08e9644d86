package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

const gradingSystemColumns = `id, school_id, name, is_default, created_at, updated_at`

// GradingSystemRepository persists grading systems and their grade levels.
type GradingSystemRepository struct {
	db *sqlx.DB
}

// NewGradingSystemRepository constructs the repository.
func NewGradingSystemRepository(db *sqlx.DB) *GradingSystemRepository {
	return &GradingSystemRepository{db: db}
}

// FindDefault returns the school's default system with its levels. It returns
// sql.ErrNoRows when the school has no default system.
func (r *GradingSystemRepository) FindDefault(ctx context.Context, schoolID string) (*models.GradingSystem, error) {
	query := `SELECT ` + gradingSystemColumns + ` FROM grading_systems
WHERE school_id = $1 AND is_default = TRUE
ORDER BY updated_at DESC LIMIT 1`
	var system models.GradingSystem
	if err := r.db.GetContext(ctx, &system, query, schoolID); err != nil {
		return nil, fmt.Errorf("find default grading system: %w", err)
	}
	if err := r.attachLevels(ctx, []*models.GradingSystem{&system}); err != nil {
		return nil, err
	}
	return &system, nil
}

// FindByID returns a grading system with its levels.
func (r *GradingSystemRepository) FindByID(ctx context.Context, id string) (*models.GradingSystem, error) {
	query := `SELECT ` + gradingSystemColumns + ` FROM grading_systems WHERE id = $1`
	var system models.GradingSystem
	if err := r.db.GetContext(ctx, &system, query, id); err != nil {
		return nil, fmt.Errorf("find grading system: %w", err)
	}
	if err := r.attachLevels(ctx, []*models.GradingSystem{&system}); err != nil {
		return nil, err
	}
	return &system, nil
}

// ListBySchool returns every grading system of a school, default first.
func (r *GradingSystemRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.GradingSystem, error) {
	query := `SELECT ` + gradingSystemColumns + ` FROM grading_systems
WHERE school_id = $1
ORDER BY is_default DESC, name ASC`
	var systems []models.GradingSystem
	if err := r.db.SelectContext(ctx, &systems, query, schoolID); err != nil {
		return nil, fmt.Errorf("list grading systems: %w", err)
	}
	refs := make([]*models.GradingSystem, len(systems))
	for i := range systems {
		refs[i] = &systems[i]
	}
	if err := r.attachLevels(ctx, refs); err != nil {
		return nil, err
	}
	return systems, nil
}

func (r *GradingSystemRepository) attachLevels(ctx context.Context, systems []*models.GradingSystem) error {
	if len(systems) == 0 {
		return nil
	}
	ids := make([]string, len(systems))
	byID := make(map[string]*models.GradingSystem, len(systems))
	for i, system := range systems {
		ids[i] = system.ID
		system.Levels = []models.GradeLevel{}
		byID[system.ID] = system
	}
	const query = `SELECT id, grading_system_id, min_score, max_score, grade, remark
FROM grade_levels WHERE grading_system_id = ANY($1)
ORDER BY max_score DESC`
	var levels []models.GradeLevel
	if err := r.db.SelectContext(ctx, &levels, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list grade levels: %w", err)
	}
	for _, level := range levels {
		if system, ok := byID[level.GradingSystemID]; ok {
			system.Levels = append(system.Levels, level)
		}
	}
	return nil
}

// Create inserts a system with its levels. A default system clears the school's
// previous default in the same transaction.
func (r *GradingSystemRepository) Create(ctx context.Context, system *models.GradingSystem) error {
	if system.ID == "" {
		system.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	system.CreatedAt = now
	system.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if system.IsDefault {
		if err := r.clearDefaultTx(ctx, tx, system.SchoolID); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	const insertSystem = `INSERT INTO grading_systems (id, school_id, name, is_default, created_at, updated_at)
        VALUES (:id, :school_id, :name, :is_default, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertSystem, system); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert grading system: %w", err)
	}
	if err := r.replaceLevelsTx(ctx, tx, system.ID, system.Levels); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading system: %w", err)
	}
	return nil
}

// ReplaceLevels rewrites the levels of a system.
func (r *GradingSystemRepository) ReplaceLevels(ctx context.Context, systemID string, levels []models.GradeLevel) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.replaceLevelsTx(ctx, tx, systemID, levels); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE grading_systems SET updated_at = $2 WHERE id = $1`, systemID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("touch grading system: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade levels: %w", err)
	}
	return nil
}

func (r *GradingSystemRepository) replaceLevelsTx(ctx context.Context, tx *sqlx.Tx, systemID string, levels []models.GradeLevel) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM grade_levels WHERE grading_system_id = $1", systemID); err != nil {
		return fmt.Errorf("clear grade levels: %w", err)
	}
	const insertLevel = `INSERT INTO grade_levels (id, grading_system_id, min_score, max_score, grade, remark)
        VALUES (:id, :grading_system_id, :min_score, :max_score, :grade, :remark)`
	for i := range levels {
		if levels[i].ID == "" {
			levels[i].ID = uuid.NewString()
		}
		levels[i].GradingSystemID = systemID
		if _, err := tx.NamedExecContext(ctx, insertLevel, levels[i]); err != nil {
			return fmt.Errorf("insert grade level: %w", err)
		}
	}
	return nil
}

// SetDefault makes systemID the only default system of the school.
func (r *GradingSystemRepository) SetDefault(ctx context.Context, schoolID, systemID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.clearDefaultTx(ctx, tx, schoolID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	const query = `UPDATE grading_systems SET is_default = TRUE, updated_at = $3 WHERE id = $1 AND school_id = $2`
	result, err := tx.ExecContext(ctx, query, systemID, schoolID, time.Now().UTC())
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("set default grading system: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil || affected == 0 {
		tx.Rollback() //nolint:errcheck
		if err != nil {
			return fmt.Errorf("check default grading system rows: %w", err)
		}
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit default grading system: %w", err)
	}
	return nil
}

func (r *GradingSystemRepository) clearDefaultTx(ctx context.Context, tx *sqlx.Tx, schoolID string) error {
	const query = `UPDATE grading_systems SET is_default = FALSE WHERE school_id = $1 AND is_default = TRUE`
	if _, err := tx.ExecContext(ctx, query, schoolID); err != nil {
		return fmt.Errorf("clear default grading system: %w", err)
	}
	return nil
}

// Delete removes a system and its levels.
func (r *GradingSystemRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM grade_levels WHERE grading_system_id = $1", id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete grade levels: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM grading_systems WHERE id = $1", id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete grading system: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading system delete: %w", err)
	}
	return nil
}
