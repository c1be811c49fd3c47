package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edusight/prism/internal/models"
)

// StudentRepository reads the student roster. Registration and profile
// management live in the upstream user system; the pipeline only iterates
// active students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListActive returns a page of active students ordered by id, starting
// strictly after the provided cursor. An empty cursor starts from the
// beginning.
func (r *StudentRepository) ListActive(ctx context.Context, afterID string, limit int) ([]models.Student, error) {
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	query := `SELECT id, full_name, age_group, active, created_at
        FROM students WHERE active = true AND id > $1 ORDER BY id ASC LIMIT $2`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, afterID, limit); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

// CountActive returns the number of active students.
func (r *StudentRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students WHERE active = true"); err != nil {
		return 0, fmt.Errorf("count active students: %w", err)
	}
	return total, nil
}
