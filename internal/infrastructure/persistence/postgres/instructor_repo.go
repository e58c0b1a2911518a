package postgres

import (
	"context"
	"fmt"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/instructor"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INSTRUCTOR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InstructorRepository implements instructor.Repository for PostgreSQL.
type InstructorRepository struct {
	q Querier
}

// NewInstructorRepository creates a new InstructorRepository.
func NewInstructorRepository(conn *Connection) *InstructorRepository {
	return &InstructorRepository{q: conn}
}

// Create stores an instructor with a bcrypt PIN hash.
func (r *InstructorRepository) Create(ctx context.Context, inst *instructor.Instructor) error {
	query := `INSERT INTO instructors (name, pin_hash, created_at) VALUES ($1, $2, $3)`

	_, err := r.q.Exec(ctx, query, inst.Name, inst.PINHash, inst.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create instructor: %w", err)
	}
	return nil
}

// GetByName returns an instructor by name.
func (r *InstructorRepository) GetByName(ctx context.Context, name string) (*instructor.Instructor, error) {
	query := `SELECT name, pin_hash, created_at FROM instructors WHERE name = $1`

	var inst instructor.Instructor
	err := r.q.QueryRow(ctx, query, name).Scan(&inst.Name, &inst.PINHash, &inst.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrInstructorNotFound
		}
		return nil, fmt.Errorf("failed to get instructor: %w", err)
	}
	return &inst, nil
}
