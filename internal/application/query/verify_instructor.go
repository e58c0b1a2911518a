package query

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/instructor"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VERIFY INSTRUCTOR QUERY
// Name + PIN check for the kiosk's instructor view. PINs are stored as
// bcrypt hashes; a failed verification never reveals whether the name or
// the PIN was wrong.
// ══════════════════════════════════════════════════════════════════════════════

// VerifyInstructorQuery contains the verification parameters.
type VerifyInstructorQuery struct {
	Name string
	PIN  string
}

// Validate checks the query parameters.
func (q *VerifyInstructorQuery) Validate() error {
	q.Name = strings.TrimSpace(q.Name)
	if q.Name == "" {
		return instructor.ErrInvalidName
	}
	if len(q.PIN) < 4 {
		return instructor.ErrInvalidPIN
	}
	return nil
}

// VerifyInstructorResult contains the verification outcome.
type VerifyInstructorResult struct {
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// VerifyInstructorHandler handles instructor PIN verification.
type VerifyInstructorHandler struct {
	instructorRepo instructor.Repository
}

// NewVerifyInstructorHandler creates a new verification handler.
func NewVerifyInstructorHandler(instructorRepo instructor.Repository) *VerifyInstructorHandler {
	return &VerifyInstructorHandler{instructorRepo: instructorRepo}
}

// Handle executes the verification. Unknown names and wrong PINs both come
// back as ErrUnauthorized so the kiosk cannot enumerate instructors.
func (h *VerifyInstructorHandler) Handle(ctx context.Context, q VerifyInstructorQuery) (*VerifyInstructorResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	inst, err := h.instructorRepo.GetByName(ctx, q.Name)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("instructor", "Verify", shared.ErrUnauthorized, "verification failed")
		}
		return nil, shared.WrapError("instructor", "Verify", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(inst.PINHash), []byte(q.PIN)); err != nil {
		return nil, shared.NewDomainError("instructor", "Verify", shared.ErrUnauthorized, "verification failed")
	}

	return &VerifyInstructorResult{Name: inst.Name, Verified: true}, nil
}
