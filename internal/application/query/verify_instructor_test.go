package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/instructor"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
)

type fakeInstructorRepo struct {
	instructors map[string]*instructor.Instructor
}

func (f *fakeInstructorRepo) Create(_ context.Context, inst *instructor.Instructor) error {
	f.instructors[inst.Name] = inst
	return nil
}

func (f *fakeInstructorRepo) GetByName(_ context.Context, name string) (*instructor.Instructor, error) {
	inst, ok := f.instructors[name]
	if !ok {
		return nil, shared.ErrInstructorNotFound
	}
	return inst, nil
}

func seedInstructor(t *testing.T, name, pin string) *fakeInstructorRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeInstructorRepo{instructors: map[string]*instructor.Instructor{
		name: {Name: name, PINHash: string(hash)},
	}}
}

func TestVerifyInstructorCorrectPIN(t *testing.T) {
	h := NewVerifyInstructorHandler(seedInstructor(t, "이선생", "4821"))

	res, err := h.Handle(context.Background(), VerifyInstructorQuery{Name: "이선생", PIN: "4821"})
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, "이선생", res.Name)
}

func TestVerifyInstructorWrongPIN(t *testing.T) {
	h := NewVerifyInstructorHandler(seedInstructor(t, "이선생", "4821"))

	_, err := h.Handle(context.Background(), VerifyInstructorQuery{Name: "이선생", PIN: "0000"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyInstructorUnknownName(t *testing.T) {
	h := NewVerifyInstructorHandler(seedInstructor(t, "이선생", "4821"))

	// Unknown names are indistinguishable from a wrong PIN.
	_, err := h.Handle(context.Background(), VerifyInstructorQuery{Name: "박선생", PIN: "4821"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyInstructorValidation(t *testing.T) {
	h := NewVerifyInstructorHandler(seedInstructor(t, "이선생", "4821"))

	_, err := h.Handle(context.Background(), VerifyInstructorQuery{Name: "", PIN: "4821"})
	assert.ErrorIs(t, err, instructor.ErrInvalidName)

	_, err = h.Handle(context.Background(), VerifyInstructorQuery{Name: "이선생", PIN: "12"})
	assert.ErrorIs(t, err, instructor.ErrInvalidPIN)
}
