package pets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fureverhealth/fureverhealth/testing"
)

type stubRepo struct {
	created []Pet
}

func (s *stubRepo) ListPets(ctx context.Context) ([]Pet, error) { return s.created, nil }

func (s *stubRepo) GetPet(ctx context.Context, id int64) (Pet, error) { return Pet{ID: id}, nil }

func (s *stubRepo) CreatePet(ctx context.Context, pet Pet) (Pet, error) {
	pet.ID = int64(len(s.created) + 1)
	s.created = append(s.created, pet)
	return pet, nil
}

func (s *stubRepo) UpdatePet(ctx context.Context, id int64, pet Pet) error { return nil }

func (s *stubRepo) DeletePet(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) CountPets(ctx context.Context) (int64, error) {
	return int64(len(s.created)), nil
}

func TestCreatePetValidation(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreatePet(ctx, Pet{OwnerID: 1})
	require.Error(t, err, "a pet needs a name")

	_, err = svc.CreatePet(ctx, Pet{Name: "Biscuit"})
	require.Error(t, err, "a pet needs an owner")

	created, err := svc.CreatePet(ctx, Pet{Name: "Biscuit", OwnerID: 1, Species: "dog"})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
}

func TestPetIDGuards(t *testing.T) {
	svc := NewService(&stubRepo{})
	ctx := context.Background()

	_, err := svc.GetPet(ctx, 0)
	require.Error(t, err)
	require.Error(t, svc.DeletePet(ctx, -1))
	require.Error(t, svc.UpdatePet(ctx, 0, Pet{Name: "Biscuit", OwnerID: 1}))
}
