package pets

import (
	"context"
	"errors"
	"strings"
)

// Service handles pet business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListPets returns all pets.
func (s *Service) ListPets(ctx context.Context) ([]Pet, error) {
	return s.repo.ListPets(ctx)
}

// GetPet fetches a pet by ID.
func (s *Service) GetPet(ctx context.Context, id int64) (Pet, error) {
	if id <= 0 {
		return Pet{}, errors.New("pets: invalid id")
	}
	return s.repo.GetPet(ctx, id)
}

// CreatePet registers a new pet.
func (s *Service) CreatePet(ctx context.Context, pet Pet) (Pet, error) {
	if err := validatePet(pet); err != nil {
		return Pet{}, err
	}
	return s.repo.CreatePet(ctx, pet)
}

// UpdatePet updates an existing pet.
func (s *Service) UpdatePet(ctx context.Context, id int64, pet Pet) error {
	if id <= 0 {
		return errors.New("pets: invalid id")
	}
	if err := validatePet(pet); err != nil {
		return err
	}
	return s.repo.UpdatePet(ctx, id, pet)
}

// DeletePet removes a pet.
func (s *Service) DeletePet(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("pets: invalid id")
	}
	return s.repo.DeletePet(ctx, id)
}

func validatePet(pet Pet) error {
	if strings.TrimSpace(pet.Name) == "" {
		return errors.New("pets: name required")
	}
	if pet.OwnerID <= 0 {
		return errors.New("pets: owner required")
	}
	return nil
}
