package staff

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidMember indicates the submitted staff data is incomplete.
var ErrInvalidMember = errors.New("staff: first name, last name and email are required")

// Service exposes staff operations to handlers.
type Service struct {
	repo RepositoryPort
}

// NewService builds a staff Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListMembers(ctx context.Context) ([]Member, error) {
	return s.repo.ListMembers(ctx)
}

func (s *Service) GetMember(ctx context.Context, id int64) (Member, error) {
	return s.repo.GetMember(ctx, id)
}

func (s *Service) CreateMember(ctx context.Context, member Member) (int64, error) {
	if err := validateMember(member); err != nil {
		return 0, err
	}
	return s.repo.CreateMember(ctx, member)
}

func (s *Service) UpdateMember(ctx context.Context, id int64, member Member) error {
	if err := validateMember(member); err != nil {
		return err
	}
	return s.repo.UpdateMember(ctx, id, member)
}

func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	return s.repo.DeleteMember(ctx, id)
}

func (s *Service) CountMembers(ctx context.Context) (int64, error) {
	return s.repo.CountMembers(ctx)
}

func validateMember(member Member) error {
	if strings.TrimSpace(member.FirstName) == "" ||
		strings.TrimSpace(member.LastName) == "" ||
		strings.TrimSpace(member.Email) == "" {
		return ErrInvalidMember
	}
	return nil
}
