package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/fureverhealth/fureverhealth/internal/rbac"
)

// Service handles user management business logic. Role assignment delegates
// to the RBAC service so the replace semantics live in exactly one place.
type Service struct {
	repo RepositoryPort
	rbac *rbac.Service
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, rbacService *rbac.Service) *Service {
	return &Service{repo: repo, rbac: rbacService}
}

// ListUsers returns all users with role names.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser creates the account and assigns the initial role set. Role
// names are verified up front so a rejected submission leaves no orphan
// account behind.
func (s *Service) CreateUser(ctx context.Context, user User, password string, roleNames []string) (User, error) {
	if err := s.rbac.VerifyRoleNames(ctx, roleNames); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.CreateUser(ctx, user, string(hash))
	if err != nil {
		return User{}, err
	}
	if err := s.rbac.AssignRoles(ctx, created.ID, roleNames); err != nil {
		return User{}, err
	}
	created.Roles = roleNames
	return created, nil
}

// UpdateUser updates identity fields and fully replaces the role set.
// An empty password leaves the stored hash unchanged. As with create, the
// role names must all resolve before anything is written.
func (s *Service) UpdateUser(ctx context.Context, id int64, user User, password string, roleNames []string) error {
	if err := s.rbac.VerifyRoleNames(ctx, roleNames); err != nil {
		return err
	}
	hash := ""
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = string(hashed)
	}
	if err := s.repo.UpdateUser(ctx, id, user, hash); err != nil {
		return err
	}
	return s.rbac.AssignRoles(ctx, id, roleNames)
}

// DeleteUser removes the account. Role links cascade at the storage layer.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
