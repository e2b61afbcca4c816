package staff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/fureverhealth/fureverhealth/testing"
)

type stubRepo struct {
	created []Member
	dup     bool
}

func (s *stubRepo) ListMembers(ctx context.Context) ([]Member, error) { return s.created, nil }

func (s *stubRepo) GetMember(ctx context.Context, id int64) (Member, error) { return Member{}, nil }

func (s *stubRepo) CreateMember(ctx context.Context, member Member) (int64, error) {
	if s.dup {
		return 0, ErrDuplicateEmail
	}
	s.created = append(s.created, member)
	return int64(len(s.created)), nil
}

func (s *stubRepo) UpdateMember(ctx context.Context, id int64, member Member) error { return nil }

func (s *stubRepo) DeleteMember(ctx context.Context, id int64) error { return nil }

func (s *stubRepo) CountMembers(ctx context.Context) (int64, error) {
	return int64(len(s.created)), nil
}

func TestCreateMemberRequiresIdentityFields(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	tests := []struct {
		name   string
		member Member
	}{
		{"empty", Member{}},
		{"missing email", Member{FirstName: "Dana", LastName: "Reyes"}},
		{"blank first name", Member{FirstName: "  ", LastName: "Reyes", Email: "d@furever.local"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateMember(context.Background(), tc.member)
			require.ErrorIs(t, err, ErrInvalidMember)
		})
	}
	require.Empty(t, repo.created)
}

func TestCreateMemberHappyPath(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	id, err := svc.CreateMember(context.Background(), Member{
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     "dana@furever.local",
		Position:  "Veterinarian",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
}

func TestCreateMemberPropagatesDuplicateEmail(t *testing.T) {
	svc := NewService(&stubRepo{dup: true})

	_, err := svc.CreateMember(context.Background(), Member{
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     "dana@furever.local",
	})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemberFullName(t *testing.T) {
	m := Member{FirstName: "Dana", LastName: "Reyes"}
	require.Equal(t, "Dana Reyes", m.FullName())
}
