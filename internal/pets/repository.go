package pets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fureverhealth/fureverhealth/internal/shared"
)

// RepositoryPort defines data access methods for pets.
type RepositoryPort interface {
	ListPets(ctx context.Context) ([]Pet, error)
	GetPet(ctx context.Context, id int64) (Pet, error)
	CreatePet(ctx context.Context, pet Pet) (Pet, error)
	UpdatePet(ctx context.Context, id int64, pet Pet) error
	DeletePet(ctx context.Context, id int64) error
	CountPets(ctx context.Context) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const petColumns = `p.id, p.owner_id, u.first_name || ' ' || u.last_name, p.name, p.species, p.breed,
	p.gender, p.age, p.weight_kg, p.color, p.medical_history, p.created_at, p.updated_at`

// ListPets returns all pets with owner names.
func (r *Repository) ListPets(ctx context.Context) ([]Pet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+petColumns+` FROM pets p JOIN users u ON u.id = p.owner_id ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pets []Pet
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

// GetPet fetches a pet by ID.
func (r *Repository) GetPet(ctx context.Context, id int64) (Pet, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+petColumns+` FROM pets p JOIN users u ON u.id = p.owner_id WHERE p.id = $1`, id)
	pet, err := scanPet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pet{}, shared.ErrNotFound
		}
		return Pet{}, err
	}
	return pet, nil
}

// CreatePet inserts a pet record.
func (r *Repository) CreatePet(ctx context.Context, pet Pet) (Pet, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO pets (owner_id, name, species, breed, gender, age, weight_kg, color, medical_history, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		 RETURNING id, created_at, updated_at`,
		pet.OwnerID, pet.Name, pet.Species, pet.Breed, pet.Gender, pet.Age, pet.WeightKg, pet.Color, pet.MedicalHistory,
	).Scan(&pet.ID, &pet.CreatedAt, &pet.UpdatedAt)
	if err != nil {
		return Pet{}, err
	}
	return pet, nil
}

// UpdatePet updates a pet record.
func (r *Repository) UpdatePet(ctx context.Context, id int64, pet Pet) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pets SET owner_id = $2, name = $3, species = $4, breed = $5, gender = $6, age = $7,
		 weight_kg = $8, color = $9, medical_history = $10, updated_at = now()
		 WHERE id = $1`,
		id, pet.OwnerID, pet.Name, pet.Species, pet.Breed, pet.Gender, pet.Age, pet.WeightKg, pet.Color, pet.MedicalHistory)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeletePet removes a pet record.
func (r *Repository) DeletePet(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountPets returns the total number of pets.
func (r *Repository) CountPets(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pets`).Scan(&count)
	return count, err
}

func scanPet(row pgx.Row) (Pet, error) {
	var p Pet
	err := row.Scan(&p.ID, &p.OwnerID, &p.OwnerName, &p.Name, &p.Species, &p.Breed,
		&p.Gender, &p.Age, &p.WeightKg, &p.Color, &p.MedicalHistory, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
