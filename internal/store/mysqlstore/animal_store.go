package mysqlstore

import (
	"context"
	"errors"
	"strings"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

const animalCols = `id, user_id, sequential_id, name, species, breeder, birth_date, gender,
	color_variety, coat_variety, registry_code, owner, remarks, father_id, mother_id,
	show_on_profile, show_registry_code, show_owner, show_remarks, show_parents, genetics_code`

func scanAnimal(row interface{ Scan(...any) error }) (*model.Animal, error) {
	var a model.Animal
	err := row.Scan(&a.ID, &a.UserID, &a.SequentialID, &a.Name, &a.Species, &a.Breeder,
		&a.BirthDate, &a.Gender, &a.ColorVariety, &a.CoatVariety, &a.RegistryCode,
		&a.Owner, &a.Remarks, &a.FatherID, &a.MotherID, &a.ShowOnProfile,
		&a.ShowRegistryCode, &a.ShowOwner, &a.ShowRemarks, &a.ShowParents, &a.GeneticsCode)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) collectAnimals(ctx context.Context, query string, args ...any) ([]*model.Animal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []*model.Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, wrap(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

// CreateAnimal inserts the animal for its owner and reads back the
// assigned sequential id.
func (s *Store) CreateAnimal(ctx context.Context, a *model.Animal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO animals (id, user_id, name, species, breeder, birth_date, gender,
			color_variety, coat_variety, registry_code, owner, remarks, father_id, mother_id,
			show_on_profile, show_registry_code, show_owner, show_remarks, show_parents, genetics_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Species, a.Breeder, a.BirthDate, a.Gender,
		a.ColorVariety, a.CoatVariety, a.RegistryCode, a.Owner, a.Remarks,
		a.FatherID, a.MotherID, a.ShowOnProfile, a.ShowRegistryCode,
		a.ShowOwner, a.ShowRemarks, a.ShowParents, a.GeneticsCode)
	if err != nil {
		return wrap(err)
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT sequential_id FROM animals WHERE id = ?", a.ID).Scan(&a.SequentialID)
	return wrap(err)
}

// ListAnimals returns the owner's animals, optionally filtered by a
// case-insensitive species substring.
func (s *Store) ListAnimals(ctx context.Context, ownerID, species string) ([]*model.Animal, error) {
	q := "SELECT " + animalCols + " FROM animals WHERE user_id = ?"
	args := []any{ownerID}
	if species != "" {
		q += " AND LOWER(species) LIKE ?"
		args = append(args, "%"+strings.ToLower(species)+"%")
	}
	q += " ORDER BY sequential_id"
	return s.collectAnimals(ctx, q, args...)
}

// GetAnimal fetches one animal scoped to its owner. A record owned
// by a different user yields ErrNotFound, same as a missing one.
func (s *Store) GetAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error) {
	a, err := scanAnimal(s.db.QueryRowContext(ctx,
		"SELECT "+animalCols+" FROM animals WHERE id = ? AND user_id = ?", id, ownerID))
	if err != nil {
		return nil, wrap(err)
	}
	return a, nil
}

// UpdateAnimal applies the non-nil fields of upd, scoped to the
// owner, and returns the affected row count.
func (s *Store) UpdateAnimal(ctx context.Context, ownerID, id string, upd model.AnimalUpdate) (int64, error) {
	set := make([]string, 0, 18)
	args := make([]any, 0, 20)
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Species != nil {
		add("species", *upd.Species)
	}
	if upd.Breeder != nil {
		add("breeder", *upd.Breeder)
	}
	if upd.BirthDate != nil {
		add("birth_date", *upd.BirthDate)
	}
	if upd.Gender != nil {
		add("gender", *upd.Gender)
	}
	if upd.ColorVariety != nil {
		add("color_variety", *upd.ColorVariety)
	}
	if upd.CoatVariety != nil {
		add("coat_variety", *upd.CoatVariety)
	}
	if upd.RegistryCode != nil {
		add("registry_code", *upd.RegistryCode)
	}
	if upd.Owner != nil {
		add("owner", *upd.Owner)
	}
	if upd.Remarks != nil {
		add("remarks", *upd.Remarks)
	}
	if upd.FatherID != nil {
		add("father_id", *upd.FatherID)
	}
	if upd.MotherID != nil {
		add("mother_id", *upd.MotherID)
	}
	if upd.ShowOnProfile != nil {
		add("show_on_profile", *upd.ShowOnProfile)
	}
	if upd.ShowRegistryCode != nil {
		add("show_registry_code", *upd.ShowRegistryCode)
	}
	if upd.ShowOwner != nil {
		add("show_owner", *upd.ShowOwner)
	}
	if upd.ShowRemarks != nil {
		add("show_remarks", *upd.ShowRemarks)
	}
	if upd.ShowParents != nil {
		add("show_parents", *upd.ShowParents)
	}
	if upd.GeneticsCode != nil {
		add("genetics_code", *upd.GeneticsCode)
	}
	if len(set) == 0 {
		return s.animalExists(ctx, ownerID, id)
	}
	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx,
		"UPDATE animals SET "+strings.Join(set, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return 0, wrap(err)
	}
	n, err := res.RowsAffected()
	return n, wrap(err)
}

func (s *Store) animalExists(ctx context.Context, ownerID, id string) (int64, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM animals WHERE id = ? AND user_id = ?", id, ownerID).Scan(&one)
	if err == nil {
		return 1, nil
	}
	if wrapped := wrap(err); !errors.Is(wrapped, store.ErrNotFound) {
		return 0, wrapped
	}
	return 0, nil
}

// DeleteAnimal removes the owner's animal and returns the affected
// row count. Deleting an already-deleted animal reports 0.
func (s *Store) DeleteAnimal(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM animals WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return 0, wrap(err)
	}
	n, err := res.RowsAffected()
	return n, wrap(err)
}

// ListPublicAnimals returns the owner's animals opted into the
// public profile. No authentication is involved.
func (s *Store) ListPublicAnimals(ctx context.Context, ownerID string) ([]*model.Animal, error) {
	return s.collectAnimals(ctx,
		"SELECT "+animalCols+" FROM animals WHERE user_id = ? AND show_on_profile = 1 ORDER BY sequential_id",
		ownerID)
}

// GetPublicAnimal fetches one publicly visible animal.
func (s *Store) GetPublicAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error) {
	a, err := scanAnimal(s.db.QueryRowContext(ctx,
		"SELECT "+animalCols+" FROM animals WHERE id = ? AND user_id = ? AND show_on_profile = 1",
		id, ownerID))
	if err != nil {
		return nil, wrap(err)
	}
	return a, nil
}
