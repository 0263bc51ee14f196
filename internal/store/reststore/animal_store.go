package reststore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

func (s *Store) getAnimals(ctx context.Context, f filters) ([]*model.Animal, error) {
	data, status, err := s.do(ctx, http.MethodGet, "animals", f, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: select animals status %d", store.ErrUnavailable, status)
	}
	var animals []*model.Animal
	if err := json.Unmarshal(data, &animals); err != nil {
		return nil, fmt.Errorf("%w: decode animals", store.ErrUnavailable)
	}
	return animals, nil
}

// countRows decodes a write-with-representation response into an
// affected-row count.
func countRows(data []byte) (int64, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("%w: decode write response", store.ErrUnavailable)
	}
	return int64(len(rows)), nil
}

// animalInsert is the POST body for creating an animal; like
// userInsert it leaves sequential_id to the upstream identity
// column.
type animalInsert struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	Name             *string `json:"name"`
	Species          string  `json:"species"`
	Breeder          *string `json:"breeder"`
	BirthDate        *string `json:"birth_date"`
	Gender           *string `json:"gender"`
	ColorVariety     *string `json:"color_variety"`
	CoatVariety      *string `json:"coat_variety"`
	RegistryCode     *string `json:"registry_code"`
	Owner            *string `json:"owner"`
	Remarks          *string `json:"remarks"`
	FatherID         *string `json:"father_id"`
	MotherID         *string `json:"mother_id"`
	ShowOnProfile    bool    `json:"show_on_profile"`
	ShowRegistryCode bool    `json:"show_registry_code"`
	ShowOwner        bool    `json:"show_owner"`
	ShowRemarks      bool    `json:"show_remarks"`
	ShowParents      bool    `json:"show_parents"`
	GeneticsCode     *string `json:"genetics_code"`
}

func (s *Store) CreateAnimal(ctx context.Context, a *model.Animal) error {
	data, status, err := s.do(ctx, http.MethodPost, "animals", nil, animalInsert{
		ID:               a.ID,
		UserID:           a.UserID,
		Name:             a.Name,
		Species:          a.Species,
		Breeder:          a.Breeder,
		BirthDate:        a.BirthDate,
		Gender:           a.Gender,
		ColorVariety:     a.ColorVariety,
		CoatVariety:      a.CoatVariety,
		RegistryCode:     a.RegistryCode,
		Owner:            a.Owner,
		Remarks:          a.Remarks,
		FatherID:         a.FatherID,
		MotherID:         a.MotherID,
		ShowOnProfile:    a.ShowOnProfile,
		ShowRegistryCode: a.ShowRegistryCode,
		ShowOwner:        a.ShowOwner,
		ShowRemarks:      a.ShowRemarks,
		ShowParents:      a.ShowParents,
		GeneticsCode:     a.GeneticsCode,
	})
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return fmt.Errorf("%w: create animal status %d", store.ErrUnavailable, status)
	}
	var created []model.Animal
	if err := json.Unmarshal(data, &created); err != nil || len(created) == 0 {
		return fmt.Errorf("%w: create animal response", store.ErrUnavailable)
	}
	a.SequentialID = created[0].SequentialID
	return nil
}

func (s *Store) ListAnimals(ctx context.Context, ownerID, species string) ([]*model.Animal, error) {
	f := filters{{"user_id", eq(ownerID)}}
	if species != "" {
		f = append(f, [2]string{"species", ilikeContains(species)})
	}
	f = append(f, [2]string{"order", "sequential_id"})
	return s.getAnimals(ctx, f)
}

func (s *Store) GetAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error) {
	animals, err := s.getAnimals(ctx, filters{{"id", eq(id)}, {"user_id", eq(ownerID)}})
	if err != nil {
		return nil, err
	}
	if len(animals) == 0 {
		return nil, store.ErrNotFound
	}
	return animals[0], nil
}

func (s *Store) UpdateAnimal(ctx context.Context, ownerID, id string, upd model.AnimalUpdate) (int64, error) {
	if upd.IsZero() {
		if _, err := s.GetAnimal(ctx, ownerID, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, nil
			}
			return 0, err
		}
		return 1, nil
	}
	data, status, err := s.do(ctx, http.MethodPatch, "animals",
		filters{{"id", eq(id)}, {"user_id", eq(ownerID)}}, upd)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: update animal status %d", store.ErrUnavailable, status)
	}
	return countRows(data)
}

func (s *Store) DeleteAnimal(ctx context.Context, ownerID, id string) (int64, error) {
	data, status, err := s.do(ctx, http.MethodDelete, "animals",
		filters{{"id", eq(id)}, {"user_id", eq(ownerID)}}, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: delete animal status %d", store.ErrUnavailable, status)
	}
	return countRows(data)
}

func (s *Store) ListPublicAnimals(ctx context.Context, ownerID string) ([]*model.Animal, error) {
	return s.getAnimals(ctx, filters{
		{"user_id", eq(ownerID)},
		{"show_on_profile", eq("true")},
		{"order", "sequential_id"},
	})
}

func (s *Store) GetPublicAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error) {
	animals, err := s.getAnimals(ctx, filters{
		{"id", eq(id)},
		{"user_id", eq(ownerID)},
		{"show_on_profile", eq("true")},
	})
	if err != nil {
		return nil, err
	}
	if len(animals) == 0 {
		return nil, store.ErrNotFound
	}
	return animals[0], nil
}
