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

func (s *Store) getLitters(ctx context.Context, f filters) ([]*model.Litter, error) {
	data, status, err := s.do(ctx, http.MethodGet, "litters", f, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: select litters status %d", store.ErrUnavailable, status)
	}
	var litters []*model.Litter
	if err := json.Unmarshal(data, &litters); err != nil {
		return nil, fmt.Errorf("%w: decode litters", store.ErrUnavailable)
	}
	return litters, nil
}

// litterInsert is the POST body for creating a litter; it leaves
// sequential_id to the upstream identity column.
type litterInsert struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Date      string   `json:"date"`
	Count     int      `json:"count"`
	ParentIDs []string `json:"parent_ids"`
}

func (s *Store) CreateLitter(ctx context.Context, l *model.Litter) error {
	data, status, err := s.do(ctx, http.MethodPost, "litters", nil, litterInsert{
		ID:        l.ID,
		UserID:    l.UserID,
		Name:      l.Name,
		Date:      l.Date,
		Count:     l.Count,
		ParentIDs: l.ParentIDs,
	})
	if err != nil {
		return err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return fmt.Errorf("%w: create litter status %d", store.ErrUnavailable, status)
	}
	var created []model.Litter
	if err := json.Unmarshal(data, &created); err != nil || len(created) == 0 {
		return fmt.Errorf("%w: create litter response", store.ErrUnavailable)
	}
	l.SequentialID = created[0].SequentialID
	return nil
}

func (s *Store) ListLitters(ctx context.Context, ownerID string) ([]*model.Litter, error) {
	return s.getLitters(ctx, filters{{"user_id", eq(ownerID)}, {"order", "sequential_id"}})
}

func (s *Store) GetLitter(ctx context.Context, ownerID, id string) (*model.Litter, error) {
	litters, err := s.getLitters(ctx, filters{{"id", eq(id)}, {"user_id", eq(ownerID)}})
	if err != nil {
		return nil, err
	}
	if len(litters) == 0 {
		return nil, store.ErrNotFound
	}
	return litters[0], nil
}

func (s *Store) UpdateLitter(ctx context.Context, ownerID, id string, upd model.LitterUpdate) (int64, error) {
	if upd.IsZero() {
		if _, err := s.GetLitter(ctx, ownerID, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, nil
			}
			return 0, err
		}
		return 1, nil
	}
	data, status, err := s.do(ctx, http.MethodPatch, "litters",
		filters{{"id", eq(id)}, {"user_id", eq(ownerID)}}, upd)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: update litter status %d", store.ErrUnavailable, status)
	}
	return countRows(data)
}

func (s *Store) DeleteLitter(ctx context.Context, ownerID, id string) (int64, error) {
	data, status, err := s.do(ctx, http.MethodDelete, "litters",
		filters{{"id", eq(id)}, {"user_id", eq(ownerID)}}, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: delete litter status %d", store.ErrUnavailable, status)
	}
	return countRows(data)
}
