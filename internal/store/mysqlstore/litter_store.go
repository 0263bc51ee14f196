package mysqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// parent_ids is stored as a JSON array in a TEXT column. The ids are
// advisory only, so there is nothing relational to gain from a join
// table and the whole list is always read and written together.

const litterCols = "id, user_id, sequential_id, name, date, count, parent_ids"

func encodeParentIDs(ids []string) (*string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func scanLitter(row interface{ Scan(...any) error }) (*model.Litter, error) {
	var l model.Litter
	var raw *string
	err := row.Scan(&l.ID, &l.UserID, &l.SequentialID, &l.Name, &l.Date, &l.Count, &raw)
	if err != nil {
		return nil, err
	}
	if raw != nil && *raw != "" {
		if err := json.Unmarshal([]byte(*raw), &l.ParentIDs); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// CreateLitter inserts the litter for its owner and reads back the
// assigned sequential id.
func (s *Store) CreateLitter(ctx context.Context, l *model.Litter) error {
	parents, err := encodeParentIDs(l.ParentIDs)
	if err != nil {
		return wrap(err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO litters (id, user_id, name, date, count, parent_ids) VALUES (?, ?, ?, ?, ?, ?)",
		l.ID, l.UserID, l.Name, l.Date, l.Count, parents)
	if err != nil {
		return wrap(err)
	}
	err = s.db.QueryRowContext(ctx,
		"SELECT sequential_id FROM litters WHERE id = ?", l.ID).Scan(&l.SequentialID)
	return wrap(err)
}

// ListLitters returns all litters belonging to the owner.
func (s *Store) ListLitters(ctx context.Context, ownerID string) ([]*model.Litter, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+litterCols+" FROM litters WHERE user_id = ? ORDER BY sequential_id", ownerID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []*model.Litter
	for rows.Next() {
		l, err := scanLitter(rows)
		if err != nil {
			return nil, wrap(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

// GetLitter fetches one litter scoped to its owner.
func (s *Store) GetLitter(ctx context.Context, ownerID, id string) (*model.Litter, error) {
	l, err := scanLitter(s.db.QueryRowContext(ctx,
		"SELECT "+litterCols+" FROM litters WHERE id = ? AND user_id = ?", id, ownerID))
	if err != nil {
		return nil, wrap(err)
	}
	return l, nil
}

// UpdateLitter applies the non-nil fields of upd, scoped to the
// owner, and returns the affected row count.
func (s *Store) UpdateLitter(ctx context.Context, ownerID, id string, upd model.LitterUpdate) (int64, error) {
	set := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if upd.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Date != nil {
		set = append(set, "date = ?")
		args = append(args, *upd.Date)
	}
	if upd.Count != nil {
		set = append(set, "count = ?")
		args = append(args, *upd.Count)
	}
	if upd.ParentIDs != nil {
		parents, err := encodeParentIDs(*upd.ParentIDs)
		if err != nil {
			return 0, wrap(err)
		}
		set = append(set, "parent_ids = ?")
		args = append(args, parents)
	}
	if len(set) == 0 {
		return s.litterExists(ctx, ownerID, id)
	}
	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx,
		"UPDATE litters SET "+strings.Join(set, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return 0, wrap(err)
	}
	n, err := res.RowsAffected()
	return n, wrap(err)
}

func (s *Store) litterExists(ctx context.Context, ownerID, id string) (int64, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM litters WHERE id = ? AND user_id = ?", id, ownerID).Scan(&one)
	if err == nil {
		return 1, nil
	}
	if wrapped := wrap(err); !errors.Is(wrapped, store.ErrNotFound) {
		return 0, wrapped
	}
	return 0, nil
}

// DeleteLitter removes the owner's litter and returns the affected
// row count.
func (s *Store) DeleteLitter(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM litters WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return 0, wrap(err)
	}
	n, err := res.RowsAffected()
	return n, wrap(err)
}
