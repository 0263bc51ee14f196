package mysqlstore

import (
	"context"
	"errors"
	"strings"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

const userCols = "id, email, password_hash, personal_name, breeder_name, profile_picture_url, is_breeder_profile, sequential_id"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.PersonalName,
		&u.BreederName, &u.ProfilePictureURL, &u.IsBreederProfile, &u.SequentialID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts the user and reads back the assigned
// sequential id. The unique index on email makes the
// check-and-insert atomic: of two concurrent registrations with
// the same address exactly one hits ER_DUP_ENTRY.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, personal_name, breeder_name, profile_picture_url, is_breeder_profile)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.PersonalName, u.BreederName,
		u.ProfilePictureURL, u.IsBreederProfile)
	if err != nil {
		if isDupEntry(err) {
			return store.ErrEmailExists
		}
		return wrap(err)
	}
	// Follow-up SELECT to populate the auto-assigned sequential id.
	err = s.db.QueryRowContext(ctx,
		"SELECT sequential_id FROM users WHERE id = ?", u.ID).Scan(&u.SequentialID)
	return wrap(err)
}

// GetUserByEmail fetches a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email = ? LIMIT 1", email))
	if err != nil {
		return nil, wrap(err)
	}
	return u, nil
}

// GetUserByID fetches a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id = ? LIMIT 1", id))
	if err != nil {
		return nil, wrap(err)
	}
	return u, nil
}

// UpdateUserProfile applies the non-nil fields of upd and returns
// the affected row count.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd model.UserUpdate) (int64, error) {
	set := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if upd.PersonalName != nil {
		set = append(set, "personal_name = ?")
		args = append(args, *upd.PersonalName)
	}
	if upd.BreederName != nil {
		set = append(set, "breeder_name = ?")
		args = append(args, *upd.BreederName)
	}
	if upd.ProfilePictureURL != nil {
		set = append(set, "profile_picture_url = ?")
		args = append(args, *upd.ProfilePictureURL)
	}
	if upd.IsBreederProfile != nil {
		set = append(set, "is_breeder_profile = ?")
		args = append(args, *upd.IsBreederProfile)
	}
	if len(set) == 0 {
		// Nothing to change; report whether the user exists so the
		// handler can still distinguish 200 from 404.
		var one int
		switch err := wrap(s.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&one)); {
		case err == nil:
			return 1, nil
		case errors.Is(err, store.ErrNotFound):
			return 0, nil
		default:
			return 0, err
		}
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return 0, wrap(err)
	}
	n, err := res.RowsAffected()
	return n, wrap(err)
}

// SearchUsers matches term case-insensitively against personal or
// breeder name, with NULL names coalesced to empty strings so they
// participate in the search rather than dropping out of it.
func (s *Store) SearchUsers(ctx context.Context, term string) ([]*model.User, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users
		 WHERE LOWER(COALESCE(personal_name, '')) LIKE ?
		    OR LOWER(COALESCE(breeder_name, '')) LIKE ?
		 ORDER BY sequential_id`,
		pattern, pattern)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return out, nil
}
