package reststore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// userInsert is the POST body for creating a user. sequential_id
// is deliberately absent: it is an upstream identity column and
// echoing the zero value would override the assignment.
type userInsert struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	PasswordHash      string  `json:"password_hash"`
	PersonalName      *string `json:"personal_name"`
	BreederName       *string `json:"breeder_name"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	IsBreederProfile  bool    `json:"is_breeder_profile"`
}

// CreateUser inserts the user through the upstream API. The
// upstream unique constraint on email keeps registration atomic:
// a duplicate insert comes back as HTTP 409.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	data, status, err := s.do(ctx, http.MethodPost, "users", nil, userInsert{
		ID:                u.ID,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		PersonalName:      u.PersonalName,
		BreederName:       u.BreederName,
		ProfilePictureURL: u.ProfilePictureURL,
		IsBreederProfile:  u.IsBreederProfile,
	})
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		// Only the email constraint is a domain outcome; any other
		// conflict (e.g. a duplicate primary key) is an internal
		// fault and must not masquerade as a registered address.
		if strings.Contains(string(data), "email") {
			return store.ErrEmailExists
		}
		return fmt.Errorf("%w: create user conflict: %s", store.ErrUnavailable, data)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return fmt.Errorf("%w: create user status %d", store.ErrUnavailable, status)
	}
	var created []model.User
	if err := json.Unmarshal(data, &created); err != nil || len(created) == 0 {
		return fmt.Errorf("%w: create user response", store.ErrUnavailable)
	}
	u.SequentialID = created[0].SequentialID
	return nil
}

// getUsers runs a filtered select on the users table.
func (s *Store) getUsers(ctx context.Context, f filters) ([]*model.User, error) {
	data, status, err := s.do(ctx, http.MethodGet, "users", f, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: select users status %d", store.ErrUnavailable, status)
	}
	var users []*model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: decode users", store.ErrUnavailable)
	}
	return users, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	users, err := s.getUsers(ctx, filters{{"email", eq(email)}})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, store.ErrNotFound
	}
	return users[0], nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	users, err := s.getUsers(ctx, filters{{"id", eq(id)}})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, store.ErrNotFound
	}
	return users[0], nil
}

// UpdateUserProfile sends a PATCH carrying only the provided
// fields; the upstream applies it as a partial update. The
// affected count is the number of echoed rows.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd model.UserUpdate) (int64, error) {
	if upd.IsZero() {
		// A PATCH with an empty body would be rejected upstream;
		// resolve existence with a select instead.
		if _, err := s.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, nil
			}
			return 0, err
		}
		return 1, nil
	}
	data, status, err := s.do(ctx, http.MethodPatch, "users", filters{{"id", eq(id)}}, upd)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: update user status %d", store.ErrUnavailable, status)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("%w: decode update response", store.ErrUnavailable)
	}
	return int64(len(rows)), nil
}

// quoteFilterTerm renders term as a double-quoted ilike pattern.
// The or-expression has its own grammar in which `,`, `(`, `)` and
// `.` are structural, so an unquoted term could smuggle extra
// clauses against arbitrary columns into the filter. Quoting makes
// the whole term a single literal; backslash and double quote are
// escaped per the upstream's quoting rules.
func quoteFilterTerm(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(term)
	return `"*` + escaped + `*"`
}

// SearchUsers matches term case-insensitively against either name
// column via a PostgREST or-filter.
func (s *Store) SearchUsers(ctx context.Context, term string) ([]*model.User, error) {
	pat := quoteFilterTerm(term)
	orExpr := fmt.Sprintf("(personal_name.ilike.%s,breeder_name.ilike.%s)", pat, pat)
	return s.getUsers(ctx, filters{{"or", orExpr}, {"order", "sequential_id"}})
}
