// Package store defines the data access contracts shared by every
// storage backend. Three interchangeable implementations exist:
// mysqlstore (direct relational store), reststore (proxy to a
// PostgREST-style external data API) and memstore (in-memory, used
// for development and tests). The backend is selected once at
// startup; handlers only ever see these interfaces.
//
// Ownership scoping lives here, not in handlers: every read or
// write on animals and litters takes the authenticated owner id
// and the backend filters by it server-side. A record owned by a
// different user is indistinguishable from a missing record — both
// surface as ErrNotFound (or an affected count of 0).
package store

import (
	"context"
	"errors"

	"github.com/crittertrack/crittertrack-server/internal/model"
)

// ErrNotFound is returned when a record is absent or owned by a
// different user. The two cases are merged on purpose so a caller
// can never probe for the existence of someone else's data.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by CreateUser when the email is
// already registered. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUnavailable wraps transient infrastructure faults (connection
// refused, timeouts, upstream 5xx). It is distinct from the domain
// outcomes above: handlers translate it into HTTP 500 and log it,
// and it is never retried within the request.
var ErrUnavailable = errors.New("store unavailable")

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts u. The email-uniqueness check and the
	// insert execute as one atomic unit; exactly one of two
	// concurrent registrations with the same email succeeds, the
	// other receives ErrEmailExists. On success u.SequentialID is
	// populated.
	CreateUser(ctx context.Context, u *model.User) error

	// GetUserByEmail looks a user up by email (matched
	// case-insensitively; backends store emails lower-cased).
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByID looks a user up by id.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// UpdateUserProfile applies the non-nil fields of upd and
	// returns the number of rows affected (0 when the user does
	// not exist).
	UpdateUserProfile(ctx context.Context, id string, upd model.UserUpdate) (int64, error)

	// SearchUsers matches term case-insensitively as a substring
	// of personal name or breeder name. Nil names are treated as
	// empty strings, not excluded from the search.
	SearchUsers(ctx context.Context, term string) ([]*model.User, error)
}

// AnimalStore persists animal records scoped to their owner.
type AnimalStore interface {
	// CreateAnimal inserts a for a.UserID. On success
	// a.SequentialID is populated.
	CreateAnimal(ctx context.Context, a *model.Animal) error

	// ListAnimals returns the owner's animals. When species is
	// non-empty it is matched case-insensitively as a substring.
	ListAnimals(ctx context.Context, ownerID, species string) ([]*model.Animal, error)

	// GetAnimal returns the animal only when it belongs to
	// ownerID; otherwise ErrNotFound.
	GetAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error)

	// UpdateAnimal applies the non-nil fields of upd to the
	// owner's animal and returns the affected count (0 when absent
	// or not owned).
	UpdateAnimal(ctx context.Context, ownerID, id string, upd model.AnimalUpdate) (int64, error)

	// DeleteAnimal removes the owner's animal and returns the
	// affected count (0 when absent or not owned).
	DeleteAnimal(ctx context.Context, ownerID, id string) (int64, error)

	// ListPublicAnimals returns ownerID's animals with
	// ShowOnProfile set, ignoring authentication.
	ListPublicAnimals(ctx context.Context, ownerID string) ([]*model.Animal, error)

	// GetPublicAnimal returns the animal only when it belongs to
	// ownerID and has ShowOnProfile set.
	GetPublicAnimal(ctx context.Context, ownerID, id string) (*model.Animal, error)
}

// LitterStore persists litter records scoped to their owner. The
// semantics mirror AnimalStore.
type LitterStore interface {
	CreateLitter(ctx context.Context, l *model.Litter) error
	ListLitters(ctx context.Context, ownerID string) ([]*model.Litter, error)
	GetLitter(ctx context.Context, ownerID, id string) (*model.Litter, error)
	UpdateLitter(ctx context.Context, ownerID, id string, upd model.LitterUpdate) (int64, error)
	DeleteLitter(ctx context.Context, ownerID, id string) (int64, error)
}

// Store is the full data access surface a backend must provide.
type Store interface {
	UserStore
	AnimalStore
	LitterStore
}
