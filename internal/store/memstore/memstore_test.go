package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func newUser(id, email string) *model.User {
	return &model.User{ID: id, Email: email, PasswordHash: "x"}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("u1", "alice@example.com")))

	// Same address, different casing and whitespace.
	err := s.CreateUser(ctx, newUser("u2", "  Alice@Example.COM "))
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestCreateUserConcurrentDuplicate(t *testing.T) {
	s := New()
	const racers = 16

	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.CreateUser(context.Background(), newUser(fmt.Sprintf("u%d", i), "race@example.com"))
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflict int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, store.ErrEmailExists):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, racers-1, conflict)
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("u1", "Alice@Example.com")))

	u, err := s.GetUserByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSequentialIDsGrow(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newUser("u1", "a@example.com")))
	require.NoError(t, s.CreateUser(ctx, newUser("u2", "b@example.com")))

	u1, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	u2, err := s.GetUserByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, u1.SequentialID)
	assert.Equal(t, 2, u2.SequentialID)
}

func TestUpdateUserProfilePartial(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newUser("u1", "a@example.com")
	u.PersonalName = strptr("Alice")
	u.BreederName = strptr("Alice Rattery")
	require.NoError(t, s.CreateUser(ctx, u))

	n, err := s.UpdateUserProfile(ctx, "u1", model.UserUpdate{
		PersonalName:     strptr("Alicia"),
		IsBreederProfile: boolptr(true),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", *got.PersonalName)
	// Omitted fields are untouched.
	assert.Equal(t, "Alice Rattery", *got.BreederName)
	assert.True(t, got.IsBreederProfile)

	n, err = s.UpdateUserProfile(ctx, "missing", model.UserUpdate{PersonalName: strptr("x")})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestSearchUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := newUser("u1", "a@example.com")
	a.PersonalName = strptr("Alice Smith")
	b := newUser("u2", "b@example.com")
	b.BreederName = strptr("Smithfield Mousery")
	c := newUser("u3", "c@example.com") // both names nil
	require.NoError(t, s.CreateUser(ctx, a))
	require.NoError(t, s.CreateUser(ctx, b))
	require.NoError(t, s.CreateUser(ctx, c))

	got, err := s.SearchUsers(ctx, "SMITH")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].ID)
	assert.Equal(t, "u2", got[1].ID)
}

func seedAnimal(t *testing.T, s *Store, id, ownerID, species string, show bool) {
	t.Helper()
	err := s.CreateAnimal(context.Background(), &model.Animal{
		ID:            id,
		UserID:        ownerID,
		Species:       species,
		ShowOnProfile: show,
	})
	require.NoError(t, err)
}

func TestAnimalOwnershipScoping(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAnimal(t, s, "a1", "owner", "rat", false)

	_, err := s.GetAnimal(ctx, "owner", "a1")
	require.NoError(t, err)

	// Another user's id never reveals the record.
	_, err = s.GetAnimal(ctx, "intruder", "a1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.UpdateAnimal(ctx, "intruder", "a1", model.AnimalUpdate{Name: strptr("stolen")})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = s.DeleteAnimal(ctx, "intruder", "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestListAnimalsSpeciesFilter(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAnimal(t, s, "a1", "owner", "Fancy Rat", false)
	seedAnimal(t, s, "a2", "owner", "mouse", false)
	seedAnimal(t, s, "a3", "other", "rat", false)

	got, err := s.ListAnimals(ctx, "owner", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListAnimals(ctx, "owner", "RAT")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
}

func TestUpdateAnimalPartial(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.CreateAnimal(ctx, &model.Animal{
		ID:      "a1",
		UserID:  "owner",
		Species: "rat",
		Name:    strptr("Pip"),
		Remarks: strptr("friendly"),
	})
	require.NoError(t, err)

	n, err := s.UpdateAnimal(ctx, "owner", "a1", model.AnimalUpdate{
		Name:          strptr("Pippin"),
		ShowOnProfile: boolptr(true),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.GetAnimal(ctx, "owner", "a1")
	require.NoError(t, err)
	assert.Equal(t, "Pippin", *got.Name)
	assert.Equal(t, "friendly", *got.Remarks)
	assert.True(t, got.ShowOnProfile)
	assert.Equal(t, "rat", got.Species)
}

func TestDeleteAnimalTwice(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAnimal(t, s, "a1", "owner", "rat", false)

	n, err := s.DeleteAnimal(ctx, "owner", "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteAnimal(ctx, "owner", "a1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestPublicAnimalVisibility(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAnimal(t, s, "shown", "owner", "rat", true)
	seedAnimal(t, s, "hidden", "owner", "rat", false)

	got, err := s.ListPublicAnimals(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0].ID)

	_, err = s.GetPublicAnimal(ctx, "owner", "shown")
	require.NoError(t, err)

	// Hidden records look absent, not forbidden.
	_, err = s.GetPublicAnimal(ctx, "owner", "hidden")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLitterLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	l := &model.Litter{
		ID:        "l1",
		UserID:    "owner",
		Name:      "Spring litter",
		Date:      "2026-03-01",
		Count:     6,
		ParentIDs: []string{"a1", "a2"},
	}
	require.NoError(t, s.CreateLitter(ctx, l))

	got, err := s.GetLitter(ctx, "owner", "l1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, got.ParentIDs)

	_, err = s.GetLitter(ctx, "intruder", "l1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.UpdateLitter(ctx, "owner", "l1", model.LitterUpdate{Count: intptr(7)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err = s.GetLitter(ctx, "owner", "l1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Count)
	assert.Equal(t, "Spring litter", got.Name)

	list, err := s.ListLitters(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err = s.DeleteLitter(ctx, "owner", "l1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteLitter(ctx, "owner", "l1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func intptr(i int) *int { return &i }

func TestClonesDoNotAlias(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newUser("u1", "a@example.com")
	u.PersonalName = strptr("Alice")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	got.Email = "mutated@example.com"

	again, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email)
}
