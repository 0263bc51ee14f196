package reststore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// capture records the last request the stub upstream received.
type capture struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

// newStub starts a fake data API that records each request and
// replies with a fixed status and body, and returns a Store
// pointing at it.
func newStub(t *testing.T, status int, respBody string) (*Store, *capture) {
	t.Helper()
	cap := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.method = r.Method
		cap.path = r.URL.Path
		cap.query = r.URL.RawQuery
		cap.header = r.Header.Clone()
		cap.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, "secret-api-key"), cap
}

func TestCreateUserSendsKeyAndNormalizesEmail(t *testing.T) {
	s, cap := newStub(t, http.StatusCreated, `[{"id":"u1","email":"alice@example.com","sequential_id":7}]`)

	u := &model.User{ID: "u1", Email: "  Alice@Example.COM ", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), u))

	assert.Equal(t, http.MethodPost, cap.method)
	assert.Equal(t, "/users", cap.path)
	assert.Equal(t, "secret-api-key", cap.header.Get("apikey"))
	assert.Equal(t, "return=representation", cap.header.Get("Prefer"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(cap.body, &sent))
	assert.Equal(t, "alice@example.com", sent["email"])
	// The identity column must be assigned upstream, so the insert
	// body never carries it.
	assert.NotContains(t, sent, "sequential_id")

	// Sequential id comes back from the upstream insert.
	assert.Equal(t, 7, u.SequentialID)
}

func TestCreateUserConflict(t *testing.T) {
	s, _ := newStub(t, http.StatusConflict,
		`{"code":"23505","message":"duplicate key value violates unique constraint \"users_email_key\""}`)

	err := s.CreateUser(context.Background(), &model.User{ID: "u1", Email: "a@example.com"})
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestCreateUserNonEmailConflict(t *testing.T) {
	// A conflict on anything but the email constraint is an
	// infrastructure fault, not "address already registered".
	s, _ := newStub(t, http.StatusConflict,
		`{"code":"23505","message":"duplicate key value violates unique constraint \"users_sequential_id_key\""}`)

	err := s.CreateUser(context.Background(), &model.User{ID: "u1", Email: "a@example.com"})
	assert.NotErrorIs(t, err, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestGetUserByEmailFilter(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[{"id":"u1","email":"a@example.com"}]`)

	u, err := s.GetUserByEmail(context.Background(), "A@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, http.MethodGet, cap.method)
	assert.Equal(t, "email=eq.a%40example.com", cap.query)
	// Reads carry no representation preference.
	assert.Empty(t, cap.header.Get("Prefer"))
}

func TestGetUserByIDEmptyResult(t *testing.T) {
	s, _ := newStub(t, http.StatusOK, `[]`)

	_, err := s.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpstream5xxIsUnavailable(t *testing.T) {
	s, _ := newStub(t, http.StatusBadGateway, `upstream exploded`)

	_, err := s.GetUserByID(context.Background(), "u1")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	// A closed server makes every request fail at the transport level.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	s := New(srv.URL, "key")

	_, err := s.GetUserByID(context.Background(), "u1")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestSearchUsersOrFilter(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[]`)

	_, err := s.SearchUsers(context.Background(), "smith")
	require.NoError(t, err)
	q, err := url.ParseQuery(cap.query)
	require.NoError(t, err)
	assert.Equal(t, `(personal_name.ilike."*smith*",breeder_name.ilike."*smith*")`, q.Get("or"))
}

func TestSearchUsersQuotesHostileTerm(t *testing.T) {
	// Reserved characters in the term must stay inside one quoted
	// literal; otherwise a crafted term appends its own clauses and
	// turns the public search into an oracle over arbitrary columns.
	s, cap := newStub(t, http.StatusOK, `[]`)

	_, err := s.SearchUsers(context.Background(), `x*,password_hash.ilike.*$2a$10$secret`)
	require.NoError(t, err)
	q, err := url.ParseQuery(cap.query)
	require.NoError(t, err)
	assert.Equal(t,
		`(personal_name.ilike."*x*,password_hash.ilike.*$2a$10$secret*",breeder_name.ilike."*x*,password_hash.ilike.*$2a$10$secret*")`,
		q.Get("or"))
}

func TestSearchUsersEscapesQuotes(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[]`)

	_, err := s.SearchUsers(context.Background(), `a"b\c`)
	require.NoError(t, err)
	q, err := url.ParseQuery(cap.query)
	require.NoError(t, err)
	assert.Equal(t, `(personal_name.ilike."*a\"b\\c*",breeder_name.ilike."*a\"b\\c*")`, q.Get("or"))
}

func TestCreateAnimalOmitsSequentialID(t *testing.T) {
	s, cap := newStub(t, http.StatusCreated, `[{"id":"a1","sequential_id":3}]`)

	a := &model.Animal{ID: "a1", UserID: "owner", Species: "rat"}
	require.NoError(t, s.CreateAnimal(context.Background(), a))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(cap.body, &sent))
	assert.NotContains(t, sent, "sequential_id")
	assert.Equal(t, 3, a.SequentialID)
}

func TestCreateLitterOmitsSequentialID(t *testing.T) {
	s, cap := newStub(t, http.StatusCreated, `[{"id":"l1","sequential_id":2}]`)

	l := &model.Litter{ID: "l1", UserID: "owner", Name: "Spring", Date: "2026-03-01"}
	require.NoError(t, s.CreateLitter(context.Background(), l))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(cap.body, &sent))
	assert.NotContains(t, sent, "sequential_id")
	assert.Equal(t, 2, l.SequentialID)
}

func TestGetAnimalScopesByOwner(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[{"id":"a1","user_id":"owner","species":"rat"}]`)

	a, err := s.GetAnimal(context.Background(), "owner", "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, "/animals", cap.path)
	assert.Contains(t, cap.query, "id=eq.a1")
	assert.Contains(t, cap.query, "user_id=eq.owner")
}

func TestListAnimalsSpeciesFilter(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[]`)

	_, err := s.ListAnimals(context.Background(), "owner", "rat")
	require.NoError(t, err)
	assert.Contains(t, cap.query, "species=ilike.%2Arat%2A")
	assert.Contains(t, cap.query, "order=sequential_id")
}

func TestListPublicAnimalsVisibilityFilter(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[]`)

	_, err := s.ListPublicAnimals(context.Background(), "owner")
	require.NoError(t, err)
	assert.Contains(t, cap.query, "show_on_profile=eq.true")
}

func TestUpdateAnimalCountsEchoedRows(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[{"id":"a1"}]`)

	name := "Pippin"
	n, err := s.UpdateAnimal(context.Background(), "owner", "a1", model.AnimalUpdate{Name: &name})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, http.MethodPatch, cap.method)

	// Only the provided field travels in the PATCH body.
	var sent map[string]any
	require.NoError(t, json.Unmarshal(cap.body, &sent))
	assert.Equal(t, map[string]any{"name": "Pippin"}, sent)
}

func TestUpdateAnimalNoMatch(t *testing.T) {
	s, _ := newStub(t, http.StatusOK, `[]`)

	name := "Pippin"
	n, err := s.UpdateAnimal(context.Background(), "intruder", "a1", model.AnimalUpdate{Name: &name})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestUpdateAnimalEmptyBodyResolvesExistence(t *testing.T) {
	// An all-nil update must not send an empty PATCH; it turns into
	// a GET whose result decides the affected count.
	s, cap := newStub(t, http.StatusOK, `[{"id":"a1","user_id":"owner","species":"rat"}]`)

	n, err := s.UpdateAnimal(context.Background(), "owner", "a1", model.AnimalUpdate{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, http.MethodGet, cap.method)
}

func TestDeleteLitterCountsEchoedRows(t *testing.T) {
	s, cap := newStub(t, http.StatusOK, `[{"id":"l1"}]`)

	n, err := s.DeleteLitter(context.Background(), "owner", "l1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, http.MethodDelete, cap.method)
	assert.Equal(t, "/litters", cap.path)
	assert.Contains(t, cap.query, "user_id=eq.owner")
}
