package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crittertrack/crittertrack-server/internal/auth"
	"github.com/crittertrack/crittertrack-server/internal/handler"
	"github.com/crittertrack/crittertrack-server/internal/router"
	"github.com/crittertrack/crittertrack-server/internal/service"
	"github.com/crittertrack/crittertrack-server/internal/store/memstore"
)

// testEnv is a full API instance running against the in-memory
// store, the same wiring main() does minus Redis and RabbitMQ.
type testEnv struct {
	t  *testing.T
	ts *httptest.Server
	st *memstore.Store
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memstore.New()
	issuer := auth.NewTokenIssuer("test-secret", "crittertrack-users", "crittertrack-server", 60)
	timeout := 5 * time.Second

	h := router.Handlers{
		Auth: &handler.AuthHandler{
			Users:      st,
			Tokens:     issuer,
			Events:     service.NewEventPublisher(""), // no broker in tests
			BcryptCost: 4,
			Timeout:    timeout,
		},
		Animals: &handler.AnimalHandler{Animals: st, Timeout: timeout},
		Litters: &handler.LitterHandler{Litters: st, Timeout: timeout},
		Public:  &handler.PublicHandler{Users: st, Animals: st, Timeout: timeout},
		Upload:  &handler.UploadHandler{Dir: t.TempDir()},
	}

	e := echo.New()
	router.Register(e, h, issuer, nil)

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return &testEnv{t: t, ts: ts, st: st}
}

// do sends a JSON request and returns status plus raw body. An
// empty token leaves the Authorization header off entirely.
func (env *testEnv) do(method, path, token string, body any) (int, []byte) {
	env.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(env.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, env.ts.URL+path, rd)
	require.NoError(env.t, err)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := env.ts.Client().Do(req)
	require.NoError(env.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(env.t, err)
	return resp.StatusCode, raw
}

func unmarshal(t *testing.T, raw []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), "body: %s", raw)
}

// register creates an account and returns its token and user id.
func (env *testEnv) register(email string) (token, userID string) {
	env.t.Helper()
	status, raw := env.do(http.MethodPost, "/api/register", "", map[string]any{
		"email":    email,
		"password": "a long enough password",
	})
	require.Equal(env.t, http.StatusCreated, status, "body: %s", raw)
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	unmarshal(env.t, raw, &out)
	require.NotEmpty(env.t, out.Token)
	require.NotEmpty(env.t, out.UserID)
	return out.Token, out.UserID
}

func TestHealthz(t *testing.T) {
	env := newEnv(t)
	status, raw := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newEnv(t)
	_, userID := env.register("alice@example.com")

	// Login with a different casing of the same address.
	status, raw := env.do(http.MethodPost, "/api/login", "", map[string]any{
		"email":    "ALICE@Example.com",
		"password": "a long enough password",
	})
	require.Equal(t, http.StatusOK, status, "body: %s", raw)
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	unmarshal(t, raw, &out)
	assert.Equal(t, userID, out.UserID)

	// Wrong password and unknown email produce the same 401.
	status, _ = env.do(http.MethodPost, "/api/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "not the password here",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(http.MethodPost, "/api/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "a long enough password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	env := newEnv(t)

	status, _ := env.do(http.MethodPost, "/api/register", "", map[string]any{
		"email":    "",
		"password": "a long enough password",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, "/api/register", "", map[string]any{
		"email":    "short@example.com",
		"password": "elevenchars",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newEnv(t)
	env.register("alice@example.com")

	status, _ := env.do(http.MethodPost, "/api/register", "", map[string]any{
		"email":    " Alice@EXAMPLE.com ",
		"password": "a long enough password",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestConcurrentRegistrationSingleWinner(t *testing.T) {
	env := newEnv(t)
	const racers = 8

	statuses := make(chan int, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{
				"email":    "race@example.com",
				"password": "a long enough password",
			})
			resp, err := http.Post(env.ts.URL+"/api/register", echo.MIMEApplicationJSON, bytes.NewReader(body))
			if err != nil {
				statuses <- 0
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	var created, conflict int
	for status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflict++
		default:
			t.Fatalf("unexpected status %d", status)
		}
	}
	// Exactly one racer wins the address; everyone else conflicts.
	assert.Equal(t, 1, created)
	assert.Equal(t, racers-1, conflict)
}

func TestAuthGate(t *testing.T) {
	env := newEnv(t)
	token, userID := env.register("alice@example.com")

	status, _ := env.do(http.MethodGet, "/api/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodGet, "/api/user", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// A token signed with a different secret is rejected too.
	forged, err := auth.NewTokenIssuer("other-secret", "crittertrack-users", "crittertrack-server", 60).Issue(userID)
	require.NoError(t, err)
	status, _ = env.do(http.MethodGet, "/api/user", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := env.do(http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	unmarshal(t, raw, &me)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestUpdateProfilePartial(t *testing.T) {
	env := newEnv(t)
	token, _ := env.register("alice@example.com")

	status, _ := env.do(http.MethodPost, "/api/profile", token, map[string]any{
		"personalName": "Alice",
		"breederName":  "Alice Rattery",
	})
	require.Equal(t, http.StatusOK, status)

	// A second update touching only one field keeps the rest.
	status, raw := env.do(http.MethodPost, "/api/profile", token, map[string]any{
		"isBreederProfile": true,
	})
	require.Equal(t, http.StatusOK, status)
	var got struct {
		PersonalName     *string `json:"personalName"`
		BreederName      *string `json:"breederName"`
		IsBreederProfile bool    `json:"isBreederProfile"`
	}
	unmarshal(t, raw, &got)
	require.NotNil(t, got.PersonalName)
	assert.Equal(t, "Alice", *got.PersonalName)
	require.NotNil(t, got.BreederName)
	assert.Equal(t, "Alice Rattery", *got.BreederName)
	assert.True(t, got.IsBreederProfile)
}

func (env *testEnv) createAnimal(token string, body map[string]any) string {
	env.t.Helper()
	status, raw := env.do(http.MethodPost, "/api/animals", token, body)
	require.Equal(env.t, http.StatusCreated, status, "body: %s", raw)
	var out struct {
		ID string `json:"id"`
	}
	unmarshal(env.t, raw, &out)
	require.NotEmpty(env.t, out.ID)
	return out.ID
}

func TestAnimalCRUD(t *testing.T) {
	env := newEnv(t)
	token, userID := env.register("alice@example.com")

	// Species is mandatory.
	status, _ := env.do(http.MethodPost, "/api/animals", token, map[string]any{"name": "Pip"})
	assert.Equal(t, http.StatusBadRequest, status)

	id := env.createAnimal(token, map[string]any{
		"name":    "Pip",
		"species": "fancy rat",
		"remarks": "friendly",
	})
	env.createAnimal(token, map[string]any{"species": "mouse"})

	status, raw := env.do(http.MethodGet, "/api/animals", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		ID      string `json:"id"`
		UserID  string `json:"userId"`
		Species string `json:"species"`
	}
	unmarshal(t, raw, &list)
	require.Len(t, list, 2)
	assert.Equal(t, userID, list[0].UserID)

	status, raw = env.do(http.MethodGet, "/api/animals?species=rat", token, nil)
	require.Equal(t, http.StatusOK, status)
	list = nil
	unmarshal(t, raw, &list)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	// Partial update: rename only, remarks survive.
	status, _ = env.do(http.MethodPut, "/api/animals/"+id, token, map[string]any{"name": "Pippin"})
	require.Equal(t, http.StatusOK, status)

	status, raw = env.do(http.MethodGet, "/api/animals/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Name    *string `json:"name"`
		Remarks *string `json:"remarks"`
		Species string  `json:"species"`
	}
	unmarshal(t, raw, &got)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Pippin", *got.Name)
	require.NotNil(t, got.Remarks)
	assert.Equal(t, "friendly", *got.Remarks)
	assert.Equal(t, "fancy rat", got.Species)

	status, _ = env.do(http.MethodDelete, "/api/animals/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(http.MethodDelete, "/api/animals/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(http.MethodGet, "/api/animals/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAnimalOwnershipIsolation(t *testing.T) {
	env := newEnv(t)
	aliceToken, _ := env.register("alice@example.com")
	bobToken, _ := env.register("bob@example.com")

	id := env.createAnimal(aliceToken, map[string]any{"species": "rat"})

	// Bob sees alice's animal as nonexistent on every verb.
	status, _ := env.do(http.MethodGet, "/api/animals/"+id, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(http.MethodPut, "/api/animals/"+id, bobToken, map[string]any{"name": "mine"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(http.MethodDelete, "/api/animals/"+id, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// And alice still has it, untouched.
	status, raw := env.do(http.MethodGet, "/api/animals/"+id, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Name *string `json:"name"`
	}
	unmarshal(t, raw, &got)
	assert.Nil(t, got.Name)
}

func TestLitterCRUD(t *testing.T) {
	env := newEnv(t)
	token, _ := env.register("alice@example.com")

	status, _ := env.do(http.MethodPost, "/api/litters", token, map[string]any{"date": "2026-03-01"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(http.MethodPost, "/api/litters", token, map[string]any{"name": "Spring", "date": "2026-03-01", "count": -1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := env.do(http.MethodPost, "/api/litters", token, map[string]any{
		"name":      "Spring litter",
		"date":      "2026-03-01",
		"count":     6,
		"parentIds": []string{"ghost-father", "ghost-mother"},
	})
	require.Equal(t, http.StatusCreated, status, "body: %s", raw)
	var created struct {
		ID string `json:"id"`
	}
	unmarshal(t, raw, &created)

	// Parent ids are advisory; nothing checks they exist.
	status, raw = env.do(http.MethodGet, "/api/litters/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Name      string   `json:"name"`
		Count     int      `json:"count"`
		ParentIDs []string `json:"parentIds"`
	}
	unmarshal(t, raw, &got)
	assert.Equal(t, []string{"ghost-father", "ghost-mother"}, got.ParentIDs)

	status, _ = env.do(http.MethodPut, "/api/litters/"+created.ID, token, map[string]any{"count": 7})
	require.Equal(t, http.StatusOK, status)
	status, raw = env.do(http.MethodGet, "/api/litters/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	unmarshal(t, raw, &got)
	assert.Equal(t, 7, got.Count)
	assert.Equal(t, "Spring litter", got.Name)

	status, _ = env.do(http.MethodDelete, "/api/litters/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(http.MethodGet, "/api/litters/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPublicProfileVisibility(t *testing.T) {
	env := newEnv(t)
	token, userID := env.register("alice@example.com")

	shown := env.createAnimal(token, map[string]any{
		"species":       "rat",
		"name":          "Pip",
		"remarks":       "private notes",
		"registryCode":  "REG-1",
		"fatherId":      "f-1",
		"motherId":      "m-1",
		"showOnProfile": true,
		"showParents":   true,
	})
	env.createAnimal(token, map[string]any{"species": "rat", "name": "Hidden"})

	// List shows only the opted-in animal, without any token.
	status, raw := env.do(http.MethodGet, "/api/public/animals/list/"+userID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		ID string `json:"id"`
	}
	unmarshal(t, raw, &list)
	require.Len(t, list, 1)
	assert.Equal(t, shown, list[0].ID)

	// Detail blanks the fields whose flags are off.
	status, raw = env.do(http.MethodGet, fmt.Sprintf("/api/public/animals/%s/%s", userID, shown), "", nil)
	require.Equal(t, http.StatusOK, status)
	var got struct {
		Remarks      *string `json:"remarks"`
		RegistryCode *string `json:"registryCode"`
		FatherID     *string `json:"fatherId"`
		MotherID     *string `json:"motherId"`
	}
	unmarshal(t, raw, &got)
	assert.Nil(t, got.Remarks)
	assert.Nil(t, got.RegistryCode)
	require.NotNil(t, got.FatherID)
	assert.Equal(t, "f-1", *got.FatherID)
	require.NotNil(t, got.MotherID)

	// A hidden animal is indistinguishable from a missing one.
	statusHidden, _ := env.do(http.MethodGet, fmt.Sprintf("/api/public/animals/%s/%s", userID, "no-such-id"), "", nil)
	assert.Equal(t, http.StatusNotFound, statusHidden)
}

func TestPublicUserSearch(t *testing.T) {
	env := newEnv(t)
	token, userID := env.register("alice@example.com")
	status, _ := env.do(http.MethodPost, "/api/profile", token, map[string]any{"breederName": "Smithfield Mousery"})
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, "/api/public/users/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := env.do(http.MethodGet, "/api/public/users/search?q=smith", "", nil)
	require.Equal(t, http.StatusOK, status)
	var users []struct {
		ID string `json:"id"`
	}
	unmarshal(t, raw, &users)
	require.Len(t, users, 1)
	assert.Equal(t, userID, users[0].ID)

	status, raw = env.do(http.MethodGet, "/api/public/users/search?q=zzz", "", nil)
	require.Equal(t, http.StatusOK, status)
	users = nil
	unmarshal(t, raw, &users)
	assert.Empty(t, users)
}

func TestUploadAndServe(t *testing.T) {
	env := newEnv(t)
	token, _ := env.register("alice@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "pip.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/api/upload", &buf)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	resp, err := env.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Regexp(t, `^/uploads/[0-9a-f-]+\.jpg$`, out.URL)

	// The stored file is served back over the static route.
	got, raw := env.do(http.MethodGet, out.URL, "", nil)
	require.Equal(t, http.StatusOK, got)
	assert.Equal(t, "jpeg bytes", string(raw))

	// Upload requires a token like every other /api route.
	status, _ := env.do(http.MethodPost, "/api/upload", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
