package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/navigation"
	"github.com/cory-johannsen/textworld/internal/storage/postgres"
	"github.com/cory-johannsen/textworld/internal/world"
)

// fakeAccounts is an in-memory AccountStore. Passwords are kept in plain
// text; hashing is the real repository's concern.
type fakeAccounts struct {
	nextID    int64
	byName    map[string]postgres.Account
	passwords map[string]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byName:    make(map[string]postgres.Account),
		passwords: make(map[string]string),
	}
}

func (f *fakeAccounts) Create(_ context.Context, username, password string) (postgres.Account, error) {
	if _, exists := f.byName[username]; exists {
		return postgres.Account{}, postgres.ErrAccountExists
	}
	f.nextID++
	acct := postgres.Account{ID: f.nextID, Username: username}
	f.byName[username] = acct
	f.passwords[username] = password
	return acct, nil
}

func (f *fakeAccounts) Authenticate(_ context.Context, username, password string) (postgres.Account, error) {
	acct, ok := f.byName[username]
	if !ok {
		return postgres.Account{}, postgres.ErrAccountNotFound
	}
	if f.passwords[username] != password {
		return postgres.Account{}, postgres.ErrInvalidCredentials
	}
	return acct, nil
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (postgres.Account, error) {
	acct, ok := f.byName[username]
	if !ok {
		return postgres.Account{}, postgres.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (postgres.Account, error) {
	for _, acct := range f.byName {
		if acct.ID == id {
			return acct, nil
		}
	}
	return postgres.Account{}, postgres.ErrAccountNotFound
}

// newTestServer wires the real graph, tracker, and navigation service behind
// the API with an in-memory account store. The world is the documented
// two-room map: Start north to End, no reverse portal.
func newTestServer(t *testing.T) (*httptest.Server, *fakeAccounts) {
	t.Helper()

	g := world.NewGraph()
	start := g.CreateRoom("Start", "You are at start.")
	end := g.CreateRoom("End", "You are at the end.")
	_, err := g.AddPortal(start, world.North, end)
	require.NoError(t, err)

	tracker := world.NewTracker()
	accounts := newFakeAccounts()
	nav := navigation.NewService(g, tracker, zap.NewNop())

	handler := NewHandler(accounts, tracker, nav, start, zap.NewNop())
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, accounts
}

func doJSON(t *testing.T, method, url, user, pass string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if user != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func register(t *testing.T, srv *httptest.Server, username, password string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/users", "", "",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestWelcome(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/users", "", "",
		map[string]string{"username": "alice", "password": "secret"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "/users/1", resp.Header.Get("Location"))
}

func TestRegister_Duplicate(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/users", "", "",
		map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_MissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/users", "", "",
		map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/users", "", "",
		map[string]string{"password": "secret"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUser_ByIDAndUsername(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/users/1", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/users/alice", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["id"])
}

func TestGetUser_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/users/99", "", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/users/ghost", "", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLook_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/look", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
}

func TestLook_BadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/look", "alice", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLook(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")
	register(t, srv, "bob", "hunter2")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/look", "alice", "secret", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["location_id"])
	assert.Equal(t, "Start", body["location_name"])
	assert.Equal(t, "You are at start.", body["location_description"])
	assert.Equal(t, []any{"alice", "bob"}, body["users"])
}

func TestMove(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/move", "alice", "secret",
		map[string]string{"direction": "north"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["current_location"])
	assert.Equal(t, "/look", resp.Header.Get("Look"))

	// A follow-up look sees the destination and the start room is empty.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/look", "alice", "secret", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "End", body["location_name"])
	assert.Equal(t, []any{"alice"}, body["users"])
}

func TestMove_NoSuchExit(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/move", "alice", "secret",
		map[string]string{"direction": "west"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "you can't go that way", body["error"])

	// Occupancy unchanged.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/look", "alice", "secret", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Start", body["location_name"])
}

func TestMove_MissingDirection(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/move", "alice", "secret",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMove_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/move", "", "",
		map[string]string{"direction": "north"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMultipleUsersMoveIndependently(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "alice", "secret")
	register(t, srv, "bob", "hunter2")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/move", "alice", "secret",
		map[string]string{"direction": "north"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// bob stayed behind and no longer sees alice.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/look", "bob", "hunter2", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Start", body["location_name"])
	assert.Equal(t, []any{"bob"}, body["users"])
}

func TestRegisterAssignsStartRoom(t *testing.T) {
	srv, accounts := newTestServer(t)
	register(t, srv, "alice", "secret")

	acct, err := accounts.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/users/%d", srv.URL, acct.ID), "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
}
