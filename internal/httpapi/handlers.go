// Package httpapi exposes the textworld JSON API: registration, user lookup,
// and the authenticated look and move operations.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/game/navigation"
	"github.com/cory-johannsen/textworld/internal/storage/postgres"
	"github.com/cory-johannsen/textworld/internal/world"
)

const welcomeMessage = "Welcome to textworld. Login to continue."

// AccountStore defines the account operations required by the API layer.
type AccountStore interface {
	Create(ctx context.Context, username, password string) (postgres.Account, error)
	Authenticate(ctx context.Context, username, password string) (postgres.Account, error)
	GetByUsername(ctx context.Context, username string) (postgres.Account, error)
	GetByID(ctx context.Context, id int64) (postgres.Account, error)
}

// OccupancyAssigner defines the single occupancy operation the registration
// flow performs: placing a new user in the bootstrap room, exactly once.
type OccupancyAssigner interface {
	Assign(ctx context.Context, user world.Occupant, roomID int64) error
}

// Navigator defines the navigation operations required by the API layer.
type Navigator interface {
	Look(ctx context.Context, userID int64) (navigation.LookResult, error)
	Move(ctx context.Context, userID int64, direction string) (navigation.MoveResult, error)
}

// Handler serves the textworld HTTP API.
type Handler struct {
	accounts  AccountStore
	occupancy OccupancyAssigner
	nav       Navigator
	startRoom int64
	logger    *zap.Logger
}

// NewHandler creates a Handler.
//
// Precondition: accounts, occupancy, nav, and logger must be non-nil;
// startRoom must be a valid room id (the bootstrap room).
func NewHandler(accounts AccountStore, occupancy OccupancyAssigner, nav Navigator, startRoom int64, logger *zap.Logger) *Handler {
	return &Handler{
		accounts:  accounts,
		occupancy: occupancy,
		nav:       nav,
		startRoom: startRoom,
		logger:    logger,
	}
}

// Routes returns the API router with all middleware applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.handleWelcome)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /users", h.handleRegister)
	mux.HandleFunc("GET /users/{key}", h.handleGetUser)
	mux.Handle("GET /look", h.requireAuth(http.HandlerFunc(h.handleLook)))
	mux.Handle("POST /move", h.requireAuth(http.HandlerFunc(h.handleMove)))

	return requestID(accessLog(h.logger, mux))
}

func (h *Handler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, welcomeMessage)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	acct, err := h.accounts.Create(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, postgres.ErrAccountExists) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		h.serverError(w, r, "creating account", err)
		return
	}

	occ := world.Occupant{UserID: acct.ID, Username: acct.Username}
	if err := h.occupancy.Assign(r.Context(), occ, h.startRoom); err != nil {
		h.serverError(w, r, "assigning start room", err)
		return
	}

	h.logger.Info("user registered",
		zap.Int64("user_id", acct.ID),
		zap.String("username", acct.Username),
		zap.Int64("start_room", h.startRoom),
	)

	w.Header().Set("Location", fmt.Sprintf("/users/%d", acct.ID))
	writeJSON(w, http.StatusCreated, map[string]any{"username": acct.Username})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	// Numeric keys look up by id and return the username; anything else
	// looks up by username and returns the id.
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		acct, err := h.accounts.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, postgres.ErrAccountNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			h.serverError(w, r, "fetching account", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"username": acct.Username})
		return
	}

	acct, err := h.accounts.GetByUsername(r.Context(), key)
	if err != nil {
		if errors.Is(err, postgres.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.serverError(w, r, "fetching account", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": acct.ID})
}

func (h *Handler) handleLook(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())

	result, err := h.nav.Look(r.Context(), acct.ID)
	if err != nil {
		if errors.Is(err, navigation.ErrNoLocation) {
			writeError(w, http.StatusConflict, "you are nowhere; contact an administrator")
			return
		}
		h.serverError(w, r, "look", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"location_id":          result.RoomID,
		"location_name":        result.RoomName,
		"location_description": result.RoomDescription,
		"users":                result.Occupants,
	})
}

type moveRequest struct {
	Direction string `json:"direction"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r.Context())

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Direction == "" {
		writeError(w, http.StatusBadRequest, "direction is required")
		return
	}

	result, err := h.nav.Move(r.Context(), acct.ID, req.Direction)
	if err != nil {
		switch {
		case errors.Is(err, world.ErrNoSuchExit):
			writeError(w, http.StatusNotFound, "you can't go that way")
		case errors.Is(err, navigation.ErrNoLocation):
			writeError(w, http.StatusConflict, "you are nowhere; contact an administrator")
		default:
			h.serverError(w, r, "move", err)
		}
		return
	}

	w.Header().Set("Look", "/look")
	writeJSON(w, http.StatusOK, map[string]any{"current_location": result.RoomID})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
