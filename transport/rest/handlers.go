package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HarshilD05/Super-XO/internal/apperror"
	"github.com/HarshilD05/Super-XO/internal/game"
	"github.com/HarshilD05/Super-XO/internal/tictactoe"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	SessionHandler(w http.ResponseWriter, r *http.Request)
	ValueTableHandler(w http.ResponseWriter, r *http.Request)
	ValueTableIndexHandler(w http.ResponseWriter, r *http.Request)
}

type sessionReader interface {
	State(ctx context.Context, sessionID string) (*game.View, error)
}

type valueTable interface {
	Lookup(encoded string) (map[int]int8, bool)
	Keys() []string
}

type handlers struct {
	logger   *slog.Logger
	sessions sessionReader
	table    valueTable
}

func NewHandlers(logger *slog.Logger, sessions sessionReader, table valueTable) Handlers {
	return &handlers{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
		table:    table,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// ValueTableResponse lists the exact value of every legal move on a board,
// from X's side.
type ValueTableResponse struct {
	Board  string       `json:"board"`
	Values map[int]int8 `json:"values"`
}

// ValueTableIndexResponse lists every board the value table knows.
type ValueTableIndexResponse struct {
	Positions int      `json:"positions"`
	Boards    []string `json:"boards"`
}

func (that *handlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := that.sessions.State(r.Context(), id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: apperror.ErrSessionNotFound.Error()})
		return
	}

	if err != nil {
		that.logger.Error("failed to get session", "method", "SessionHandler", "sessionID", id, "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *handlers) ValueTableHandler(w http.ResponseWriter, r *http.Request) {
	encoded := chi.URLParam(r, "board")

	if _, err := tictactoe.DecodeBoard(encoded); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	values, ok := that.table.Lookup(encoded)
	if !ok {
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: "board is terminal or unreachable"})
		return
	}

	that.writeJSON(w, http.StatusOK, ValueTableResponse{Board: encoded, Values: values})
}

func (that *handlers) ValueTableIndexHandler(w http.ResponseWriter, _ *http.Request) {
	boards := that.table.Keys()

	that.writeJSON(w, http.StatusOK, ValueTableIndexResponse{Positions: len(boards), Boards: boards})
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
