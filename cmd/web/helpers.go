package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/repositories"
	"github.com/storyloom/storyloom/internal/versioning"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Debug(http.StatusText(status), "method", method, "uri", uri)
	http.Error(w, http.StatusText(status), status)
}

// handleError maps the runtime's non-fatal "not found" signals to 404 and
// everything else to 500.
func (app *application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, graph.ErrNotFound),
		errors.Is(err, versioning.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound)
	default:
		app.serverError(w, r, err)
	}
}

// ownerID identifies the requesting user. Authentication itself is handled
// by the surrounding deployment; this server trusts the forwarded identity.
func ownerID(r *http.Request) string {
	return r.Header.Get("X-Owner-ID")
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.Error("encode response", errors.SlogError(err))
	}
}

func (app *application) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return false
	}
	return true
}
