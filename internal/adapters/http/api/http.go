// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kinesia/capture/internal/adapters/directory"
	"github.com/kinesia/capture/internal/adapters/recordstore"
	"github.com/kinesia/capture/internal/app"
	"github.com/kinesia/capture/internal/domain/landmark"
	"github.com/kinesia/capture/internal/domain/session"
	"github.com/kinesia/capture/internal/upload"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Open(ctx context.Context, who upload.Principal, explicitTarget string) (*app.Snapshot, error)
	Get(ctx context.Context, sessionID string) (*app.Snapshot, error)
	SetTarget(ctx context.Context, sessionID, targetID string) (*app.Snapshot, error)
	ChooseKind(ctx context.Context, sessionID string, kind landmark.Kind) (*app.Snapshot, error)
	Next(ctx context.Context, sessionID string) (*app.Snapshot, error)
	Back(ctx context.Context, sessionID string, to session.Step) (*app.Snapshot, error)
	SetNote(ctx context.Context, sessionID, key, text string) (*app.Snapshot, error)
	AddMedia(ctx context.Context, sessionID, filename string, role session.MediaRole, angle string, data []byte) (*app.Snapshot, error)
	RemoveMedia(ctx context.Context, sessionID, mediaID string) (*app.Snapshot, error)
	Pointer(ctx context.Context, sessionID, viewID string, ev app.PointerEvent) (*app.Snapshot, error)
	Measurements(ctx context.Context, sessionID string) ([]app.ViewMeasurements, error)
	Submit(ctx context.Context, sessionID string, who upload.Principal) (recordstore.Assessment, error)
	Targets(ctx context.Context) ([]directory.Target, error)
	Assessment(ctx context.Context, id string) (recordstore.Assessment, error)
	Stats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the capture API.
type Server struct {
	deps Dependencies
}

// NewServer creates a new API server.
func NewServer(deps Dependencies) *Server {
	return &Server{deps: deps}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.handleStats, "stats"))
	mux.HandleFunc("GET /targets", MetricsMiddleware(s.handleTargets, "targets"))
	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.handleOpenSession, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.handleGetSession, "sessions"))
	mux.HandleFunc("POST /sessions/{id}/target", MetricsMiddleware(s.handleSetTarget, "session_target"))
	mux.HandleFunc("POST /sessions/{id}/kind", MetricsMiddleware(s.handleChooseKind, "session_kind"))
	mux.HandleFunc("POST /sessions/{id}/step", MetricsMiddleware(s.handleStep, "session_step"))
	mux.HandleFunc("POST /sessions/{id}/notes", MetricsMiddleware(s.handleSetNote, "session_notes"))
	mux.HandleFunc("POST /sessions/{id}/media", MetricsMiddleware(s.handleAddMedia, "session_media"))
	mux.HandleFunc("DELETE /sessions/{id}/media/{mediaID}", MetricsMiddleware(s.handleRemoveMedia, "session_media"))
	mux.HandleFunc("POST /sessions/{id}/views/{viewID}/pointer", MetricsMiddleware(s.handlePointer, "session_pointer"))
	mux.HandleFunc("GET /sessions/{id}/measurements", MetricsMiddleware(s.handleMeasurements, "session_measurements"))
	mux.HandleFunc("POST /sessions/{id}/submit", MetricsMiddleware(s.handleSubmit, "session_submit"))
	mux.HandleFunc("GET /assessments/{id}", MetricsMiddleware(s.handleGetAssessment, "assessments"))
}

// principal reads the identity context headers. The core only reads
// identity; authentication itself lives upstream.
func principal(r *http.Request) upload.Principal {
	return upload.Principal{
		UserID:         r.Header.Get("X-User-ID"),
		OrganisationID: r.Header.Get("X-Organisation-ID"),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service sentinel errors onto HTTP statuses. Every
// submission failure surfaces as one retriable message; partial state never
// leaks to the client.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, recordstore.ErrNotFound),
		errors.Is(err, directory.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, app.ErrSubmitInFlight):
		writeError(w, http.StatusConflict, "conflict", WrapKind(op, ErrConflict, err))
	case errors.Is(err, session.ErrStepGated),
		errors.Is(err, session.ErrAlreadyFinal),
		errors.Is(err, app.ErrNotReady):
		writeError(w, http.StatusUnprocessableEntity, "step_gated", WrapKind(op, ErrGated, err))
	case errors.Is(err, session.ErrUnknownKind),
		errors.Is(err, session.ErrUnknownView),
		errors.Is(err, session.ErrUnknownLandmark),
		errors.Is(err, session.ErrUnknownMedia),
		errors.Is(err, session.ErrBadStep),
		errors.Is(err, session.ErrNoKind),
		errors.Is(err, app.ErrUnknownTarget),
		errors.Is(err, app.ErrMediaTooLarge),
		errors.Is(err, app.ErrBadGesture):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusBadGateway, "submission_failed", WrapKind(op, ErrUpstream, err))
	}
}
