package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kinesia/capture/internal/domain/landmark"
	"github.com/kinesia/capture/internal/domain/session"
)

// openSessionRequest starts or resumes a capture session. TargetID is
// optional; when present a fresh session for that target is started instead
// of resuming a stored draft.
type openSessionRequest struct {
	TargetID string `json:"target_id,omitempty"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_session"
	var req openSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	snap, err := s.deps.Open(r.Context(), principal(r), strings.TrimSpace(req.TargetID))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	snap, err := s.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type setTargetRequest struct {
	TargetID string `json:"target_id"`
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_target"
	var req setTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.TargetID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	snap, err := s.deps.SetTarget(r.Context(), r.PathValue("id"), req.TargetID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type chooseKindRequest struct {
	Kind string `json:"kind"`
}

func (s *Server) handleChooseKind(w http.ResponseWriter, r *http.Request) {
	const op = "api.choose_kind"
	var req chooseKindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := s.deps.ChooseKind(r.Context(), r.PathValue("id"), landmark.Kind(req.Kind))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// stepRequest moves the wizard. Direction is "next" or "back"; back requires
// the destination step name.
type stepRequest struct {
	Direction string `json:"direction"`
	To        string `json:"to,omitempty"`
}

var stepNames = map[string]session.Step{
	"select_target":       session.StepSelectTarget,
	"choose_kind":         session.StepChooseKind,
	"capture_annotate":    session.StepCaptureAnnotate,
	"review_measurements": session.StepReviewMeasurements,
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	const op = "api.step"
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	switch req.Direction {
	case "next":
		snap, err := s.deps.Next(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case "back":
		to, ok := stepNames[req.To]
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		snap, err := s.deps.Back(r.Context(), r.PathValue("id"), to)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}

type setNoteRequest struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

func (s *Server) handleSetNote(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_note"
	var req setNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	snap, err := s.deps.SetNote(r.Context(), r.PathValue("id"), req.Key, req.Text)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
