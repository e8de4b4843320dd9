package api

import (
	"encoding/json"
	"net/http"

	"github.com/kinesia/capture/internal/app"
)

// handlePointer feeds one pointer gesture event into a view's annotation
// surface and returns the resulting session snapshot.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	const op = "api.pointer"
	var ev app.PointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := s.deps.Pointer(r.Context(), r.PathValue("id"), r.PathValue("viewID"), ev)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleMeasurements returns the measurements derivable from the landmarks
// placed so far. Views with missing inputs simply contribute fewer rows.
func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	const op = "api.measurements"
	out, err := s.deps.Measurements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
