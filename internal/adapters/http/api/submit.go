package api

import "net/http"

// handleSubmit runs the submission batch. On any upload failure the whole
// submission fails, the draft is retained, and the client receives a single
// retriable error.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	rec, err := s.deps.Submit(r.Context(), r.PathValue("id"), principal(r))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessment"
	rec, err := s.deps.Assessment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
