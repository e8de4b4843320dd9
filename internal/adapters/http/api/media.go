package api

import (
	"io"
	"net/http"

	"github.com/kinesia/capture/internal/domain/session"
)

// Multipart form limits and field names.
const (
	maxMultipartMemory = 16 << 20
	fieldFile          = "file"
	fieldRole          = "role"
	fieldAngle         = "angle"
)

// handleAddMedia accepts one captured media item as multipart form data
// with fields file, role and optional angle.
func (s *Server) handleAddMedia(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_media"
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	role := session.MediaRole(r.FormValue(fieldRole))
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	file, header, err := r.FormFile(fieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	snap, err := s.deps.AddMedia(r.Context(), r.PathValue("id"), header.Filename, role, r.FormValue(fieldAngle), data)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleRemoveMedia(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove_media"
	snap, err := s.deps.RemoveMedia(r.Context(), r.PathValue("id"), r.PathValue("mediaID"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
