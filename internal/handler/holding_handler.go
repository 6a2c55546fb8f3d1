package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/holding"
)

// multipartMemory is how much of a multipart body is kept in memory.
const multipartMemory = 8 << 20

// HoldingWriter places client uploads in the holding area.
type HoldingWriter interface {
	Put(ctx context.Context, r io.Reader, originalName string) (string, error)
}

// HoldingHandler serves POST /api/holding.
type HoldingHandler struct {
	store  HoldingWriter
	logger zerolog.Logger
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(store HoldingWriter, logger zerolog.Logger) *HoldingHandler {
	return &HoldingHandler{
		store:  store,
		logger: logger.With().Str("handler", "holding").Logger(),
	}
}

type holdingResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName,omitempty"`
	Message  string `json:"message"`
}

// HandleUpload stores the multipart "file" field and returns the name to
// pass as fileName to the upload action.
func (h *HoldingHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, holdingResponse{Message: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, holdingResponse{Message: "Expected a multipart form with a file field"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, holdingResponse{Message: "Missing file field"})
		return
	}
	defer file.Close()

	name, err := h.store.Put(r.Context(), file, header.Filename)
	switch {
	case err == nil:
	case errors.Is(err, holding.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, holdingResponse{Message: err.Error()})
		return
	case errors.Is(err, holding.ErrEmpty):
		writeJSON(w, http.StatusBadRequest, holdingResponse{Message: err.Error()})
		return
	default:
		h.logger.Error().Err(err).Msg("failed to store holding file")
		writeJSON(w, http.StatusInternalServerError, holdingResponse{Message: "Failed to store file"})
		return
	}

	writeJSON(w, http.StatusOK, holdingResponse{
		Success:  true,
		FileName: name,
		Message:  "File received",
	})
}
