// Package handler provides HTTP handlers for the Faculty Files API.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/service"
)

// S3 actions.
const (
	ActionUpload       = "upload"
	ActionDownload     = "download"
	ActionDelete       = "delete"
	ActionGetSignedURL = "get-signed-url"
)

// ValidActions lists every action accepted by POST /api/s3/{action}.
var ValidActions = []string{ActionUpload, ActionDownload, ActionDelete, ActionGetSignedURL}

// S3Handler serves POST /api/s3/{action}.
type S3Handler struct {
	storage *service.StorageService
	uploads *service.UploadService
	logger  zerolog.Logger
}

// NewS3Handler creates a new S3Handler.
func NewS3Handler(storage *service.StorageService, uploads *service.UploadService, logger zerolog.Logger) *S3Handler {
	return &S3Handler{
		storage: storage,
		uploads: uploads,
		logger:  logger.With().Str("handler", "s3").Logger(),
	}
}

type invalidActionResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ValidActions []string `json:"validActions"`
}

type downloadResponse struct {
	Success     bool   `json:"success"`
	FileBase64  string `json:"fileBase64,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Message     string `json:"message"`
}

// HandleAction dispatches on the {action} path parameter.
func (h *S3Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	switch action {
	case ActionUpload, ActionDownload, ActionDelete, ActionGetSignedURL:
	default:
		writeJSON(w, http.StatusBadRequest, invalidActionResponse{
			Message:      "Invalid action: " + action + ". Valid actions: " + strings.Join(ValidActions, ", "),
			ValidActions: ValidActions,
		})
		return
	}

	var req s3Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.logger.Debug().Err(err).Str("action", action).Msg("invalid request body")
		writeMessage(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	switch action {
	case ActionUpload:
		h.upload(w, r, &req)
	case ActionDownload:
		h.download(w, r, &req)
	case ActionDelete:
		h.delete(w, r, &req)
	case ActionGetSignedURL:
		h.signedURL(w, r, &req)
	}
}

func (h *S3Handler) upload(w http.ResponseWriter, r *http.Request, req *s3Request) {
	result := h.uploads.Upload(r.Context(), service.UploadRequest{
		FileBase64: req.FileBase64,
		FileName:   req.FileName,
		Pattern: domain.PatternFields{
			PatternType:   int(req.PatternType),
			UserID:        int64(req.UserID),
			RecordID:      int64(req.RecordID),
			FileNum:       int64(req.FileNum),
			Email:         req.Email,
			MetricName:    req.MetricName,
			FolderName:    req.FolderName,
			FileExtension: req.FileExtension,
		},
		ContentType: req.ContentType,
		Actor:       actorFrom(r, req),
	})

	writeJSON(w, statusFor(result.Success, http.StatusBadRequest), result)
}

func (h *S3Handler) download(w http.ResponseWriter, r *http.Request, req *s3Request) {
	result := h.storage.Download(r.Context(), req.VirtualPath)

	resp := downloadResponse{
		Success:     result.Success,
		ContentType: result.ContentType,
		Message:     result.Message,
	}
	if result.Success {
		resp.FileBase64 = base64.StdEncoding.EncodeToString(result.Data)
	}

	writeJSON(w, statusFor(result.Success, http.StatusNotFound), resp)
}

func (h *S3Handler) delete(w http.ResponseWriter, r *http.Request, req *s3Request) {
	result := h.uploads.Delete(r.Context(), service.DeleteRequest{
		VirtualPath: req.VirtualPath,
		Actor:       actorFrom(r, req),
	})

	writeJSON(w, statusFor(result.Success, http.StatusBadRequest), result)
}

func (h *S3Handler) signedURL(w http.ResponseWriter, r *http.Request, req *s3Request) {
	if req.ExpiresIn < 0 {
		writeMessage(w, http.StatusBadRequest, "expiresIn must be a positive number of seconds")
		return
	}
	// Compared in seconds so huge values cannot overflow the Duration.
	if int64(req.ExpiresIn) > int64(service.MaxSignedURLExpiry/time.Second) {
		writeMessage(w, http.StatusBadRequest, "expiresIn must not exceed 7 days")
		return
	}
	expiresIn := time.Duration(req.ExpiresIn) * time.Second

	result := h.storage.SignedURL(r.Context(), req.VirtualPath, expiresIn)
	writeJSON(w, statusFor(result.Success, http.StatusBadRequest), result)
}

func actorFrom(r *http.Request, req *s3Request) service.Actor {
	actor := service.Actor{
		SessionToken: auth.GetToken(r.Context()),
		UserID:       req.userID(),
	}
	if identity, ok := auth.GetIdentity(r.Context()); ok {
		actor.Identity = identity
	}
	return actor
}

func statusFor(success bool, failure int) int {
	if success {
		return http.StatusOK
	}
	return failure
}
