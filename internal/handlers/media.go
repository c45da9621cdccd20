package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/wememory/backend/internal/logging"
	"github.com/wememory/backend/internal/media"
)

// maxUploadBytes caps a single media upload request body.
const maxUploadBytes = 256 << 20

// MediaHandler accepts media uploads and returns their public URLs.
type MediaHandler struct {
	Uploader MediaUploader
	Sessions SessionService
}

// UploadImage handles POST /api/v1/media/images requests.
func (h MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, func(ctx context.Context, body io.Reader, opts media.UploadOptions) (string, error) {
		return h.Uploader.UploadImage(ctx, body, opts)
	})
}

// UploadVideo handles POST /api/v1/media/videos requests.
func (h MediaHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, func(ctx context.Context, body io.Reader, opts media.UploadOptions) (string, error) {
		return h.Uploader.UploadVideo(ctx, body, opts)
	})
}

func (h MediaHandler) upload(w http.ResponseWriter, r *http.Request, put func(context.Context, io.Reader, media.UploadOptions) (string, error)) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Uploader == nil {
		logger.Error("media uploader unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "media services unavailable"})
		return
	}

	_, user := viewerFromRequest(r, h.Sessions)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("invalid upload form", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a file field is required"})
		return
	}
	defer file.Close()

	opts := media.UploadOptions{
		ContentType: header.Header.Get("Content-Type"),
		Bucket:      r.FormValue("bucket"),
		Path:        r.FormValue("path"),
	}

	url, err := put(ctx, file, opts)
	if err != nil {
		if errors.Is(err, media.ErrInvalidMediaType) {
			respondJSON(ctx, w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
			return
		}
		logger.Error("media upload failed", "error", err, "userId", user.ID, "filename", header.Filename)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to store media"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, uploadResponse{URL: url})
}

type uploadResponse struct {
	URL string `json:"url"`
}
