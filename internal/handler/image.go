package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yaqa/yaqa/internal/ctxkeys"
	"github.com/yaqa/yaqa/internal/logger"
	"github.com/yaqa/yaqa/internal/service"
	"github.com/yaqa/yaqa/internal/validation"
)

type imageHandler struct {
	imageService *service.ImageService
	maxSize      int64
	cacheTTL     time.Duration
}

func NewImageHandler(imageService *service.ImageService, maxSize int64, cacheTTL time.Duration) *imageHandler {
	return &imageHandler{
		imageService: imageService,
		maxSize:      maxSize,
		cacheTTL:     cacheTTL,
	}
}

type uploadResponse struct {
	ID          int64  `json:"id"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// Upload accepts a multipart form with a "file" field or a raw image body.
func (h *imageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+(1<<20))

	var content io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, validation.Error("multipart field \"file\" is required"))
			return
		}
		defer func() { _ = file.Close() }()
		content = file
	}

	image, err := h.imageService.Upload(r.Context(), ctxkeys.User(r.Context()), content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		ID:          image.ID,
		ContentType: image.ContentType,
		Size:        image.Size,
		URL:         fmt.Sprintf("/images/%d", image.ID),
	})
}

// Serve streams an image. Image content never changes, so it may be cached
// for a long time.
func (h *imageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	url, ok, err := h.imageService.RedirectURL(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	image, rc, err := h.imageService.Open(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(image.Size, 10))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", int64(h.cacheTTL.Seconds())))
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, rc)
	if err != nil {
		logger.FromContext(r.Context()).Warn("failed to stream image", "image_id", id, "error", err)
	}
}
