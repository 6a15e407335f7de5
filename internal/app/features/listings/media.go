// internal/app/features/listings/media.go
package listings

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ufarent/ufarent/internal/app/lifecycle"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/gates"
	"github.com/ufarent/ufarent/internal/app/system/inputval"
	"github.com/ufarent/ufarent/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single media upload request.
const maxUploadBytes = 100 << 20 // 100 MiB

var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var videoTypes = map[string]bool{
	"video/mp4":  true,
	"video/webm": true,
}

type mediaResponse struct {
	OK     bool     `json:"ok"`
	Reason string   `json:"reason,omitempty"`
	Photos []string `json:"photos,omitempty"`
	Videos []string `json:"videos,omitempty"`
}

// HandleMediaUpload handles POST /listings/{id}/media: a multipart form with
// "photos" and "videos" file fields. Files go to storage under
// listings/<listingID>/<uuid8>-<filename>, and the stored paths are appended
// to the listing in upload order.
func (h *Handler) HandleMediaUpload(w http.ResponseWriter, r *http.Request) {
	info := gates.RequireAuth(w, r, "/login")
	if !info.OK {
		return
	}

	id := chi.URLParam(r, "id")
	if !inputval.IsValidUUID(id) {
		writeJSON(w, http.StatusBadRequest, mediaResponse{OK: false, Reason: "bad listing id"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, mediaResponse{OK: false, Reason: "invalid multipart form"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var photos, videos []string

	for _, fh := range r.MultipartForm.File["photos"] {
		path, err := h.storeFile(ctx, id, fh, photoTypes)
		if err != nil {
			h.Log.Warn("photo upload rejected", zap.String("listing_id", id), zap.Error(err))
			writeJSON(w, http.StatusBadRequest, mediaResponse{OK: false, Reason: err.Error()})
			return
		}
		photos = append(photos, path)
	}
	for _, fh := range r.MultipartForm.File["videos"] {
		path, err := h.storeFile(ctx, id, fh, videoTypes)
		if err != nil {
			h.Log.Warn("video upload rejected", zap.String("listing_id", id), zap.Error(err))
			writeJSON(w, http.StatusBadRequest, mediaResponse{OK: false, Reason: err.Error()})
			return
		}
		videos = append(videos, path)
	}

	if len(photos) == 0 && len(videos) == 0 {
		writeJSON(w, http.StatusBadRequest, mediaResponse{OK: false, Reason: "no files supplied"})
		return
	}

	caller := lifecycle.Caller{UserID: info.UserID.Hex(), Elevated: authz.IsAdmin(r)}
	if err := h.Lifecycle.AttachMedia(ctx, id, photos, videos, caller); err != nil {
		h.writeLifecycleError(w, r, err, "attach media")
		return
	}

	h.AuditLog.MediaUploaded(ctx, r, info.UserID, id, "mixed", len(photos)+len(videos))
	writeJSON(w, http.StatusOK, mediaResponse{OK: true, Photos: photos, Videos: videos})
}

// storeFile uploads one file and returns its storage path.
func (h *Handler) storeFile(ctx context.Context, listingID string, fh *multipart.FileHeader, allowed map[string]bool) (string, error) {
	contentType := fh.Header.Get("Content-Type")
	if !allowed[contentType] {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(fh.Filename))
	path := fmt.Sprintf("listings/%s/%s", listingID, name)

	opts := &storage.PutOptions{ContentType: contentType}
	if err := h.Storage.Put(ctx, path, f, opts); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path, nil
}

// sanitizeFilename strips path components and replaces characters that could
// be problematic in storage keys.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	var b strings.Builder
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}

	s := b.String()
	if s == "" || s == "." {
		return "file"
	}
	if len(s) > 100 {
		ext := filepath.Ext(s)
		if len(ext) > 0 && len(ext) < 10 {
			s = s[:100-len(ext)] + ext
		} else {
			s = s[:100]
		}
	}
	return s
}
