package photos

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amandakfriis/photo-gallery-app/internal/middleware"
	"github.com/amandakfriis/photo-gallery-app/internal/store"
	"github.com/amandakfriis/photo-gallery-app/internal/web"
)

// Handler exposes the asset store over HTTP. Every route is mounted behind
// the session middleware, so the user id is always present in the context.
type Handler struct {
	svc            *Service
	maxUploadBytes int64
	log            *slog.Logger
}

func NewHandler(svc *Service, maxUploadBytes int64, log *slog.Logger) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes, log: log}
}

// Upload stores the multipart "photo" field as a new photo.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		web.Error(w, http.StatusBadRequest, web.KindInvalidRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		web.Error(w, http.StatusBadRequest, web.KindInvalidRequest, `multipart field "photo" is required`)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		web.Error(w, http.StatusBadRequest, web.KindInvalidRequest, "could not read upload")
		return
	}

	photo, err := h.svc.StorePhoto(r.Context(), userID, header.Filename, payload)
	if err != nil {
		h.log.Error("upload failed", "user_id", userID, "error", err)
		web.Error(w, http.StatusInternalServerError, web.KindUploadFailed, "upload failed")
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "photo": photo})
}

// List returns the user's photos, optionally filtered by ?search=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	photos, err := h.svc.List(r.Context(), userID, r.URL.Query().Get("search"))
	if err != nil {
		h.log.Error("list failed", "user_id", userID, "error", err)
		web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
		return
	}

	web.JSON(w, http.StatusOK, photos)
}

// Download streams a photo back by its locator.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	key := chi.URLParam(r, "filename")

	photo, data, err := h.svc.Download(r.Context(), userID, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, http.StatusNotFound, web.KindNotFound, "photo not found")
			return
		}
		h.log.Error("download failed", "user_id", userID, "object_key", key, "error", err)
		web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
		return
	}

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", photo.Filename))
	w.Write(data)
}

// Delete removes a photo by id. A photo that doesn't exist and a photo owned
// by someone else get the same 404.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	photoID := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), userID, photoID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, http.StatusNotFound, web.KindNotFound, "photo not found")
			return
		}
		h.log.Error("delete failed", "user_id", userID, "photo_id", photoID, "error", err)
		web.Error(w, http.StatusInternalServerError, web.KindInternal, "internal error")
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
