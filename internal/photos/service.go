package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/amandakfriis/photo-gallery-app/internal/models"
)

// PhotoStore defines the interface for photo metadata persistence.
type PhotoStore interface {
	CreatePhoto(ctx context.Context, p *models.Photo) (*models.Photo, error)
	ListPhotos(ctx context.Context, userID, search string) ([]models.Photo, error)
	GetPhotoByKey(ctx context.Context, userID, objectKey string) (*models.Photo, error)
	DeletePhoto(ctx context.Context, userID, photoID string) (string, error)
}

// ObjectStore defines the interface for binary storage.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Service is the asset-store core: it keeps the object in binary storage and
// the metadata row describing it paired, without a cross-store transaction.
type Service struct {
	photos  PhotoStore
	objects ObjectStore
	log     *slog.Logger
}

func NewService(photos PhotoStore, objects ObjectStore, log *slog.Logger) *Service {
	return &Service{photos: photos, objects: objects, log: log}
}

// StorePhoto writes the payload to the object store under a fresh
// server-generated key, then inserts the metadata row. The row is only
// inserted after the object write has been confirmed; if the insert fails
// the object is removed again so neither half outlives the other. The
// client-supplied filename is kept as display metadata only.
func (s *Service) StorePhoto(ctx context.Context, userID, filename string, payload []byte) (*models.Photo, error) {
	key := uuid.New().String() + safeExt(filename)
	contentType := http.DetectContentType(payload)

	if err := s.objects.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), contentType); err != nil {
		return nil, fmt.Errorf("store object %s: %w", key, err)
	}

	photo := &models.Photo{
		UserID:      userID,
		Filename:    filepath.Base(filename),
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
	}
	saved, err := s.photos.CreatePhoto(ctx, photo)
	if err != nil {
		// Compensating action: the row never existed, so the object must go too.
		if rmErr := s.objects.Remove(ctx, key); rmErr != nil {
			s.log.Error("orphaned object after failed metadata insert",
				"object_key", key, "error", rmErr)
		}
		return nil, fmt.Errorf("store metadata %s: %w", key, err)
	}
	return saved, nil
}

// List returns the user's photos, newest first, optionally filtered by a
// case-insensitive filename/locator substring. No matches is an empty slice,
// not an error.
func (s *Service) List(ctx context.Context, userID, search string) ([]models.Photo, error) {
	photos, err := s.photos.ListPhotos(ctx, userID, search)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

// Download resolves a locator to the owner's photo and returns its metadata
// and payload. Locators belonging to other users look exactly like missing
// ones.
func (s *Service) Download(ctx context.Context, userID, objectKey string) (*models.Photo, []byte, error) {
	photo, err := s.photos.GetPhotoByKey(ctx, userID, objectKey)
	if err != nil {
		return nil, nil, err
	}
	data, _, err := s.objects.Download(ctx, photo.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("read object %s: %w", photo.ObjectKey, err)
	}
	return photo, data, nil
}

// Delete removes the metadata row first, then the object. If the object
// removal fails the deletion still succeeds: the row deletion is committed
// and is never reversed, the leaked object is logged for reconciliation.
func (s *Service) Delete(ctx context.Context, userID, photoID string) error {
	objectKey, err := s.photos.DeletePhoto(ctx, userID, photoID)
	if err != nil {
		return err
	}
	if err := s.objects.Remove(ctx, objectKey); err != nil {
		s.log.Error("object removal failed after row delete",
			"object_key", objectKey, "error", err)
	}
	return nil
}

// safeExt extracts a plain lowercase extension from the client filename for
// the object key. Anything unusual degrades to no extension; the client name
// never reaches storage.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
