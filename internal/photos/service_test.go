package photos

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amandakfriis/photo-gallery-app/internal/models"
	"github.com/amandakfriis/photo-gallery-app/internal/store"
)

// --- fakes ---

type fakePhotoStore struct {
	createErr error
	created   []*models.Photo

	listOut []models.Photo
	listErr error

	getOut *models.Photo
	getErr error

	deleteKey string
	deleteErr error
	deleted   []string
}

func (f *fakePhotoStore) CreatePhoto(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = "photo-1"
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePhotoStore) ListPhotos(ctx context.Context, userID, search string) ([]models.Photo, error) {
	return f.listOut, f.listErr
}

func (f *fakePhotoStore) GetPhotoByKey(ctx context.Context, userID, objectKey string) (*models.Photo, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakePhotoStore) DeletePhoto(ctx context.Context, userID, photoID string) (string, error) {
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	f.deleted = append(f.deleted, photoID)
	return f.deleteKey, nil
}

type fakeObjectStore struct {
	uploadErr error
	removeErr error

	objects map[string][]byte
	removed []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", errors.New("no such object")
	}
	return data, "image/png", nil
}

func (f *fakeObjectStore) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

func newTestService(photos *fakePhotoStore, objects *fakeObjectStore) *Service {
	return NewService(photos, objects, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- tests ---

func TestStorePhoto_PairsObjectAndRow(t *testing.T) {
	ps := &fakePhotoStore{}
	os := newFakeObjectStore()
	svc := newTestService(ps, os)

	payload := []byte("0123456789")
	photo, err := svc.StorePhoto(context.Background(), "user-1", "cat.png", payload)
	require.NoError(t, err)

	require.Len(t, ps.created, 1)
	assert.Equal(t, "user-1", photo.UserID)
	assert.Equal(t, "cat.png", photo.Filename)
	assert.Equal(t, int64(len(payload)), photo.SizeBytes)

	// The locator is server-generated: carries the extension, not the name.
	assert.NotEqual(t, "cat.png", photo.ObjectKey)
	assert.True(t, strings.HasSuffix(photo.ObjectKey, ".png"))

	stored, ok := os.objects[photo.ObjectKey]
	require.True(t, ok, "object must exist under the row's locator")
	assert.Equal(t, payload, stored)
}

func TestStorePhoto_DistinctLocatorsForSameName(t *testing.T) {
	ps := &fakePhotoStore{}
	os := newFakeObjectStore()
	svc := newTestService(ps, os)

	a, err := svc.StorePhoto(context.Background(), "user-1", "cat.png", []byte("a"))
	require.NoError(t, err)
	b, err := svc.StorePhoto(context.Background(), "user-1", "cat.png", []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ObjectKey, b.ObjectKey)
	assert.Len(t, os.objects, 2)
}

func TestStorePhoto_ObjectWriteFails(t *testing.T) {
	ps := &fakePhotoStore{}
	os := newFakeObjectStore()
	os.uploadErr = errors.New("disk full")
	svc := newTestService(ps, os)

	_, err := svc.StorePhoto(context.Background(), "user-1", "cat.png", []byte("x"))
	require.Error(t, err)
	assert.Empty(t, ps.created, "no row without an object")
}

func TestStorePhoto_CompensatesOnMetadataFailure(t *testing.T) {
	ps := &fakePhotoStore{createErr: errors.New("insert failed")}
	os := newFakeObjectStore()
	svc := newTestService(ps, os)

	_, err := svc.StorePhoto(context.Background(), "user-1", "cat.png", []byte("x"))
	require.Error(t, err)

	require.Len(t, os.removed, 1, "orphaned object must be removed")
	assert.Empty(t, os.objects, "no object without a row")
}

func TestStorePhoto_CompensationFailureStillErrors(t *testing.T) {
	ps := &fakePhotoStore{createErr: errors.New("insert failed")}
	os := newFakeObjectStore()
	os.removeErr = errors.New("remove failed")
	svc := newTestService(ps, os)

	_, err := svc.StorePhoto(context.Background(), "user-1", "cat.png", []byte("x"))
	require.Error(t, err)
	assert.Len(t, os.removed, 1)
}

func TestStoreThenDownload_RoundTrips(t *testing.T) {
	ps := &fakePhotoStore{}
	os := newFakeObjectStore()
	svc := newTestService(ps, os)

	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}
	photo, err := svc.StorePhoto(context.Background(), "user-1", "cat.png", payload)
	require.NoError(t, err)

	ps.getOut = photo
	_, data, err := svc.Download(context.Background(), "user-1", photo.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownload_UnknownLocator(t *testing.T) {
	ps := &fakePhotoStore{getErr: store.ErrNotFound}
	svc := newTestService(ps, newFakeObjectStore())

	_, _, err := svc.Download(context.Background(), "user-1", "nope.png")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	ps := &fakePhotoStore{}
	svc := newTestService(ps, newFakeObjectStore())

	photos, err := svc.List(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.NotNil(t, photos)
	assert.Empty(t, photos)
}

func TestDelete_RemovesRowThenObject(t *testing.T) {
	ps := &fakePhotoStore{deleteKey: "key-1.png"}
	os := newFakeObjectStore()
	os.objects["key-1.png"] = []byte("x")
	svc := newTestService(ps, os)

	err := svc.Delete(context.Background(), "user-1", "photo-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"photo-1"}, ps.deleted)
	assert.Empty(t, os.objects)
}

func TestDelete_NotOwned(t *testing.T) {
	ps := &fakePhotoStore{deleteErr: store.ErrNotFound}
	os := newFakeObjectStore()
	svc := newTestService(ps, os)

	err := svc.Delete(context.Background(), "user-2", "photo-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, os.removed, "no object touched when the row check fails")
}

func TestDelete_ObjectRemovalFailureStillSucceeds(t *testing.T) {
	ps := &fakePhotoStore{deleteKey: "key-1.png"}
	os := newFakeObjectStore()
	os.removeErr = errors.New("storage down")
	svc := newTestService(ps, os)

	// The row delete is committed; the leaked object is logged, never
	// resurrected as a row.
	err := svc.Delete(context.Background(), "user-1", "photo-1")
	assert.NoError(t, err)
}

func TestSafeExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat.png", ".png"},
		{"CAT.JPG", ".jpg"},
		{"archive.tar.gz", ".gz"},
		{"noext", ""},
		{"../../etc/passwd", ""},
		{"weird.p ng", ""},
		{"dot.", ""},
		{"x.verylongextension", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeExt(tt.in), "safeExt(%q)", tt.in)
	}
}
