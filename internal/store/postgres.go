package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amandakfriis/photo-gallery-app/internal/models"
)

// Sentinel errors surfaced by the Postgres store. Handlers translate these
// to stable error kinds; raw pg errors never leave this package.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrNotFound          = errors.New("not found")
)

const (
	pgUniqueViolation = "23505"
	pgInvalidText     = "22P02" // e.g. a non-UUID photo id in the URL
)

// PostgresStore handles user and photo metadata CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and photos tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS photos (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id      UUID NOT NULL REFERENCES users(id),
			filename     VARCHAR(255) NOT NULL,
			object_key   VARCHAR(255) UNIQUE NOT NULL,
			content_type VARCHAR(100) NOT NULL DEFAULT 'application/octet-stream',
			size_bytes   BIGINT NOT NULL DEFAULT 0,
			uploaded_at  TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	return err
}

// CreateUser inserts a new user. A concurrent duplicate insert and a
// pre-existing duplicate both come back as the same unique-violation code,
// so callers cannot tell the two apart.
func (s *PostgresStore) CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password)
		 VALUES ($1, $2)
		 RETURNING id, username, created_at`,
		username, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreatePhoto inserts the metadata row for an already-stored object.
func (s *PostgresStore) CreatePhoto(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO photos (user_id, filename, object_key, content_type, size_bytes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, uploaded_at`,
		p.UserID, p.Filename, p.ObjectKey, p.ContentType, p.SizeBytes,
	).Scan(&p.ID, &p.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("create photo: %w", err)
	}
	return p, nil
}

// ListPhotos returns the user's photos, newest first, optionally filtered by
// a case-insensitive substring match on the display filename or locator.
func (s *PostgresStore) ListPhotos(ctx context.Context, userID, search string) ([]models.Photo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, filename, object_key, content_type, size_bytes, uploaded_at
		 FROM photos
		 WHERE user_id = $1 AND (filename ILIKE $2 OR object_key ILIKE $2)
		 ORDER BY uploaded_at DESC`,
		userID, "%"+search+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.UserID, &p.Filename, &p.ObjectKey,
			&p.ContentType, &p.SizeBytes, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("list photos: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// GetPhotoByKey resolves a locator to its metadata row, scoped to the owner.
func (s *PostgresStore) GetPhotoByKey(ctx context.Context, userID, objectKey string) (*models.Photo, error) {
	var p models.Photo
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, filename, object_key, content_type, size_bytes, uploaded_at
		 FROM photos WHERE user_id = $1 AND object_key = $2`,
		userID, objectKey,
	).Scan(&p.ID, &p.UserID, &p.Filename, &p.ObjectKey, &p.ContentType, &p.SizeBytes, &p.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &p, nil
}

// DeletePhoto removes the row for a photo owned by userID and returns its
// object key. The existence and ownership checks are a single predicate, so
// a missing photo and another user's photo are indistinguishable.
func (s *PostgresStore) DeletePhoto(ctx context.Context, userID, photoID string) (string, error) {
	var objectKey string
	err := s.pool.QueryRow(ctx,
		`DELETE FROM photos WHERE id = $1 AND user_id = $2 RETURNING object_key`,
		photoID, userID,
	).Scan(&objectKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("delete photo: %w", err)
	}
	return objectKey, nil
}

func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidText
}
