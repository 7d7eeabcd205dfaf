package models

import "time"

// Photo is the metadata row for one stored image. ObjectKey is the
// server-generated locator of the binary in the object store; Filename is
// the client-supplied name kept for display only and never used as a
// storage key.
type Photo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Filename    string    `json:"filename"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
