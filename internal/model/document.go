package model

import "time"

// Document is one logical file owned by exactly one user.
// StorageKey is assigned once at creation and never changes; committed versions may live under
// their own keys (see DocumentVersion.StorageKey).
type Document struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	FolderID         *string   `json:"folder_id"`
	Name             string    `json:"name"`
	MimeType         string    `json:"mime_type"`
	Size             int64     `json:"size"`
	StorageKey       string    `json:"storage_key"`
	Checksum         *string   `json:"checksum"`
	IsDeleted        bool      `json:"is_deleted"`
	CurrentVersionID *string   `json:"current_version_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Pending reports whether no version has been committed yet.
func (d *Document) Pending() bool {
	return d.CurrentVersionID == nil
}

// UploadTicket is returned when an upload is initiated: the document record plus a
// time-limited write URL bound to the document's storage key.
type UploadTicket struct {
	Document  *Document `json:"document"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
