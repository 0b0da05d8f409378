package model

import "time"

// DocumentVersion is an immutable snapshot record of a document's content metadata.
// VersionNumber is gapless per document and starts at 1.
type DocumentVersion struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	VersionNumber int       `json:"version_number"`
	StorageKey    string    `json:"storage_key"`
	Size          int64     `json:"size"`
	Comment       *string   `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}
