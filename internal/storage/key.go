package storage

import (
	"fmt"
	"strings"
)

// NormalizeKey strips an accidental leading slash and bucket-name prefix from a stored key.
// Older code paths persisted keys as "/k", "bucket/k" or "/bucket/k"; the backend only knows "k".
// At most one slash and one bucket prefix are removed.
func NormalizeKey(bucket, key string) string {
	key = strings.TrimPrefix(key, "/")
	if bucket != "" {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	return key
}

// OwnerKey is the document key allocated at upload initiation. It lives under the owner's
// prefix so key spaces of different users never overlap.
func OwnerKey(ownerID, documentID string) string {
	return fmt.Sprintf("users/%s/%s", ownerID, documentID)
}

// VersionKey is where the bytes of committed version n of a document are kept.
func VersionKey(documentKey string, n int) string {
	return fmt.Sprintf("%s/v%d", documentKey, n)
}
