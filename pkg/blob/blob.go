// Package blob stores raw artifact bytes. Keys are tenant-scoped so one
// tenant can never read another's objects.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Store is the raw byte storage behind ingested artifacts.
type Store interface {
	// Put writes the object, replacing any previous content under the key.
	Put(ctx context.Context, tenantID, key string, data []byte, contentType string) error

	// Get returns the object bytes.
	Get(ctx context.Context, tenantID, key string) ([]byte, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, tenantID, key string) error

	// Exists reports whether the key holds an object.
	Exists(ctx context.Context, tenantID, key string) (bool, error)
}

// objectKey builds the storage key for a tenant-scoped object.
func objectKey(tenantID, key string) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant ID required")
	}
	if key == "" {
		return "", fmt.Errorf("object key required")
	}
	cleaned := path.Clean(sanitizeKey(key))
	if strings.HasPrefix(cleaned, "..") || path.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return path.Join(sanitizeKey(tenantID), cleaned), nil
}

// sanitizeKey replaces characters that are problematic in object keys.
func sanitizeKey(name string) string {
	name = strings.ReplaceAll(name, " ", "-")
	replacer := strings.NewReplacer(
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "",
		"<", "-",
		">", "-",
		"|", "-",
	)
	return replacer.Replace(name)
}
