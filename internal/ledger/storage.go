package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// newObjectName generates a collision-free object name
func newObjectName() string {
	return uuid.NewString()
}

// StoredObject identifies a stored receipt image and where to retrieve it
type StoredObject struct {
	Key string
	URL string
}

// Storage defines the interface for receipt image storage
type Storage interface {
	// Store saves receipt bytes under the owner's namespace and returns a
	// key for later deletion plus a retrieval URL
	Store(ownerID string, data []byte, contentType string) (StoredObject, error)

	// Get retrieves stored bytes by key
	Get(key string) ([]byte, error)

	// Delete removes a stored object by key
	Delete(key string) error
}

// LocalStorage implements the Storage interface on the local filesystem,
// with one directory per owner.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// extensionFor maps a content type to a file extension
func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/heic", "image/heif":
		return ".heic"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}

// Store saves a receipt image under receipts/<owner>/<name>
func (l *LocalStorage) Store(ownerID string, data []byte, contentType string) (StoredObject, error) {
	name := fmt.Sprintf("%s%s", newObjectName(), extensionFor(contentType))
	key := filepath.Join(ownerID, name)

	dir := filepath.Join(l.basePath, ownerID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return StoredObject{}, fmt.Errorf("creating owner directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return StoredObject{}, fmt.Errorf("writing file: %w", err)
	}

	return StoredObject{
		Key: key,
		URL: "/api/receipts/" + filepath.ToSlash(key),
	}, nil
}

// Get retrieves a stored object by key
func (l *LocalStorage) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, key))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a stored object by key
func (l *LocalStorage) Delete(key string) error {
	if err := os.Remove(filepath.Join(l.basePath, key)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
