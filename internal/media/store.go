package media

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"adspotly/internal/domain"

	"github.com/google/uuid"
)

// Store saves uploaded creative files under a local directory and hands
// out stable public URLs for them. It is the object-storage contract of
// the system: whatever URL it returns is safe to persist, and blob:
// values are rejected long before they get here.
type Store struct {
	dir        string
	publicPath string
	maxBytes   int64
}

// Allowed upload content types, by extension
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
	".webm": true,
}

// NewStore creates an upload store rooted at dir
func NewStore(dir, publicPath string, maxSizeMB int) (*Store, error) {
	cleanDir := filepath.Clean(dir)
	if err := os.MkdirAll(cleanDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Store{
		dir:        cleanDir,
		publicPath: strings.TrimSuffix(publicPath, "/"),
		maxBytes:   int64(maxSizeMB) * 1024 * 1024,
	}, nil
}

// Save stores the file and returns its public URL path. The stored name
// is a fresh UUID so uploads can never collide or overwrite each other.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	name := uuid.New().String() + ext
	dst := filepath.Join(s.dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.maxBytes {
		os.Remove(dst)
		return "", fmt.Errorf("upload exceeds %d bytes", s.maxBytes)
	}

	return s.publicPath + "/" + name, nil
}

// Dir returns the root directory files are stored under
func (s *Store) Dir() string {
	return s.dir
}

// ContentType guesses the content type for a stored file name
func ContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ValidateMediaURL rejects URLs that must never be persisted as media
// references. Empty is allowed: media fields are optional.
func ValidateMediaURL(u string) error {
	if domain.IsBlobURL(u) {
		return fmt.Errorf("blob: URLs are session-local and cannot be stored")
	}
	return nil
}
