// Package archive stores exported report files on the local disk or in an
// S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/finadict/internal/core"
)

// Storage is a flat, name-addressed file store
type Storage interface {
	// Put stores data under name and returns where it landed
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)

	// Get retrieves the data stored under name
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns all names with the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether name is stored
	Exists(ctx context.Context, name string) (bool, error)
}

// Backends
const (
	BackendLocalFS = "localfs"
	BackendS3      = "s3"
)

// Config selects and configures a backend
type Config struct {
	Backend string
	Path    string
	S3      S3Config
}

// Open builds the configured backend
func Open(cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendLocalFS, "":
		return NewLocalFS(cfg.Path)
	case BackendS3:
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown export backend %q", cfg.Backend))
	}
}

// cleanName rejects names that would escape the store root
func cleanName(name string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(name, "/") {
		return "", core.WrapError(core.ErrInvalidInput, fmt.Errorf("invalid file name %q", name))
	}
	return cleaned, nil
}
