package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFS stores files under a base directory
type LocalFS struct {
	basePath string
}

// NewLocalFS creates the base directory if needed
func NewLocalFS(basePath string) (*LocalFS, error) {
	if basePath == "" {
		basePath = "."
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &LocalFS{basePath: basePath}, nil
}

func (l *LocalFS) fullPath(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.basePath, filepath.FromSlash(cleaned)), nil
}

func (l *LocalFS) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	full, err := l.fullPath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("creating directories: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", err
	}
	return full, nil
}

func (l *LocalFS) Get(ctx context.Context, name string) ([]byte, error) {
	full, err := l.fullPath(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.Walk(l.basePath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(rel) >= len(prefix) && rel[:len(prefix)] == prefix {
			names = append(names, rel)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	return names, err
}

func (l *LocalFS) Exists(ctx context.Context, name string) (bool, error) {
	full, err := l.fullPath(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
