package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FS хранит объекты файлами под root.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, fmt.Errorf("archive: fs root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{root: root}, nil
}

func (s *FS) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	k, err := cleanKey("", key)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	// запись через временный файл, чтобы не оставить половину отчёта
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return k, nil
}
