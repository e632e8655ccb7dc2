// Package archive сохраняет сформированные отчёты в каталог или S3-совместимое хранилище.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Store сохраняет объект и возвращает его итоговый ключ.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type Config struct {
	Driver    string // none|fs|s3
	Dir       string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	Prefix    string
	AccessKey string
	SecretKey string
}

// Open выбирает драйвер; для none возвращает nil, nil.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "fs":
		return NewFS(cfg.Dir)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("archive: unknown driver %q", cfg.Driver)
	}
}

// BomKey — ключ выгрузки расчёта BOM: bom/<id>/<timestamp>.xlsx.
func BomKey(bomID int64, at time.Time) string {
	return fmt.Sprintf("bom/%d/%s.xlsx", bomID, at.UTC().Format("20060102T150405Z"))
}

// cleanKey не даёт ключу выйти за корень хранилища.
func cleanKey(prefix, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("archive: empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("archive: invalid key %q", key)
	}
	return path.Join(strings.Trim(prefix, "/"), path.Clean(key)), nil
}
