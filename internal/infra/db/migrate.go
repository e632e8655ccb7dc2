package db

import (
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib" // драйвер pgx для database/sql (нужен goose)
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate накатывает встроенные миграции.
func Migrate(dsn string) error {
	goose.SetBaseFS(migrations)
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}
