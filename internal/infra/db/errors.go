package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrConflict   = errors.New("already exists")
	ErrReferenced = errors.New("is still referenced")
	ErrBadRef     = errors.New("references a missing record")
	ErrCheck      = errors.New("violates a constraint")
)

// Translate переводит ошибки Postgres (SQLSTATE) записи в ошибки пакета:
// нарушение внешнего ключа при вставке или обновлении — ErrBadRef.
// Остальные ошибки возвращаются как есть.
func Translate(err error) error {
	return translate(err, ErrBadRef)
}

// TranslateDelete — то же для DELETE: нарушение внешнего ключа значит,
// что на строку ещё ссылаются (ErrReferenced).
func TranslateDelete(err error) error {
	return translate(err, ErrReferenced)
}

func translate(err error, foreignKey error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%s: %w", constraintLabel(pgErr), ErrConflict)
	case "23503":
		return fmt.Errorf("%s: %w", constraintLabel(pgErr), foreignKey)
	case "23514", "23502":
		return fmt.Errorf("%s: %w", constraintLabel(pgErr), ErrCheck)
	}
	return err
}

func constraintLabel(e *pgconn.PgError) string {
	if e.ConstraintName != "" {
		return e.ConstraintName
	}
	if e.TableName != "" {
		return e.TableName
	}
	return "record"
}
