package sqlite

import (
	"errors"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/travel-journal/internal/apperror"
)

// constraintKind classifies a driver error as a constraint violation.
type constraintKind int

const (
	notConstraint constraintKind = iota
	uniqueViolation
	foreignKeyViolation
)

// classify inspects err for a SQLite constraint failure.
//
// The driver reports extended result codes (SQLITE_CONSTRAINT_UNIQUE etc.).
// The message text is checked as well since some statements only surface the
// primary SQLITE_CONSTRAINT code.
func classify(err error) constraintKind {
	var sqlErr *sqlitedrv.Error
	if !errors.As(err, &sqlErr) {
		return notConstraint
	}

	switch sqlErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return uniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return foreignKeyViolation
	}

	msg := sqlErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return uniqueViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyViolation
	}
	return notConstraint
}

// uniqueColumn extracts the column from "UNIQUE constraint failed: users.login".
func uniqueColumn(err error) string {
	msg := err.Error()
	_, after, found := strings.Cut(msg, "UNIQUE constraint failed: ")
	if !found {
		return ""
	}
	col := after
	if i := strings.IndexAny(col, " ,)"); i >= 0 {
		col = col[:i]
	}
	if _, name, ok := strings.Cut(col, "."); ok {
		col = name
	}
	return col
}

// conflictError maps a constraint failure on resource/id to apperror.Conflict.
// It returns nil when err is not a constraint violation.
func conflictError(err error, resource, id string) *apperror.AppError {
	switch classify(err) {
	case uniqueViolation:
		appErr := apperror.Conflict(resource, id)
		appErr.Field = uniqueColumn(err)
		if appErr.Field != "" {
			appErr.Message = resource + " " + appErr.Field + " already exists"
		}
		return appErr.WithDetail(err.Error())
	case foreignKeyViolation:
		appErr := apperror.Conflict(resource, id)
		appErr.Message = resource + " is still referenced by other records"
		return appErr.WithDetail(err.Error())
	}
	return nil
}
