// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository provides database access for the election service.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vinovest/sqlx"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// Repository wraps sqlx for database operations
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying sqlx DB for direct access
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// BeginTx starts a transaction. SQLite is opened with _txlock=immediate, so
// write transactions take the write lock up front instead of failing later.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// wrapError converts driver errors to repository errors
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation. modernc.org/sqlite exposes constraint failures only through the
// error text, so the check is string-based.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsBusy reports whether err indicates a locked or busy database, i.e. a
// transient condition the caller may retry.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
