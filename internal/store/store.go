// Package store is the persistent home of users, groups, posts, comments and
// follow edges. It owns referential integrity: deletes follow the policies in
// models.Relations.
package store

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/sujalbistaa/yatube/internal/errors"
)

// Store wraps a gorm database.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for pub_date and created stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store over database.
func New(database *gorm.DB, opts ...Option) *Store {
	s := &Store{db: database, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns a session bound to ctx.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFoundOr(err error, what string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.New(apperrors.ErrNotFound, what+" not found")
	}
	return apperrors.Wrap(apperrors.ErrDatabase, "failed to load "+what, err)
}

// isUniqueViolation matches the messages of both supported drivers.
func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
