package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Store is the handle every service receives at construction. All reads
// and writes go through it; a Store obtained inside Transaction is bound to
// that transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for ad-hoc reporting queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) WithContext(ctx context.Context) *Store {
	if ctx == nil {
		return s
	}
	return &Store{db: s.db.WithContext(ctx)}
}

// Transaction runs fn inside one atomic unit. Any error returned by fn
// rolls back every write made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.WithContext(ctx).db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Savepoint runs fn in a nested transaction so a failed statement can be
// retried without aborting the enclosing unit.
func (s *Store) Savepoint(fn func(sp *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// IsDuplicate reports whether err is a unique constraint violation.
// Drivers that do not translate errors are matched on their message.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
