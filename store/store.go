// Package store owns all persistence for requests, submissions, settings
// and the rewards ledger. Every operation runs against an explicitly passed
// Store handle; there is no package-level connection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gofrs/uuid"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrClosed         = errors.New("request is closed")
	ErrTokenUsed      = errors.New("token already used")
	ErrDuplicatePhone = errors.New("a submission with this phone number already exists for this request")
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// newToken mints an opaque globally unique token, 32 lowercase hex chars.
func newToken() (string, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(u.String(), "-", ""), nil
}

// Wipe deletes every request, submission, reward entry and setting.
// Admin sessions survive: the token table is left alone.
func (s *Store) Wipe(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// submissions first, for the foreign key
	for _, table := range []string{"submission", "request", "reward_entry", "setting"} {
		_, err = tx.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
