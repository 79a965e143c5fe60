package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/krishi/internal/entities"
)

var (
	// ErrStorageUnavailable means the device store could not be reached:
	// not initialized, closed, locked or failing I/O. Retryable.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrQuotaExceeded means the device is out of space. Writes fail closed.
	ErrQuotaExceeded = errors.New("local storage quota exceeded")

	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownCollection is returned for a row type with no registered collection.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Classify maps driver failures onto the store's error taxonomy and adds the
// operation and collection to the message. Already classified errors pass
// through unchanged.
func Classify(op string, c entities.Collection, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownCollection) {
		return err
	}

	where := op
	if c != "" {
		where = op + " " + string(c)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", where, ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", where, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrFull:
			return fmt.Errorf("%s: %w: %w", where, ErrQuotaExceeded, err)
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr, sqlite3.ErrCantOpen,
			sqlite3.ErrReadonly, sqlite3.ErrNomem, sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
			return fmt.Errorf("%s: %w: %w", where, ErrStorageUnavailable, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, gorm.ErrInvalidDB) {
		return fmt.Errorf("%s: %w: %w", where, ErrStorageUnavailable, err)
	}

	return fmt.Errorf("%s: %w", where, err)
}

// IsRetryable reports whether err is a transient storage failure the caller
// may retry later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
