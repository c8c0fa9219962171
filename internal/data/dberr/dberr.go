package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrConflict marks a unique-key or optimistic-version conflict.
	ErrConflict = errors.New("conflict")
	// ErrRetryable marks a transient failure the caller may retry.
	ErrRetryable = errors.New("retryable")
)

// IsUniqueViolation reports whether err came from a unique index on any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}

// Classify tags infrastructure failures with ErrConflict or ErrRetryable; other errors pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return errors.Join(ErrConflict, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrRetryable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return errors.Join(ErrRetryable, err) // serialization/deadlock/lock_not_available
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "deadlock") {
		return errors.Join(ErrRetryable, err)
	}
	return err
}
