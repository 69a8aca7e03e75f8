package lib

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Database errors
var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// Request errors
var (
	ErrBodyTooLarge = errors.New("request body too large")
)

// Auth errors
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenCooldown      = errors.New("a token was issued too recently")
)

// Domain errors
var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrMissingImage            = errors.New("item has no image to analyse")
	ErrAnalysisUnavailable     = errors.New("analysis oracle is not configured")
	ErrAnalysisFailed          = errors.New("analysis oracle failed")
	ErrNoItemsCreated          = errors.New("no items could be processed")
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateNoDataFound     = "P0002"
)

// SQLState extracts the SQLSTATE code from an error raised by either
// supported driver. It returns "" for non-postgres errors.
func SQLState(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	return ""
}

func MapPgError(err error) error {
	switch SQLState(err) {
	case sqlStateUniqueViolation:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case sqlStateNoDataFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrConflict) || SQLState(err) == sqlStateUniqueViolation
}
