package persistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/erp/inventory/internal/domain/shared"
)

// SQLSTATEs that get a domain-level meaning.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError maps driver-level failures to domain errors so callers
// can branch on stable codes instead of SQLSTATEs. Domain errors,
// gorm sentinels and context cancellations pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return shared.ErrConcurrencyConflict
		case pgUniqueViolation:
			return shared.NewDomainErrorf("ALREADY_EXISTS",
				"Conflicting row violates %s", pgErr.ConstraintName)
		}
		return shared.NewDomainErrorf("STORAGE_ERROR",
			"Database error %s: %s", pgErr.Code, pgErr.Message)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return shared.ErrStorage
	}

	return err
}
