package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"ppms/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the application reacts to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgQueryCanceled       = "57014"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"
)

// SQLite extended result codes.
const (
	sqliteBusy              = 5
	sqliteLocked            = 6
	sqliteConstraintCheck   = 275
	sqliteConstraintFK      = 787
	sqliteConstraintNotNull = 1299
	sqliteConstraintPK      = 1555
	sqliteConstraintUnique  = 2067
)

type sqliteCoder interface {
	Code() int
}

// Classify maps driver and gorm errors onto apperr classes. Errors that are
// already classified pass through unchanged; unknown errors are returned as is
// and surface as internal errors.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.KindNotFound, err, "record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.KindValidation, err, "duplicate value for a unique field")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Wrap(apperr.KindConstraint, err, "referenced record does not exist or is still in use")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.KindUnavailable, err, "database did not respond in time")
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return apperr.Wrap(apperr.KindUnavailable, err, "database connection lost")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return apperr.Wrap(apperr.KindValidation, err, "duplicate value for a unique field")
		case pgErr.Code == pgForeignKeyViolation:
			return apperr.Wrap(apperr.KindConstraint, err, "referenced record does not exist or is still in use")
		case pgErr.Code == pgNotNullViolation, pgErr.Code == pgCheckViolation:
			return apperr.Wrap(apperr.KindValidation, err, "invalid value for %s", pgErr.ColumnName)
		case pgErr.Code == pgQueryCanceled, pgErr.Code == pgAdminShutdown, pgErr.Code == pgCannotConnectNow,
			strings.HasPrefix(pgErr.Code, "08"):
			return apperr.Wrap(apperr.KindUnavailable, err, "database unavailable")
		}
	}

	var liteErr sqliteCoder
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPK:
			return apperr.Wrap(apperr.KindValidation, err, "duplicate value for a unique field")
		case sqliteConstraintFK:
			return apperr.Wrap(apperr.KindConstraint, err, "referenced record does not exist or is still in use")
		case sqliteConstraintNotNull, sqliteConstraintCheck:
			return apperr.Wrap(apperr.KindValidation, err, "invalid value")
		case sqliteBusy, sqliteLocked:
			return apperr.Wrap(apperr.KindUnavailable, err, "database busy")
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return apperr.Wrap(apperr.KindUnavailable, err, "database unavailable")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Wrap(apperr.KindUnavailable, err, "database unavailable")
	}

	return err
}
