package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// MySQL server errors that mean the server cannot take work right now.
const (
	mysqlTooManyConnections = 1040
	mysqlServerShutdown     = 1053
)

var ErrDBNotReady = errors.New("database not initialized")

// ErrStoreUnavailable marks connection-level failures that affect every query, as opposed to
// a single row or lookup going wrong. Callers may retry; the repository never does.
var ErrStoreUnavailable = errors.New("message store unavailable")

// IsStoreUnavailable reports whether err should abort a whole request.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrDBNotReady)
}

func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if serverUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func serverUnavailable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlTooManyConnections || myErr.Number == mysqlServerShutdown
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 connection exceptions, 53300 too_many_connections, 57P01-57P03 shutdown and startup.
		return strings.HasPrefix(pgErr.Code, "08") ||
			pgErr.Code == "53300" ||
			strings.HasPrefix(pgErr.Code, "57P0")
	}
	return false
}
