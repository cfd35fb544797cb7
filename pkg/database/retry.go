package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"
)

// driverConnector wraps a driver.Driver to implement driver.Connector.
// This allows using sql.OpenDB() with drivers that don't natively support OpenConnector.
type driverConnector struct {
	driver driver.Driver
	dsn    string
}

func newDriverConnector(drv driver.Driver, dsn string) *driverConnector {
	return &driverConnector{driver: drv, dsn: dsn}
}

func (dc *driverConnector) Connect(_ context.Context) (driver.Conn, error) {
	return dc.driver.Open(dc.dsn)
}

func (dc *driverConnector) Driver() driver.Driver {
	return dc.driver
}

// retryConnector retries SQLITE_BUSY failures when establishing a connection.
// Queries are not retried: the handle is read-only, so lock contention can
// only surface while another process holds an exclusive lock on the file.
type retryConnector struct {
	connector  driver.Connector
	maxRetries int
}

func newRetryConnector(connector driver.Connector, maxRetries int) *retryConnector {
	return &retryConnector{connector: connector, maxRetries: maxRetries}
}

func (rc *retryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	var conn driver.Conn
	err := retryWithBackoff(ctx, rc.maxRetries, func() error {
		var err error
		conn, err = rc.connector.Connect(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The pool opens connections lazily, so the pragma has to be applied here
	// to cover every connection, not just the first one.
	if err := setQueryOnly(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// setQueryOnly marks the connection read-only at the SQLite level. mode=ro in
// the DSN is the primary guard; this covers handles where the DSN parameter
// was ignored.
func setQueryOnly(ctx context.Context, conn driver.Conn) error {
	if execer, ok := conn.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, "PRAGMA query_only=ON", nil)
		return err
	}

	stmt, err := conn.Prepare("PRAGMA query_only=ON")
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.Exec(nil)
	return err
}

func (rc *retryConnector) Driver() driver.Driver {
	return rc.connector.Driver()
}

// isBusyError checks if the error is a SQLite BUSY or LOCKED error.
// Works with both mattn/go-sqlite3 and modernc.org/sqlite drivers.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "SQLITE_LOCKED") ||
		strings.Contains(errStr, "(5)") || // SQLITE_BUSY error code
		strings.Contains(errStr, "(6)") // SQLITE_LOCKED error code
}

// retryWithBackoff executes fn, retrying busy errors with jittered exponential
// backoff up to maxRetries times. Any other error returns immediately.
func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isBusyError(err) || attempt >= maxRetries {
			return err
		}

		delay := time.Duration(1<<uint(attempt)) * 50 * time.Millisecond
		delay += time.Duration(rand.Intn(50)) * time.Millisecond

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
