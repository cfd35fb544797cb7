package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type key int

const ctxKey key = 0

func WithLogging(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey, true)
}

func loggingEnabled(ctx context.Context) bool {
	enabled, ok := ctx.Value(ctxKey).(bool)
	return ok && enabled
}

type logQueryHook struct {
	emit func(query string)
}

func newLogQueryHook() *logQueryHook {
	log := logger.NewWithLevel("debug")
	return &logQueryHook{emit: func(query string) { log.Debug(query) }}
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if !loggingEnabled(ctx) {
		return
	}

	qh.emit(event.Query)
}

// Open returns a read-only bun handle over the device's bookmark database.
// The file belongs to the reader, so connections are opened in read-only mode,
// and the connector sets query_only on every connection as a second guard:
// this tool must never write to the store.
func Open(cfg *config.Config) (*bun.DB, error) {
	drv := sqliteshim.Driver()
	dsn := "file:" + cfg.DatabasePath + "?mode=ro"

	var connector driver.Connector
	if drvCtx, ok := drv.(interface {
		OpenConnector(name string) (driver.Connector, error)
	}); ok {
		var err error
		connector, err = drvCtx.OpenConnector(dsn)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	} else {
		connector = newDriverConnector(drv, dsn)
	}

	// The device (or the Kobo desktop app) may hold the file, so retry busy
	// connections with backoff.
	sqldb := sql.OpenDB(newRetryConnector(connector, cfg.DatabaseMaxRetries))

	db := bun.NewDB(sqldb, sqlitedialect.New())

	// print out all queries in debug mode
	if cfg.DatabaseDebug {
		db.AddQueryHook(newLogQueryHook())
	}

	// Retry up to a few times to ensure that the database can connect.
	var err error
	for i := 0; i < cfg.DatabaseConnectRetryCount; i++ {
		_, err = db.Exec("SELECT 1")
		if err != nil {
			time.Sleep(cfg.DatabaseConnectRetryDelay)
			continue
		}
		// We've successfully connected.
		break
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return db, nil
}
