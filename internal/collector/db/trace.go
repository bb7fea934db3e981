package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// traceConnector opens sqlite3 connections that log every statement at debug
// level. Use it with sql.OpenDB.
type traceConnector struct {
	dsn    string
	drv    *sqlite3.SQLiteDriver
	logger *slog.Logger
}

func newTraceConnector(dsn string, logger *slog.Logger) driver.Connector {
	return &traceConnector{dsn: dsn, drv: &sqlite3.SQLiteDriver{}, logger: logger}
}

func (c *traceConnector) Connect(context.Context) (driver.Conn, error) {
	conn, err := c.drv.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	sc, ok := conn.(*sqlite3.SQLiteConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected sqlite3 connection type %T", conn)
	}
	return &traceConn{SQLiteConn: sc, logger: c.logger}, nil
}

func (c *traceConnector) Driver() driver.Driver { return c.drv }

// traceConn intercepts the direct exec and query paths database/sql takes
// for sqlite3; everything else goes straight to the embedded connection.
type traceConn struct {
	*sqlite3.SQLiteConn
	logger *slog.Logger
}

func (c *traceConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.trace(ctx, "exec", query, args)
	return c.SQLiteConn.ExecContext(ctx, query, args)
}

func (c *traceConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.trace(ctx, "query", query, args)
	return c.SQLiteConn.QueryContext(ctx, query, args)
}

func (c *traceConn) trace(ctx context.Context, op, query string, args []driver.NamedValue) {
	vals := make([]string, len(args))
	for i, a := range args {
		switch v := a.Value.(type) {
		case nil:
			vals[i] = "NULL"
		case []byte:
			vals[i] = string(v)
		default:
			vals[i] = fmt.Sprint(v)
		}
	}
	c.logger.DebugContext(ctx, "sql", "op", op, "sql", query, "args", vals)
}
