// Package repository stores uploaded readings in SQLite.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/latest-readings.sql
var latestReadingsSQL string

//go:embed sql/list-nodes.sql
var listNodesSQL string

const storedAtLayout = "2006-01-02T15:04:05.999Z"

type Reading struct {
	ID           int64     `json:"id"`
	Node         string    `json:"node"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	LightLevel   int       `json:"light_level"`
	TimeReceived string    `json:"time_received"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	StoredAt     time.Time `json:"stored_at"`
}

type Node struct {
	Node     string    `json:"node"`
	Readings int       `json:"readings"`
	LastSeen time.Time `json:"last_seen"`
}

type ReadingRepository interface {
	InsertReading(ctx context.Context, r Reading) (Reading, error)
	// LatestReadings returns newest first; an empty node matches every node.
	LatestReadings(ctx context.Context, node string, limit int) ([]Reading, error)
	Nodes(ctx context.Context) ([]Node, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ReadingRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertReading(ctx context.Context, rd Reading) (Reading, error) {
	var storedAt string
	err := r.db.QueryRowContext(ctx, insertReadingSQL,
		rd.Node, rd.TemperatureC, rd.HumidityPct, rd.LightLevel, rd.TimeReceived, rd.RemoteAddr,
	).Scan(&rd.ID, &storedAt)
	if err != nil {
		return Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	if rd.StoredAt, err = time.Parse(storedAtLayout, storedAt); err != nil {
		return Reading{}, fmt.Errorf("parse stored_at %q: %w", storedAt, err)
	}
	return rd, nil
}

func (r *repositoryImpl) LatestReadings(ctx context.Context, node string, limit int) ([]Reading, error) {
	rows, err := r.db.QueryContext(ctx, latestReadingsSQL, node, node, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	out := []Reading{}
	for rows.Next() {
		var (
			rd       Reading
			storedAt string
		)
		if err := rows.Scan(&rd.ID, &rd.Node, &rd.TemperatureC, &rd.HumidityPct, &rd.LightLevel,
			&rd.TimeReceived, &rd.RemoteAddr, &storedAt); err != nil {
			return nil, err
		}
		if rd.StoredAt, err = time.Parse(storedAtLayout, storedAt); err != nil {
			return nil, fmt.Errorf("parse stored_at %q: %w", storedAt, err)
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Nodes(ctx context.Context) ([]Node, error) {
	rows, err := r.db.QueryContext(ctx, listNodesSQL)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close nodes rows", "error", err)
		}
	}()

	out := []Node{}
	for rows.Next() {
		var (
			n        Node
			lastSeen string
		)
		if err := rows.Scan(&n.Node, &n.Readings, &lastSeen); err != nil {
			return nil, err
		}
		if n.LastSeen, err = time.Parse(storedAtLayout, lastSeen); err != nil {
			return nil, fmt.Errorf("parse last_seen %q: %w", lastSeen, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
