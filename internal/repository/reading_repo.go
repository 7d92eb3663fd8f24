package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"device_console/internal/models"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite {
	return &ReadingSQLite{db: db}
}

const (
	defaultReadingLimit = 100
	maxReadingLimit     = 1000

	insertReadingSQL = `INSERT INTO readings (raw, value, valid, color, read_at) VALUES (?, ?, ?, ?, ?)`

	selectReadingsSQL = `SELECT id, raw, value, valid, color, read_at FROM readings ORDER BY id DESC LIMIT ?`

	pruneReadingsSQL = `DELETE FROM readings WHERE id <= (SELECT id FROM readings ORDER BY id DESC LIMIT 1 OFFSET ?)`
)

// Append stores one sample and returns its row id. A zero ReadAt becomes now (UTC).
func (r *ReadingSQLite) Append(ctx context.Context, rd models.Reading) (int64, error) {
	ts := rd.ReadAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	res, err := r.db.ExecContext(ctx, insertReadingSQL, rd.Raw, rd.Value, rd.Valid, string(rd.Color), ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Latest returns the newest sample; ok is false when nothing was stored yet.
func (r *ReadingSQLite) Latest(ctx context.Context) (models.Reading, bool, error) {
	row := r.db.QueryRowContext(ctx, selectReadingsSQL, 1)
	rd, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Reading{}, false, nil
		}
		return models.Reading{}, false, err
	}
	return rd, true, nil
}

// List returns up to limit samples, newest first. limit <= 0 uses the default.
func (r *ReadingSQLite) List(ctx context.Context, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		limit = defaultReadingLimit
	}
	if limit > maxReadingLimit {
		limit = maxReadingLimit
	}

	rows, err := r.db.QueryContext(ctx, selectReadingsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Reading, 0, limit)
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes all but the newest keep samples and returns how many rows went.
func (r *ReadingSQLite) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.ExecContext(ctx, pruneReadingsSQL, keep)
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(s rowScanner) (models.Reading, error) {
	var (
		rd    models.Reading
		color string
	)
	if err := s.Scan(&rd.ID, &rd.Raw, &rd.Value, &rd.Valid, &color, &rd.ReadAt); err != nil {
		return models.Reading{}, err
	}
	rd.Color = models.IndicatorColor(color)
	rd.ReadAt = rd.ReadAt.UTC()
	return rd, nil
}
