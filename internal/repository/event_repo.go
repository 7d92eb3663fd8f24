package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"device_console/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	// sqliteTimestamp sorts lexically, so range filters compare strings.
	sqliteTimestamp = "2006-01-02 15:04:05"

	// maxEventRows caps one List call; a session produces a handful of events per action.
	maxEventRows = 5000

	insertEventSQL = `INSERT INTO session_events (id, occurred_at, type, message, meta) VALUES (?, ?, ?, ?, ?)`
	selectEventSQL = `SELECT id, occurred_at, type, message, meta FROM session_events`
)

// Append inserts a session event, filling in a missing id and timestamp.
func (r *EventSQLite) Append(ctx context.Context, e models.SessionEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	at := e.OccurredAt.UTC()
	if e.OccurredAt.IsZero() {
		at = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		at.Format(sqliteTimestamp),
		normalizeType(e.Type),
		e.Description,
		encodeMeta(e.Metadata),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.Type, err)
	}
	return nil
}

// List returns events in [from, to] (either bound may be zero) of an optional type,
// oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.SessionEvent, error) {
	q, args := eventQuery(from, to, normalizeType(typ))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	out := make([]models.SessionEvent, 0, 16)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func eventQuery(from, to time.Time, typ string) (string, []any) {
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimestamp))
	}
	if !to.IsZero() {
		where = append(where, "occurred_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimestamp))
	}
	if typ != "" {
		where = append(where, "type = ?")
		args = append(args, typ)
	}

	var b strings.Builder
	b.WriteString(selectEventSQL)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at ASC, rowid ASC LIMIT ?")
	args = append(args, maxEventRows)
	return b.String(), args
}

func scanEvent(row rowScanner) (models.SessionEvent, error) {
	var (
		ev   models.SessionEvent
		meta sql.NullString
	)
	if err := row.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
		return models.SessionEvent{}, err
	}
	ev.OccurredAt = ev.OccurredAt.UTC()
	if meta.Valid {
		ev.Metadata = decodeMeta(meta.String)
	}
	return ev, nil
}

func normalizeType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// encodeMeta stores metadata as JSON text; nil (or unencodable) metadata becomes NULL.
func encodeMeta(v any) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// decodeMeta reverses encodeMeta. Text that is not JSON is returned as is.
func decodeMeta(s string) any {
	if s == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
