package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobfeeds/internal/model"
)

// InsertLog persists one log line.
func (s *SQLiteStore) InsertLog(ctx context.Context, e model.LogEntry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	ctxJSON := []byte("{}")
	if len(e.Context) > 0 {
		b, err := json.Marshal(e.Context)
		if err != nil {
			return fmt.Errorf("encoding log context: %w", err)
		}
		ctxJSON = b
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (time, level, channel, message, context) VALUES (?, ?, ?, ?, ?)`,
		e.Time.UnixNano(), strings.ToLower(e.Level), e.Channel, e.Message, string(ctxJSON))
	if err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}
	return nil
}

// ListLogs returns log lines newest first.
func (s *SQLiteStore) ListLogs(ctx context.Context, q model.LogQuery) ([]model.LogEntry, error) {
	var (
		where []string
		args  []any
	)
	if q.Level != "" {
		where = append(where, "level = ?")
		args = append(args, strings.ToLower(q.Level))
	}
	if q.Channel != "" {
		where = append(where, "channel = ?")
		args = append(args, q.Channel)
	}
	query := `SELECT id, time, level, channel, message, context FROM logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	var out []model.LogEntry
	for rows.Next() {
		var (
			e       model.LogEntry
			ts      int64
			ctxJSON string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Level, &e.Channel, &e.Message, &ctxJSON); err != nil {
			return nil, fmt.Errorf("listing logs: %w", err)
		}
		e.Time = time.Unix(0, ts)
		if err := json.Unmarshal([]byte(ctxJSON), &e.Context); err != nil {
			e.Context = map[string]any{"raw": ctxJSON}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearLogs deletes all log lines and returns how many were removed.
func (s *SQLiteStore) ClearLogs(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs`)
	if err != nil {
		return 0, fmt.Errorf("clearing logs: %w", err)
	}
	return res.RowsAffected()
}
