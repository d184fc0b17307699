package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobfeeds/internal/model"
)

// Meta keys the store reads back for stats.
const (
	metaProvider = "_job_killer_provider"
	metaImported = "_job_killer_imported"
	metaFilled   = "_filled"
)

// CreateRecord inserts a record and its metadata in one transaction.
func (s *SQLiteStore) CreateRecord(ctx context.Context, rec model.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("creating record: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records (title, content, status, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Title, rec.Content, rec.Status, rec.Type, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("creating record %q: %w", rec.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("creating record %q: %w", rec.Title, err)
	}

	for k, v := range rec.Meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO record_meta (record_id, key, value) VALUES (?, ?, ?)`, id, k, v); err != nil {
			return 0, fmt.Errorf("writing meta %s for record %d: %w", k, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("creating record %q: %w", rec.Title, err)
	}
	return id, nil
}

// FindRecord returns the id of the first record matching q.
func (s *SQLiteStore) FindRecord(ctx context.Context, q model.RecordQuery) (int64, bool, error) {
	var (
		where []string
		args  []any
	)
	if q.Type != "" {
		where = append(where, "r.type = ?")
		args = append(args, q.Type)
	}
	if q.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, q.Status)
	}
	if q.Title != "" {
		where = append(where, "r.title = ?")
		args = append(args, q.Title)
	}

	keys := make([]string, 0, len(q.MetaEquals))
	for k := range q.MetaEquals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		where = append(where, "EXISTS (SELECT 1 FROM record_meta m WHERE m.record_id = r.id AND m.key = ? AND m.value = ?)")
		args = append(args, k, q.MetaEquals[k])
	}

	query := "SELECT r.id FROM records r"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.id LIMIT 1"

	var id int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("finding record: %w", err)
	}
	return id, true, nil
}

// GetRecord loads a record with its metadata.
func (s *SQLiteStore) GetRecord(ctx context.Context, id int64) (model.Record, error) {
	var (
		rec       model.Record
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, status, type, created_at FROM records WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Title, &rec.Content, &rec.Status, &rec.Type, &createdAt)
	if err != nil {
		return model.Record{}, fmt.Errorf("getting record %d: %w", id, err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM record_meta WHERE record_id = ?`, id)
	if err != nil {
		return model.Record{}, fmt.Errorf("getting meta of record %d: %w", id, err)
	}
	defer rows.Close()

	rec.Meta = make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return model.Record{}, fmt.Errorf("getting meta of record %d: %w", id, err)
		}
		rec.Meta[k] = v
	}
	return rec, rows.Err()
}

// GetOrCreateTerm returns the id of the term with the exact name in the
// taxonomy, creating it if needed.
func (s *SQLiteStore) GetOrCreateTerm(ctx context.Context, taxonomy, name string) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO terms (taxonomy, name) VALUES (?, ?)`, taxonomy, name); err != nil {
		return 0, fmt.Errorf("creating term %s/%s: %w", taxonomy, name, err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM terms WHERE taxonomy = ? AND name = ?`, taxonomy, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading term %s/%s: %w", taxonomy, name, err)
	}
	return id, nil
}

// AttachTerms replaces the record's terms in the taxonomy with termIDs.
func (s *SQLiteStore) AttachTerms(ctx context.Context, recordID int64, taxonomy string, termIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("attaching %s terms: %w", taxonomy, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_terms WHERE record_id = ? AND taxonomy = ?`, recordID, taxonomy); err != nil {
		return fmt.Errorf("attaching %s terms to %d: %w", taxonomy, recordID, err)
	}
	for _, tid := range termIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO record_terms (record_id, term_id, taxonomy) VALUES (?, ?, ?)`,
			recordID, tid, taxonomy); err != nil {
			return fmt.Errorf("attaching %s term %d to %d: %w", taxonomy, tid, recordID, err)
		}
	}
	return tx.Commit()
}

// RecordTerms returns the names of the record's terms in the taxonomy.
func (s *SQLiteStore) RecordTerms(ctx context.Context, recordID int64, taxonomy string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name FROM record_terms rt JOIN terms t ON t.id = rt.term_id
		 WHERE rt.record_id = ? AND rt.taxonomy = ? ORDER BY t.name`, recordID, taxonomy)
	if err != nil {
		return nil, fmt.Errorf("listing %s terms of %d: %w", taxonomy, recordID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ProviderStats counts records imported by the provider: in total, since
// local midnight, and not yet marked filled.
func (s *SQLiteStore) ProviderStats(ctx context.Context, provider string) (model.ProviderStats, error) {
	st := model.ProviderStats{Provider: provider}
	y, m, d := time.Now().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.Local).Format(time.DateTime)

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN imp.value >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN COALESCE(filled.value, '0') != '1' THEN 1 ELSE 0 END), 0)
		FROM records r
		JOIN record_meta p ON p.record_id = r.id AND p.key = ? AND p.value = ?
		LEFT JOIN record_meta imp ON imp.record_id = r.id AND imp.key = ?
		LEFT JOIN record_meta filled ON filled.record_id = r.id AND filled.key = ?
		WHERE r.type = ?`,
		midnight, metaProvider, provider, metaImported, metaFilled, model.RecordTypeJobListing,
	).Scan(&st.TotalImported, &st.TodayImported, &st.ActiveJobs)
	if err != nil {
		return st, fmt.Errorf("stats for %s: %w", provider, err)
	}
	return st, nil
}
