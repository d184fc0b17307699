package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobfeeds/internal/model"
)

const feedColumns = `id, name, url, provider, active, auth, params, created_at, updated_at, last_import_at, last_import_count`

// InsertFeed stores a new feed and returns it with its generated id and
// timestamps. Name and either a URL or auth values are required.
func (s *SQLiteStore) InsertFeed(ctx context.Context, f model.Feed) (model.Feed, error) {
	if err := checkRequired(f); err != nil {
		return model.Feed{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	f.ID = uuid.NewString()
	f.CreatedAt = now
	f.UpdatedAt = now
	f.LastImportAt = nil
	f.LastImportCount = 0

	auth, params, err := encodeFeedMaps(f)
	if err != nil {
		return model.Feed{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feeds (id, name, url, provider, active, auth, params, created_at, updated_at, last_import_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		f.ID, f.Name, f.URL, f.Provider, boolInt(f.Active), auth, params, now.Unix(), now.Unix(),
	)
	if err != nil {
		return model.Feed{}, fmt.Errorf("inserting feed %s: %w", f.Name, err)
	}
	return f, nil
}

// UpdateFeed overwrites the mutable fields of an existing feed.
func (s *SQLiteStore) UpdateFeed(ctx context.Context, f model.Feed) error {
	if err := checkRequired(f); err != nil {
		return err
	}
	auth, params, err := encodeFeedMaps(f)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE feeds SET name = ?, url = ?, provider = ?, active = ?, auth = ?, params = ?, updated_at = ?
		 WHERE id = ?`,
		f.Name, f.URL, f.Provider, boolInt(f.Active), auth, params, time.Now().Unix(), f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating feed %s: %w", f.ID, err)
	}
	return expectOneRow(res, f.ID)
}

// GetFeed returns the feed with the given id or model.ErrFeedNotFound.
func (s *SQLiteStore) GetFeed(ctx context.Context, id string) (model.Feed, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)
	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Feed{}, fmt.Errorf("feed %s: %w", id, model.ErrFeedNotFound)
	}
	if err != nil {
		return model.Feed{}, fmt.Errorf("getting feed %s: %w", id, err)
	}
	return f, nil
}

// ListFeeds returns feeds ordered by name, optionally only active ones.
func (s *SQLiteStore) ListFeeds(ctx context.Context, activeOnly bool) ([]model.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	defer rows.Close()

	var feeds []model.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("listing feeds: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// DeleteFeed removes a feed.
func (s *SQLiteStore) DeleteFeed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting feed %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

// ToggleActive flips a feed's active flag and returns the new value.
func (s *SQLiteStore) ToggleActive(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE feeds SET active = 1 - active, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	if err != nil {
		return false, fmt.Errorf("toggling feed %s: %w", id, err)
	}
	if err := expectOneRow(res, id); err != nil {
		return false, err
	}

	var active int
	if err := s.db.QueryRowContext(ctx, `SELECT active FROM feeds WHERE id = ?`, id).Scan(&active); err != nil {
		return false, fmt.Errorf("reading feed %s: %w", id, err)
	}
	return active == 1, nil
}

// UpdateLastImport records the time and job count of a successful import.
func (s *SQLiteStore) UpdateLastImport(ctx context.Context, id string, count int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE feeds SET last_import_at = ?, last_import_count = ? WHERE id = ?`,
		time.Now().Unix(), count, id)
	if err != nil {
		return fmt.Errorf("updating last import for %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(r rowScanner) (model.Feed, error) {
	var (
		f                    model.Feed
		active               int
		auth, params         string
		createdAt, updatedAt int64
		lastImport           sql.NullInt64
	)
	err := r.Scan(&f.ID, &f.Name, &f.URL, &f.Provider, &active, &auth, &params,
		&createdAt, &updatedAt, &lastImport, &f.LastImportCount)
	if err != nil {
		return model.Feed{}, err
	}

	f.Active = active == 1
	f.CreatedAt = time.Unix(createdAt, 0).UTC()
	f.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if lastImport.Valid {
		t := time.Unix(lastImport.Int64, 0).UTC()
		f.LastImportAt = &t
	}
	if err := json.Unmarshal([]byte(auth), &f.Auth); err != nil {
		return model.Feed{}, fmt.Errorf("decoding auth of feed %s: %w", f.ID, err)
	}
	if err := json.Unmarshal([]byte(params), &f.Params); err != nil {
		return model.Feed{}, fmt.Errorf("decoding params of feed %s: %w", f.ID, err)
	}
	if f.Auth == nil {
		f.Auth = map[string]string{}
	}
	if f.Params == nil {
		f.Params = model.Params{}
	}
	return f, nil
}

func checkRequired(f model.Feed) error {
	if strings.TrimSpace(f.Name) == "" {
		return &model.ConfigError{Field: "name", Msg: "is required"}
	}
	if strings.TrimSpace(f.URL) == "" && len(f.Auth) == 0 {
		return &model.ConfigError{Field: "url", Msg: "url or auth values are required"}
	}
	return nil
}

func encodeFeedMaps(f model.Feed) (string, string, error) {
	auth := f.Auth
	if auth == nil {
		auth = map[string]string{}
	}
	params := f.Params
	if params == nil {
		params = model.Params{}
	}
	a, err := json.Marshal(auth)
	if err != nil {
		return "", "", fmt.Errorf("encoding auth: %w", err)
	}
	p, err := json.Marshal(params)
	if err != nil {
		return "", "", fmt.Errorf("encoding params: %w", err)
	}
	return string(a), string(p), nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("feed %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("feed %s: %w", id, model.ErrFeedNotFound)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
