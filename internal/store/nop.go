package store

import (
	"context"
	"sync/atomic"

	"github.com/amishk599/jobfeeds/internal/model"
)

// NopStore is a record store used in dry-run mode. Nothing is written and no
// existing record is ever found, so every accepted job counts as new.
type NopStore struct {
	next atomic.Int64
}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) CreateRecord(context.Context, model.Record) (int64, error) {
	return s.next.Add(1), nil
}
func (s *NopStore) FindRecord(context.Context, model.RecordQuery) (int64, bool, error) {
	return 0, false, nil
}
func (s *NopStore) GetOrCreateTerm(context.Context, string, string) (int64, error) { return 0, nil }
func (s *NopStore) AttachTerms(context.Context, int64, string, []int64) error    { return nil }

// ReadOnlyFeeds serves feeds from an underlying store but drops last-import
// updates, for dry runs.
type ReadOnlyFeeds struct {
	model.FeedStore
}

func (ReadOnlyFeeds) UpdateLastImport(context.Context, string, int) error { return nil }
