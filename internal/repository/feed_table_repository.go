package repository

import (
	"context"
	"database/sql"
)

// FeedTableRepo reads the change_feed_tables publication registry written by
// the migration.  The stream handler consults it before opening a
// subscription so clients cannot subscribe to unpublished tables.
type FeedTableRepo struct {
	db *sql.DB
}

func NewFeedTableRepo(db *sql.DB) *FeedTableRepo { return &FeedTableRepo{db: db} }

// IsPublished reports whether the table is enabled for the change feed.
func (r *FeedTableRepo) IsPublished(ctx context.Context, table string) (bool, error) {
	var enabled bool
	err := r.db.QueryRowContext(ctx,
		"SELECT enabled FROM change_feed_tables WHERE table_name=? LIMIT 1", table).Scan(&enabled)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return enabled, nil
}
