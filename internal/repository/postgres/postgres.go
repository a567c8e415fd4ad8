package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

func NewDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS direct_messages (
	id          TEXT PRIMARY KEY,
	sender_id   TEXT NOT NULL CHECK (sender_id <> ''),
	receiver_id TEXT NOT NULL CHECK (receiver_id <> ''),
	body        TEXT NOT NULL,
	is_read     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS direct_messages_pair_idx
	ON direct_messages (sender_id, receiver_id, created_at);

CREATE INDEX IF NOT EXISTS direct_messages_receiver_idx
	ON direct_messages (receiver_id, created_at);

CREATE INDEX IF NOT EXISTS direct_messages_unread_idx
	ON direct_messages (receiver_id, sender_id)
	WHERE is_read = FALSE;
`

// Migrate creates the direct_messages table and its indexes when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
