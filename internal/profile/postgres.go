package profile

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// PostgresDirectory reads the marketplace's users table. The table is owned
// by the account service; this package only reads it.
type PostgresDirectory struct {
	DB *sql.DB
}

func (d *PostgresDirectory) Lookup(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	out := make(map[string]Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, display_name, avatar_url
		FROM users
		WHERE id = ANY($1)
	`, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Profile
		var displayName, avatarURL sql.NullString
		if err := rows.Scan(&p.UserID, &displayName, &avatarURL); err != nil {
			return nil, err
		}
		p.DisplayName = displayName.String
		p.AvatarURL = avatarURL.String
		out[p.UserID] = p
	}
	return out, rows.Err()
}
