package profile

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDirectoryLookup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, display_name, avatar_url").
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "avatar_url"}).
			AddRow("alice", "Alice", "https://cdn/a.png").
			AddRow("bob", nil, nil))

	dir := &PostgresDirectory{DB: db}
	got, err := dir.Lookup(context.Background(), []string{"alice", "bob", "carol"})
	require.NoError(t, err)

	assert.Equal(t, Profile{UserID: "alice", DisplayName: "Alice", AvatarURL: "https://cdn/a.png"}, got["alice"])
	assert.Equal(t, "", got["bob"].DisplayName)
	assert.NotContains(t, got, "carol")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectoryEmptyInput(t *testing.T) {
	dir := &PostgresDirectory{}
	got, err := dir.Lookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
