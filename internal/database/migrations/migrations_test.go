package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestAuthTokensSchema(t *testing.T) {
	body, err := fs.ReadFile(FS, "00002_auth_tokens.sql")
	require.NoError(t, err)
	sql := string(body)

	assert.Contains(t, sql, "REFERENCES users (id) ON DELETE CASCADE")
	assert.Contains(t, sql, "CHECK (issued_at <= expires_at)")
	assert.True(t, strings.Contains(sql, "UNIQUE INDEX IF NOT EXISTS idx_auth_tokens_token_hash"))
	assert.Contains(t, sql, "(user_id, token_type, is_revoked, expires_at)")
}
