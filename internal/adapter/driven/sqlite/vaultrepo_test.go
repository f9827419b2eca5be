package sqlite

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentforge/zkcred/internal/domain/port/driven"
	"github.com/agentforge/zkcred/internal/secretbox"
)

func testBox(t *testing.T) *secretbox.Box {
	t.Helper()

	box, err := secretbox.New(bytes.Repeat([]byte{0x42}, secretbox.KeySize))
	require.NoError(t, err)
	return box
}

func TestVaultRepo_SetAndGetPlaintext(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db, testBox(t))
	ctx := context.Background()

	err := repo.Set(ctx, "github-api", "ghp_secret123", "https://api.github.com", "github")
	require.NoError(t, err)

	val, meta, err := repo.GetPlaintext(ctx, "github-api")
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret123", val)
	assert.Equal(t, "https://api.github.com", meta.ServiceURL)
	assert.Equal(t, "github", meta.Provider)
	assert.Empty(t, meta.Ciphertext)
}

func TestVaultRepo_ValueEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github-api", "ghp_secret123", "", "github"))

	var ciphertext string
	err := db.Reader.QueryRowContext(ctx, `SELECT ciphertext FROM vault_secrets WHERE name = ?`, "github-api").Scan(&ciphertext)
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "ghp_secret123")
}

func TestVaultRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db, testBox(t))

	_, _, err := repo.GetPlaintext(context.Background(), "nope")
	assert.ErrorIs(t, err, driven.ErrSecretNotFound)
}

func TestVaultRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github-api", "old", "", "github"))
	require.NoError(t, repo.Set(ctx, "github-api", "new", "", "github"))

	val, _, err := repo.GetPlaintext(ctx, "github-api")
	require.NoError(t, err)
	assert.Equal(t, "new", val)
}

func TestVaultRepo_ListReturnsMetadataOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github-api", "ghp_secret123", "https://api.github.com", "github"))

	secrets, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "github-api", secrets[0].Name)
	assert.Equal(t, "github", secrets[0].Provider)
	assert.NotContains(t, secrets[0].Ciphertext, "ghp_secret123")
}

func TestVaultRepo_NoKeyConfigured(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, "github-api", "value", "", "")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, _, err = repo.GetPlaintext(ctx, "github-api")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestVaultRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db, testBox(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "github-api", "value", "", ""))
	require.NoError(t, repo.Delete(ctx, "github-api"))

	_, _, err := repo.GetPlaintext(ctx, "github-api")
	assert.ErrorIs(t, err, driven.ErrSecretNotFound)

	assert.NoError(t, repo.Delete(ctx, "never-existed"))
}
