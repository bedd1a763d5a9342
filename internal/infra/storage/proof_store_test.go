package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"merkado/internal/infra/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProofStore_SavesUnderProofs(t *testing.T) {
	root := t.TempDir()
	s, err := storage.NewLocalProofStore(root)
	require.NoError(t, err)

	path, err := s.Save(context.Background(), 7, ".png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "/uploads/proofs/7-"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	b, err := os.ReadFile(filepath.Join(root, "proofs", filepath.Base(path)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}

func TestLocalProofStore_UniqueNames(t *testing.T) {
	s, err := storage.NewLocalProofStore(t.TempDir())
	require.NoError(t, err)

	a, err := s.Save(context.Background(), 1, ".jpg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := s.Save(context.Background(), 1, ".jpg", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalProofStore_SanitizesExtension(t *testing.T) {
	s, err := storage.NewLocalProofStore(t.TempDir())
	require.NoError(t, err)

	path, err := s.Save(context.Background(), 1, "../../etc", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".bin"))
	assert.NotContains(t, path, "..")
}

func TestLocalProofStore_CanceledContext(t *testing.T) {
	s, err := storage.NewLocalProofStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, 1, ".png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalProofStore_ExistsOnlyForOwner(t *testing.T) {
	s, err := storage.NewLocalProofStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, err := s.Save(ctx, 1, ".png", strings.NewReader("x"))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, 1, path)
	require.NoError(t, err)
	assert.True(t, ok)

	// 他人の画像
	ok, err = s.Exists(ctx, 12, path)
	require.NoError(t, err)
	assert.False(t, ok)

	cases := []string{
		"/uploads/proofs/1-never-uploaded.png",
		"/uploads/proofs/",
		"/uploads/qr/" + strings.TrimPrefix(path, "/uploads/proofs/"),
		"/uploads/proofs/../proofs/" + strings.TrimPrefix(path, "/uploads/proofs/"),
		"https://example.com/1-x.png",
	}
	for _, p := range cases {
		ok, err := s.Exists(ctx, 1, p)
		require.NoError(t, err, p)
		assert.False(t, ok, p)
	}
}

func TestLocalProofStore_ExistsIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	s, err := storage.NewLocalProofStore(root)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(root, "proofs", "3-dir"), 0o755))

	ok, err := s.Exists(context.Background(), 3, "/uploads/proofs/3-dir")
	require.NoError(t, err)
	assert.False(t, ok)
}
