package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tally"
	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/store/file"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "book.json")
	s := file.New(path)

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))

	_, err := s.Load(ctx)
	assert.True(t, errors.Is(err, tally.ErrDocumentNotFound))

	doc := document.Default()
	doc.Groups = append(doc.Groups, &catalog.Group{ID: id.NewGroupID(), Name: "G", Limit: 4})
	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, doc.Groups[0].ID, got.Groups[0].ID)

	doc.Groups = nil
	require.NoError(t, s.Save(ctx, doc))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Groups)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := file.New(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, document.ErrMalformed))
}
