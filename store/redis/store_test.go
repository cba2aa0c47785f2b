package redis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tally"
	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/store"
	redisstore "github.com/xraph/tally/store/redis"
)

func setupStore(t *testing.T, key string) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	s, err := redisstore.Open("redis://"+mr.Addr(), key)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := setupStore(t, "")

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Migrate(ctx))

	_, err := s.Load(ctx)
	assert.True(t, errors.Is(err, tally.ErrDocumentNotFound))

	doc := document.Default()
	doc.Packages = append(doc.Packages, &catalog.Package{ID: id.NewPackageID(), Name: "Basic", Price: 10000})
	require.NoError(t, s.Save(ctx, doc))
	assert.True(t, mr.Exists(store.DefaultKey))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Packages, 1)
	assert.Equal(t, doc.Packages[0].Price, got.Packages[0].Price)
}

func TestStoreMalformed(t *testing.T) {
	s, mr := setupStore(t, "book")
	require.NoError(t, mr.Set("book", "not json"))

	_, err := s.Load(context.Background())
	assert.True(t, errors.Is(err, document.ErrMalformed))
}

func TestStoreServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	s := redisstore.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1}), "book")
	mr.Close()

	err = s.Save(context.Background(), document.Default())
	require.Error(t, err)
	assert.False(t, errors.Is(err, tally.ErrDocumentNotFound))
}

func TestOpenInvalidURL(t *testing.T) {
	_, err := redisstore.Open("://nope", "")
	assert.Error(t, err)
}
