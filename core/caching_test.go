package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/historian/core/mine"
	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/iocache"
	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cachedPayload(t *testing.T) []byte {
	t.Helper()
	ho := schema.NewHistoryOutput()
	ho.FileCommitCounts["app.py"] = 4
	data, err := json.Marshal(ho)
	require.NoError(t, err)
	return data
}

func TestCheckCacheHit(t *testing.T) {
	now := time.Now().Unix()
	stale := time.Now().Add(-cacheMaxAge - time.Hour).Unix()

	store := new(iocache.MockCacheStore)
	store.On("Get", "ok").Return(cachedPayload(t), currentCacheVersion, now, nil)
	store.On("Get", "stale").Return(cachedPayload(t), currentCacheVersion, stale, nil)
	store.On("Get", "old-version").Return(cachedPayload(t), currentCacheVersion+1, now, nil)
	store.On("Get", "garbage").Return([]byte("{"), currentCacheVersion, now, nil)
	store.On("Get", "missing").Return(nil, 0, int64(0), errors.New("not found"))

	hit := checkCacheHit(store, "ok")
	require.NotNil(t, hit)
	assert.Equal(t, 4, hit.FileCommitCounts["app.py"])
	assert.NotNil(t, hit.FunctionCommits)

	for _, key := range []string{"stale", "old-version", "garbage", "missing"} {
		assert.Nil(t, checkCacheHit(store, key), key)
	}
}

func TestGenerateCacheKey(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("GetRepoHash", ctx, "/repo").Return("abc123", nil)

	cfg := &contract.Config{RepoPath: "/repo"}
	base := generateCacheKey(ctx, cfg, client)
	assert.Len(t, base, 64)
	assert.Equal(t, base, generateCacheKey(ctx, cfg, client))

	filtered := cfg.Clone()
	filtered.PathFilter = "core/"
	assert.NotEqual(t, base, generateCacheKey(ctx, filtered, client))

	excluded := cfg.Clone()
	excluded.Excludes = []string{"vendor/"}
	assert.NotEqual(t, base, generateCacheKey(ctx, excluded, client))
}

func TestCachedHistoryStoresOnMiss(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	client := newMockRepo(t, ctx, cfg.RepoPath)
	client.On("GetRepoHash", ctx, cfg.RepoPath).Return("head", nil)

	store := new(iocache.MockCacheStore)
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("not found"))
	store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)
	mgr := new(iocache.MockCacheManager)
	mgr.On("GetHistoryStore").Return(store)

	miner := mine.NewMiner(client, nil, mine.Options{})
	ho, err := cachedHistory(ctx, cfg, client, mgr, miner)
	require.NoError(t, err)
	assert.Equal(t, 2, ho.FileCommitCounts["app.py"])
	assert.Empty(t, ho.Todos)
	store.AssertExpectations(t)
}

func TestCachedHistoryServesHit(t *testing.T) {
	ctx := context.Background()
	cfg := &contract.Config{RepoPath: "/repo"}
	client := new(contract.MockGitClient)
	client.On("GetRepoHash", ctx, "/repo").Return("head", nil)

	store := new(iocache.MockCacheStore)
	store.On("Get", mock.Anything).Return(cachedPayload(t), currentCacheVersion, time.Now().Unix(), nil)
	mgr := new(iocache.MockCacheManager)
	mgr.On("GetHistoryStore").Return(store)

	ho, err := cachedHistory(ctx, cfg, client, mgr, mine.NewMiner(client, nil, mine.Options{}))
	require.NoError(t, err)
	assert.Equal(t, 4, ho.FileCommitCounts["app.py"])
	client.AssertNotCalled(t, "ListCommits", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
