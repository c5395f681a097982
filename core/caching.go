package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/historian/core/mine"
	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheMaxAge is how long a cached history stays valid.
const cacheMaxAge = 7 * 24 * time.Hour

// cachedHistory returns the commit history of cfg.RepoPath, from the history
// cache when a fresh entry exists. The working tree TODO scan is never cached.
func cachedHistory(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager, miner *mine.Miner) (*schema.HistoryOutput, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetHistoryStore()
	}
	if store == nil {
		// Fallback to direct computation
		return miner.MineCommits(ctx, cfg.RepoPath)
	}

	key := generateCacheKey(ctx, cfg, client)

	// Check for cache hit
	if result := checkCacheHit(store, key); result != nil {
		return result, nil
	}

	// Cache miss: compute and store
	return computeAndStore(ctx, cfg, store, key, miner)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.HistoryOutput {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheMaxAge {
		return nil
	}
	result := schema.NewHistoryOutput()
	if err := json.Unmarshal(data, result); err != nil {
		return nil
	}
	return result
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, store contract.CacheStore, key string, miner *mine.Miner) (*schema.HistoryOutput, error) {
	result, err := miner.MineCommits(ctx, cfg.RepoPath)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache history", err)
		}
	}
	return result, nil
}

// generateCacheKey creates a unique key based on the mining parameters
func generateCacheKey(ctx context.Context, cfg *contract.Config, client contract.GitClient) string {
	// Include repo hash to invalidate cache when repository state changes
	repoHash, err := client.GetRepoHash(ctx, cfg.RepoPath)
	if err != nil {
		repoHash = ""
	}

	key := fmt.Sprintf("%s:%s:%s:%s:%d",
		cfg.RepoPath,
		repoHash,
		cfg.PathFilter,
		strings.Join(cfg.Excludes, ","),
		currentCacheVersion,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
