// Package iocache persists mined history and run tracking in SQL stores.
package iocache

import (
	"sync"

	"github.com/huangsam/historian/internal/contract"
)

// CacheStoreManager manages the history cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	history      contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetHistoryStore returns the history CacheStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
