package vec

import (
	"strings"
	"sync"

	idxapi "github.com/viant/chunkstore/index"
)

// snapshot is an index built from the shadow table at a given info version.
type snapshot struct {
	version int64
	idx     idxapi.Index
	vectors map[int64][]float32
}

// Global shared cache of indices keyed by store/table for cross-connection reuse.
var sharedCache = struct {
	mu    sync.RWMutex
	byKey map[string]*cacheEntry
}{byKey: make(map[string]*cacheEntry)}

type cacheEntry struct {
	mu       sync.RWMutex
	snap     *snapshot
	building bool
	cond     *sync.Cond
}

func newCacheEntry() *cacheEntry {
	e := &cacheEntry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// current returns the snapshot when it was built at version.
func (e *cacheEntry) current(version int64) *snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap != nil && e.snap.version == version {
		return e.snap
	}
	return nil
}

func (e *cacheEntry) set(snap *snapshot) {
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
}

func (e *cacheEntry) waitForBuild() {
	e.mu.Lock()
	for e.building {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

func (e *cacheEntry) startBuild() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.building {
		return false
	}
	e.building = true
	return true
}

func (e *cacheEntry) finishBuild() {
	e.mu.Lock()
	e.building = false
	e.cond.Broadcast()
	e.mu.Unlock()
}

func cacheKey(storeID, tableName string) string {
	return storeID + "|" + tableName
}

func getCacheEntry(key string) *cacheEntry {
	sharedCache.mu.RLock()
	entry := sharedCache.byKey[key]
	sharedCache.mu.RUnlock()
	if entry != nil {
		return entry
	}
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	if entry = sharedCache.byKey[key]; entry == nil {
		entry = newCacheEntry()
		sharedCache.byKey[key] = entry
	}
	return entry
}

// InvalidateCache clears cached indices of a table across active connections
// and returns how many entries were cleared. An empty storeID matches all stores.
func InvalidateCache(storeID, tableName string) int {
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	count := 0
	for k, entry := range sharedCache.byKey {
		s, t, _ := strings.Cut(k, "|")
		if t != tableName || (storeID != "" && s != storeID) {
			continue
		}
		entry.set(nil)
		count++
	}
	return count
}

func dropCache(storeID string) {
	prefix := storeID + "|"
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	for k := range sharedCache.byKey {
		if strings.HasPrefix(k, prefix) {
			delete(sharedCache.byKey, k)
		}
	}
}
