package vec

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"modernc.org/sqlite/vtab"
)

// ModuleName is the name vec tables are created with (USING vec(...)).
const ModuleName = "vec"

var registerOnce struct {
	sync.Once
	err error
}

// Register registers the vec virtual table module. Registration is process
// wide and applies to connections opened afterwards, so it has to happen
// before the first query on db. Repeated calls are no-ops.
func Register(db *sql.DB) error {
	registerOnce.Do(func() {
		if err := vtab.RegisterModule(db, ModuleName, &Module{}); err != nil {
			if !strings.Contains(err.Error(), "already registered") {
				registerOnce.err = err
			}
		}
	})
	return registerOnce.err
}

// stores maps a store id (the store= table option) to the databases its
// shadow can be read from. Several handles may share one database file, and
// so its store id; the most recently attached open handle serves reads.
var stores = struct {
	mu   sync.RWMutex
	byID map[string][]*sql.DB
}{byID: make(map[string][]*sql.DB)}

// Attach binds storeID to db so that vec cursors of tables declared with
// store='<storeID>' can read their shadow rows.
func Attach(storeID string, db *sql.DB) {
	stores.mu.Lock()
	stores.byID[storeID] = append(stores.byID[storeID], db)
	stores.mu.Unlock()
}

// Detach removes the binding of db. Cached indexes of the store are dropped
// once its last handle is detached.
func Detach(storeID string, db *sql.DB) {
	stores.mu.Lock()
	dbs := stores.byID[storeID]
	for i := len(dbs) - 1; i >= 0; i-- {
		if dbs[i] == db {
			dbs = append(dbs[:i:i], dbs[i+1:]...)
			break
		}
	}
	last := len(dbs) == 0
	if last {
		delete(stores.byID, storeID)
	} else {
		stores.byID[storeID] = dbs
	}
	stores.mu.Unlock()
	if last {
		dropCache(storeID)
	}
}

func lookupStore(storeID string) (*sql.DB, error) {
	stores.mu.RLock()
	defer stores.mu.RUnlock()
	dbs := stores.byID[storeID]
	if len(dbs) == 0 {
		return nil, fmt.Errorf("vec: store %q is not attached", storeID)
	}
	return dbs[len(dbs)-1], nil
}
