package vec

import (
	"database/sql"
	"testing"
)

func TestAttachDetach_SharedStoreID(t *testing.T) {
	first, second := &sql.DB{}, &sql.DB{}
	const storeID = "registry-shared"
	Attach(storeID, first)
	Attach(storeID, second)

	if db, err := lookupStore(storeID); err != nil || db != second {
		t.Fatalf("expected the latest handle, got %p, %v", db, err)
	}
	getCacheEntry(cacheKey(storeID, "t")).set(&snapshot{version: 1})

	Detach(storeID, second)
	if db, err := lookupStore(storeID); err != nil || db != first {
		t.Fatalf("expected the remaining handle after detach, got %p, %v", db, err)
	}
	if InvalidateCache(storeID, "t") != 1 {
		t.Fatalf("cache must survive while a handle is attached")
	}

	Detach(storeID, first)
	if _, err := lookupStore(storeID); err == nil {
		t.Fatalf("expected an error once every handle is detached")
	}
	if InvalidateCache(storeID, "t") != 0 {
		t.Fatalf("cache must be dropped with the last handle")
	}
}
