package sandbox

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// collection is a schemaless in-memory resource table. The sandbox stores
// every CRUD resource as raw JSON objects; the typed contracts live in the
// client, which is the thing under test.
type collection struct {
	mu    sync.RWMutex
	items map[string]map[string]interface{}
	order []string
}

func newCollection() *collection {
	return &collection{items: make(map[string]map[string]interface{})}
}

// cloneItem copies an item map. Every item that crosses the collection
// boundary is a copy: handlers marshal results after the lock is released,
// and sharing the stored map would race with a concurrent update mutating
// it in place.
func cloneItem(item map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(item))
	for k, v := range item {
		cp[k] = v
	}
	return cp
}

func (col *collection) insert(item map[string]interface{}) map[string]interface{} {
	now := time.Now().UTC().Format(time.RFC3339)
	id := uuid.NewString()
	item["id"] = id
	item["created_at"] = now
	item["updated_at"] = now

	col.mu.Lock()
	col.items[id] = cloneItem(item)
	col.order = append(col.order, id)
	col.mu.Unlock()
	return item
}

func (col *collection) get(id string) (map[string]interface{}, bool) {
	col.mu.RLock()
	defer col.mu.RUnlock()
	item, ok := col.items[id]
	if !ok {
		return nil, false
	}
	return cloneItem(item), true
}

// update merges fields into an existing item. The id and created_at fields
// are immutable.
func (col *collection) update(id string, fields map[string]interface{}) (map[string]interface{}, bool) {
	col.mu.Lock()
	defer col.mu.Unlock()
	item, ok := col.items[id]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}
		item[k] = v
	}
	item["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return cloneItem(item), true
}

func (col *collection) delete(id string) bool {
	col.mu.Lock()
	defer col.mu.Unlock()
	if _, ok := col.items[id]; !ok {
		return false
	}
	delete(col.items, id)
	for i, oid := range col.order {
		if oid == id {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return true
}

// list returns items matching every filter (string equality), windowed by
// limit/offset, in insertion order.
func (col *collection) list(filters map[string]string, limit, offset int) ([]map[string]interface{}, int) {
	col.mu.RLock()
	defer col.mu.RUnlock()

	matched := make([]map[string]interface{}, 0, len(col.order))
	for _, id := range col.order {
		item := col.items[id]
		if matchesFilters(item, filters) {
			matched = append(matched, cloneItem(item))
		}
	}
	total := len(matched)

	lo := offset
	if lo > total {
		lo = total
	}
	hi := lo + limit
	if hi > total {
		hi = total
	}
	return matched[lo:hi], total
}

func matchesFilters(item map[string]interface{}, filters map[string]string) bool {
	for k, want := range filters {
		v, ok := item[k]
		if !ok || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}
