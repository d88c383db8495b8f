package memory

import (
	"strings"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"

	"github.com/patrickmn/go-cache"
)

// RecordCache keeps recently touched workspace file records in memory so
// repeated reads within a session skip the database. Entries expire after a
// short TTL and the cache holds at most maxEntries records; a miss is always
// answered from the store, so stale or evicted entries only cost a query.
type RecordCache struct {
	cache      *cache.Cache
	maxEntries int
}

func NewRecordCache(ttl time.Duration, maxEntries int) *RecordCache {
	// Purge expired items at twice the TTL so the janitor stays cheap.
	c := cache.New(ttl, 2*ttl)
	return &RecordCache{
		cache:      c,
		maxEntries: maxEntries,
	}
}

func recordKey(namespace entity.Namespace, path string) string {
	return namespace.String() + "|" + path
}

func (r *RecordCache) Get(namespace entity.Namespace, path string) (*entity.FileRecord, bool) {
	if x, found := r.cache.Get(recordKey(namespace, path)); found {
		return x.(*entity.FileRecord), true
	}
	return nil, false
}

func (r *RecordCache) Set(namespace entity.Namespace, path string, record *entity.FileRecord) {
	key := recordKey(namespace, path)
	if _, exists := r.cache.Get(key); !exists && r.cache.ItemCount() >= r.maxEntries {
		r.evictOldest()
	}
	r.cache.Set(key, record, cache.DefaultExpiration)
}

func (r *RecordCache) Delete(namespace entity.Namespace, path string) {
	r.cache.Delete(recordKey(namespace, path))
}

func (r *RecordCache) Flush() {
	r.cache.Flush()
}

// FlushNamespace drops every cached record of one namespace, leaving other
// sessions' entries alone.
func (r *RecordCache) FlushNamespace(namespace entity.Namespace) {
	prefix := namespace.String() + "|"
	for k := range r.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			r.cache.Delete(k)
		}
	}
}

func (r *RecordCache) Len() int {
	return r.cache.ItemCount()
}

// evictOldest drops the entry closest to expiration. All entries share one
// TTL, so that is also the least recently written one.
func (r *RecordCache) evictOldest() {
	var oldestKey string
	var oldestExp int64
	for k, item := range r.cache.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey = k
			oldestExp = item.Expiration
		}
	}
	if oldestKey != "" {
		r.cache.Delete(oldestKey)
	}
}
