package utils

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Default page cache ttl, matching the index page lifetime
	defaultPageTTL = 20 * time.Second

	pageKeyPrefix = "cache:page:"
)

// PageStore keeps fully rendered response bodies keyed by URL. Entries leave the
// store only on TTL expiry or an explicit Clear; writes to posts do not touch it.
type PageStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration)
	Clear(ctx context.Context) error
}

// RedisPageStore stores pages in Redis under the cache:page: prefix.
type RedisPageStore struct {
	rc *redis.Client
}

func NewRedisPageStore(rc *redis.Client) *RedisPageStore {
	return &RedisPageStore{rc: rc}
}

func (s *RedisPageStore) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := s.rc.Get(ctx, pageKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Sugar.Warnf("page cache get failed key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (s *RedisPageStore) Set(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultPageTTL
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.rc.Set(ctx, pageKeyPrefix+key, body, ttl).Err(); err != nil {
		Sugar.Warnf("page cache set failed key=%s err=%v", key, err)
	}
}

// Clear deletes every cached page using SCAN so large keyspaces are not blocked.
func (s *RedisPageStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for {
		keys, next, err := s.rc.Scan(ctx, cursor, pageKeyPrefix+"*", 1000).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			pipe := s.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

type memoryEntry struct {
	body      []byte
	expiresAt time.Time
}

const (
	memoryPageSweepInterval = time.Minute
	memoryPageMaxEntries    = 10000
)

// MemoryPageStore is the single-instance fallback used when Redis is not configured.
// Expired entries are swept from Set at most once per sweep interval, and the
// entry count is capped by evicting the entry closest to expiry.
type MemoryPageStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	now        func() time.Time
	maxEntries int
	lastSweep  time.Time
}

func NewMemoryPageStore() *MemoryPageStore {
	return &MemoryPageStore{
		entries:    map[string]memoryEntry{},
		now:        time.Now,
		maxEntries: memoryPageMaxEntries,
	}
}

func (s *MemoryPageStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return entry.body, true
}

func (s *MemoryPageStore) Set(_ context.Context, key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultPageTTL
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= memoryPageSweepInterval {
		s.sweep(now)
	}
	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.sweep(now)
		if len(s.entries) >= s.maxEntries {
			s.evictSoonest()
		}
	}
	s.entries[key] = memoryEntry{body: cp, expiresAt: now.Add(ttl)}
}

func (s *MemoryPageStore) sweep(now time.Time) {
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}

func (s *MemoryPageStore) evictSoonest() {
	var victim string
	var soonest time.Time
	for key, entry := range s.entries {
		if victim == "" || entry.expiresAt.Before(soonest) {
			victim, soonest = key, entry.expiresAt
		}
	}
	delete(s.entries, victim)
}

func (s *MemoryPageStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = map[string]memoryEntry{}
	s.mu.Unlock()
	return nil
}

// PageKey builds the store key for a request URI as seen by a viewer (0 = anonymous).
func PageKey(requestURI string, viewerID uint) string {
	var b strings.Builder
	if viewerID == 0 {
		b.WriteString("anon")
	} else {
		b.WriteString("u")
		b.WriteString(uintToString(viewerID))
	}
	b.WriteString(":")
	b.WriteString(requestURI)
	return b.String()
}
