package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cache:"

// Entry is one cached response, keyed by request URL.
type Entry struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"stored_at"`
}

// Partition is a named cache store holding entries for one strategy class.
// Entries persist until the partition is cleared or its versioned name is
// retired on activation; there is no eviction.
type Partition interface {
	Name() string
	Get(ctx context.Context, url string) (*Entry, error)
	Put(ctx context.Context, url string, e *Entry) error
	Clear(ctx context.Context) error
}

// Caches owns the Redis-backed partitions for one cache generation
// (name-version pair).
type Caches struct {
	rdb     *redis.Client
	name    string
	version string
}

func NewCaches(rdb *redis.Client, name, version string) *Caches {
	return &Caches{rdb: rdb, name: name, version: version}
}

// VersionedName is the current cache generation, e.g. "whatsapp-lobby-v2".
func (c *Caches) VersionedName() string {
	return c.name + "-" + c.version
}

// Partition returns the store for one strategy class.
func (c *Caches) Partition(class string) Partition {
	return &redisPartition{
		rdb:    c.rdb,
		prefix: keyPrefix + c.VersionedName() + ":" + class + ":",
		name:   c.VersionedName() + "-" + class,
	}
}

// Names lists all cache generations currently present in Redis.
func (c *Caches) Names(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), keyPrefix)
		if i := strings.IndexByte(rest, ':'); i > 0 {
			gen := rest[:i]
			if !seen[gen] {
				seen[gen] = true
				names = append(names, gen)
			}
		}
	}
	return names, iter.Err()
}

// DeleteStale removes every entry belonging to a generation other than the
// current one. Returns how many keys were deleted.
func (c *Caches) DeleteStale(ctx context.Context) (int, error) {
	current := keyPrefix + c.VersionedName() + ":"
	deleted := 0
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if strings.HasPrefix(key, current) {
			continue
		}
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}

// ClearAll drops every partition of the current generation.
func (c *Caches) ClearAll(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+c.VersionedName()+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// EntryCount counts cached entries across the current generation.
func (c *Caches) EntryCount(ctx context.Context) (int, error) {
	n := 0
	iter := c.rdb.Scan(ctx, 0, keyPrefix+c.VersionedName()+":*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}

type redisPartition struct {
	rdb    *redis.Client
	prefix string
	name   string
}

func (p *redisPartition) Name() string { return p.name }

func (p *redisPartition) Get(ctx context.Context, url string) (*Entry, error) {
	raw, err := p.rdb.Get(ctx, p.prefix+url).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (p *redisPartition) Put(ctx context.Context, url string, e *Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	// No TTL: entries live until the partition is cleared or versioned out.
	return p.rdb.Set(ctx, p.prefix+url, b, 0).Err()
}

func (p *redisPartition) Clear(ctx context.Context) error {
	iter := p.rdb.Scan(ctx, 0, p.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := p.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
