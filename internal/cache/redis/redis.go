package redis

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/bridgehealth/consentbridge/internal/cache"
)

// Cache implementa cache.Client sobre Redis.
type Cache struct {
	c      *rdb.Client
	prefix string
}

// New crea un cliente Redis. No verifica la conexión; usar Ping.
func New(addr string, db int, prefix string) *Cache {
	return &Cache{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
	}
}

func (r *Cache) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, r.key(key)).Bytes()
	if err == rdb.Nil {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.c.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Cache) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.key(key)).Err()
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }
func (r *Cache) Close() error                   { return r.c.Close() }

// Client expone el cliente subyacente para compartir la conexión
// (ej. con el rate limiter).
func (r *Cache) Client() *rdb.Client { return r.c }
