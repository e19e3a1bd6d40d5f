package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/formqc/pkg/datastore"
)

// Connect establishes a redis client with retry.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConnString, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		default:
			time.Sleep(cfg.RetryInterval)
		}
	}
	return nil, ErrNotReady
}

// Cache decorates a Datastore, memoizing the external code lookups (RXCUI,
// center ids) in Redis. Previous-record fetches pass through untouched:
// visit history is participant-local and cheap relative to the reference
// code services the inner store may be calling.
type Cache struct {
	inner  datastore.Datastore
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New wraps inner with a Redis lookup cache.
func New(inner datastore.Datastore, client *redis.Client, cfg Config) *Cache {
	return &Cache{inner: inner, client: client, ttl: cfg.LookupTTL, prefix: cfg.KeyPrefix}
}

func (c *Cache) GetPreviousRecord(ctx context.Context, orderBy string, current datastore.Record, ignoreEmpty []string) (datastore.Record, error) {
	return c.inner.GetPreviousRecord(ctx, orderBy, current, ignoreEmpty)
}

func (c *Cache) IsValidRxcui(ctx context.Context, code int64) (bool, error) {
	return c.lookup(ctx, fmt.Sprintf("%srxcui:%d", c.prefix, code), func() (bool, error) {
		return c.inner.IsValidRxcui(ctx, code)
	})
}

func (c *Cache) IsValidADCID(ctx context.Context, adcid int64, own bool) (bool, error) {
	return c.lookup(ctx, fmt.Sprintf("%sadcid:%d:%t", c.prefix, adcid, own), func() (bool, error) {
		return c.inner.IsValidADCID(ctx, adcid, own)
	})
}

// lookup serves a cached verdict when present; cache faults fall through to
// the inner store rather than failing the validation run.
func (c *Cache) lookup(ctx context.Context, key string, fetch func() (bool, error)) (bool, error) {
	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		return cached == "1", nil
	}

	valid, err := fetch()
	if err != nil {
		return false, err
	}

	verdict := "0"
	if valid {
		verdict = "1"
	}
	_ = c.client.Set(ctx, key, verdict, c.ttl).Err()
	return valid, nil
}
