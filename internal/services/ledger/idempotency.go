package ledger

import (
	"context"
	"time"
)

// CacheClient is the subset of the cache service the index needs.
type CacheClient interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheIndex struct {
	cache CacheClient
}

// NewIdempotencyIndex creates a cache-backed idempotency index. Entries
// expire after their TTL; the unique key constraint on the transaction log
// remains the source of truth, so expiry only slows replays down.
func NewIdempotencyIndex(cache CacheClient) IdempotencyIndex {
	if cache == nil {
		panic("cache is required")
	}
	return &cacheIndex{cache: cache}
}

func (i *cacheIndex) Get(ctx context.Context, key string) (uint, bool, error) {
	var txID uint
	found, err := i.cache.Get(ctx, idempotencyCachePrefix+key, &txID)
	if err != nil || !found {
		return 0, false, err
	}
	return txID, true, nil
}

func (i *cacheIndex) Put(ctx context.Context, key string, transactionID uint, ttl time.Duration) error {
	return i.cache.SetWithTTL(ctx, idempotencyCachePrefix+key, transactionID, ttl)
}
