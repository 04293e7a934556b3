package marketdata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/domain"
	"solana-trade-engine/internal/observability"
)

// Default cache configuration.
const (
	DefaultTTL            = 10 * time.Minute
	DefaultInterCallDelay = 1 * time.Second // provider rate limit: 1 request/second
)

// Archiver receives freshly fetched snapshots for offline retention.
// Failures must not affect the serving path.
type Archiver interface {
	InsertBulk(ctx context.Context, snaps []*domain.MarketSnapshot) error
}

// Cache is a TTL-bounded store of market snapshots backed by batched
// provider calls. Entries are read-mostly; a race between two concurrent
// refreshes of the same expired entry is tolerated (last write wins, the
// re-fetch is idempotent).
type Cache struct {
	provider       Provider
	ttl            time.Duration
	batchSize      int
	interCallDelay time.Duration
	archiver       Archiver
	logger         *zap.Logger

	mu      sync.RWMutex
	entries map[string]*domain.MarketSnapshot

	// paceMu serializes provider calls for rate-limit pacing.
	paceMu   sync.Mutex
	lastCall time.Time

	now func() time.Time
}

// CacheOption configures Cache.
type CacheOption func(*Cache)

// WithTTL sets snapshot expiry.
func WithTTL(d time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = d }
}

// WithBatchSize sets the per-call address batch limit.
func WithBatchSize(n int) CacheOption {
	return func(c *Cache) { c.batchSize = n }
}

// WithInterCallDelay sets the minimum gap between provider calls.
func WithInterCallDelay(d time.Duration) CacheOption {
	return func(c *Cache) { c.interCallDelay = d }
}

// WithArchiver forwards every fetched snapshot batch for retention.
func WithArchiver(a Archiver) CacheOption {
	return func(c *Cache) { c.archiver = a }
}

// withNow overrides the clock for tests.
func withNow(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a snapshot cache over a provider.
func NewCache(provider Provider, logger *zap.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		provider:       provider,
		ttl:            DefaultTTL,
		batchSize:      MaxBatchSize,
		interCallDelay: DefaultInterCallDelay,
		logger:         logger,
		entries:        make(map[string]*domain.MarketSnapshot),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the snapshot for one instrument, refreshing on miss or expiry.
// The result is always well-formed: a failed provider lookup yields a
// zero-valued snapshot, never an error for that instrument.
func (c *Cache) Get(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	snaps, err := c.GetBatch(ctx, []string{address})
	if err != nil {
		return nil, err
	}
	return snaps[address], nil
}

// GetBatch returns snapshots for all addresses, issuing the minimum number
// of provider calls to cover the missing/expired ones.
func (c *Cache) GetBatch(ctx context.Context, addresses []string) (map[string]*domain.MarketSnapshot, error) {
	result := make(map[string]*domain.MarketSnapshot, len(addresses))
	var missing []string

	// Duplicates in the input collapse to one lookup each.
	seen := make(map[string]struct{}, len(addresses))
	c.mu.RLock()
	for _, addr := range addresses {
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		if snap, ok := c.entries[addr]; ok && c.fresh(snap) {
			cp := *snap
			result[addr] = &cp
		} else {
			missing = append(missing, addr)
		}
	}
	c.mu.RUnlock()

	observability.RecordCacheAccess(len(result), len(missing))
	if len(missing) == 0 {
		return result, nil
	}

	for start := 0; start < len(missing); start += c.batchSize {
		end := start + c.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]

		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		fetched, err := c.provider.FetchSnapshots(ctx, chunk)
		if err != nil {
			// Whole-chunk failure: every instrument in it degrades to a
			// zero snapshot so downstream consumers keep working.
			c.logger.Warn("snapshot batch fetch failed",
				zap.Int("addresses", len(chunk)), zap.Error(err))
			for _, addr := range chunk {
				result[addr] = domain.ZeroSnapshot(addr)
			}
			continue
		}

		var archived []*domain.MarketSnapshot
		c.mu.Lock()
		for _, addr := range chunk {
			snap, ok := fetched[addr]
			if !ok || snap == nil {
				// Partial failure: this instrument did not populate.
				// Not cached, so the next access retries.
				result[addr] = domain.ZeroSnapshot(addr)
				continue
			}
			cp := *snap
			c.entries[addr] = &cp
			out := *snap
			result[addr] = &out
			if c.archiver != nil {
				keep := *snap
				archived = append(archived, &keep)
			}
		}
		c.mu.Unlock()

		if len(archived) > 0 {
			go c.archive(archived)
		}
	}

	return result, nil
}

// archive forwards a fetched batch to the retention store. Runs detached
// from the request: analytics writes never slow or fail the serving path.
func (c *Cache) archive(snaps []*domain.MarketSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.archiver.InsertBulk(ctx, snaps); err != nil {
		c.logger.Warn("snapshot archive failed",
			zap.Int("snapshots", len(snaps)), zap.Error(err))
	}
}

// PriceHistory returns recent price points for one instrument, bypassing
// the snapshot TTL (history grows monotonically and is cheap to refetch).
func (c *Cache) PriceHistory(ctx context.Context, address string, limit int) ([]domain.PricePoint, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	return c.provider.FetchPriceHistory(ctx, address, limit)
}

// TokenSecurity returns the provider's safety assessment for an instrument.
func (c *Cache) TokenSecurity(ctx context.Context, address string) (*TokenSecurity, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	return c.provider.FetchTokenSecurity(ctx, address)
}

// fresh reports whether a cached snapshot is within its TTL.
func (c *Cache) fresh(snap *domain.MarketSnapshot) bool {
	return c.now().UnixMilli()-snap.FetchedAtMs < c.ttl.Milliseconds()
}

// pace enforces the inter-call delay against the provider.
func (c *Cache) pace(ctx context.Context) error {
	c.paceMu.Lock()
	defer c.paceMu.Unlock()

	elapsed := c.now().Sub(c.lastCall)
	if wait := c.interCallDelay - elapsed; wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	c.lastCall = c.now()
	return nil
}
