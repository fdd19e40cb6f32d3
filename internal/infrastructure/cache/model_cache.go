package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/opsconsole/backend/internal/application/brain"
	"github.com/opsconsole/backend/internal/domain/demand"
)

// Default TTL for the cached latest model. Training runs invalidate the cache
// explicitly, so the TTL only bounds staleness when another process publishes
// a version behind our back.
const defaultModelTTL = 5 * time.Minute

// InMemoryModelCache caches the latest published demand model between
// predictions. A single slot suffices: explicit versions bypass the cache.
type InMemoryModelCache struct {
	mu        sync.RWMutex
	model     *demand.Model
	expiresAt time.Time
	ttl       time.Duration
	logger    *zap.Logger

	// Stats for monitoring
	hits   int64
	misses int64
}

// InMemoryModelCacheOption is a functional option for configuring the cache
type InMemoryModelCacheOption func(*InMemoryModelCache)

// WithModelTTL sets the time-to-live for the cached model
func WithModelTTL(ttl time.Duration) InMemoryModelCacheOption {
	return func(c *InMemoryModelCache) {
		c.ttl = ttl
	}
}

// WithModelCacheLogger sets the logger for the cache
func WithModelCacheLogger(logger *zap.Logger) InMemoryModelCacheOption {
	return func(c *InMemoryModelCache) {
		c.logger = logger
	}
}

// NewInMemoryModelCache creates a new in-memory model cache
func NewInMemoryModelCache(opts ...InMemoryModelCacheOption) *InMemoryModelCache {
	cache := &InMemoryModelCache{
		ttl:    defaultModelTTL,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get returns the cached model, or nil on a miss or expiry
func (c *InMemoryModelCache) Get() *demand.Model {
	c.mu.RLock()
	model, expiresAt := c.model, c.expiresAt
	c.mu.RUnlock()

	if model == nil || time.Now().After(expiresAt) {
		atomic.AddInt64(&c.misses, 1)
		return nil
	}

	atomic.AddInt64(&c.hits, 1)
	c.logger.Debug("model cache hit", zap.Int("version", model.Version))
	return model
}

// Set stores the model
func (c *InMemoryModelCache) Set(model *demand.Model) {
	if model == nil {
		return
	}

	c.mu.Lock()
	c.model = model
	c.expiresAt = time.Now().Add(c.ttl)
	c.mu.Unlock()

	c.logger.Debug("cached model",
		zap.Int("version", model.Version),
		zap.Duration("ttl", c.ttl))
}

// Invalidate drops the cached model
func (c *InMemoryModelCache) Invalidate() {
	c.mu.Lock()
	c.model = nil
	c.mu.Unlock()

	c.logger.Debug("model cache invalidated")
}

// GetStats returns cache statistics
func (c *InMemoryModelCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Ensure InMemoryModelCache implements brain.ModelCache
var _ brain.ModelCache = (*InMemoryModelCache)(nil)
