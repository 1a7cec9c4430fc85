package versioning

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/cache"
	"github.com/flowvault/flowvault/internal/flow"
	"github.com/flowvault/flowvault/internal/metrics"
)

// Cache key schemes. The active slot tracks the flow's currently active
// version; the version slot holds any version read keyed by its ID.
func activeVersionKey(flowID uuid.UUID) string {
	return "flow:" + flowID.String() + ":active_version"
}

func versionKey(versionID uuid.UUID) string {
	return "flow_version:" + versionID.String()
}

// versionCache adapts the byte cache to version read models. Every
// method is best-effort: backend failures are logged, counted, and
// reported as misses. A nil backend disables caching entirely.
type versionCache struct {
	backend cache.Cache
	log     *slog.Logger
	metrics *metrics.Metrics
}

func (c *versionCache) getActive(ctx context.Context, flowID uuid.UUID) *flow.VersionRead {
	return c.get(ctx, activeVersionKey(flowID), metrics.SlotActiveVersion)
}

func (c *versionCache) getVersion(ctx context.Context, versionID uuid.UUID) *flow.VersionRead {
	return c.get(ctx, versionKey(versionID), metrics.SlotVersion)
}

func (c *versionCache) get(ctx context.Context, key, slot string) *flow.VersionRead {
	if c.backend == nil {
		return nil
	}

	data, found, err := c.backend.Get(ctx, key)
	if err != nil {
		c.metrics.RecordCacheRequest(slot, metrics.ResultError)
		c.log.Warn("cache get failed", "key", key, "error", err)
		return nil
	}
	if !found {
		c.metrics.RecordCacheRequest(slot, metrics.ResultMiss)
		return nil
	}

	read, err := decodeVersionRead(data)
	if err != nil {
		// Corrupt entry: drop it and treat as a miss
		c.metrics.RecordCacheRequest(slot, metrics.ResultError)
		c.log.Warn("cache entry undecodable", "key", key, "error", err)
		_ = c.backend.Delete(ctx, key)
		return nil
	}

	c.metrics.RecordCacheRequest(slot, metrics.ResultHit)
	return read
}

// putActive fills the flow's active slot with the read model.
func (c *versionCache) putActive(ctx context.Context, flowID uuid.UUID, read *flow.VersionRead) {
	c.put(ctx, activeVersionKey(flowID), read)
}

// putVersion fills the per-version slot keyed by the read's version ID.
func (c *versionCache) putVersion(ctx context.Context, read *flow.VersionRead) {
	c.put(ctx, versionKey(read.ID), read)
}

func (c *versionCache) put(ctx context.Context, key string, read *flow.VersionRead) {
	if c.backend == nil {
		return
	}
	data, err := json.Marshal(read)
	if err != nil {
		c.log.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data); err != nil {
		c.log.Warn("cache set failed", "key", key, "error", err)
	}
}

// invalidateActive drops the flow's active slot.
func (c *versionCache) invalidateActive(ctx context.Context, flowID uuid.UUID) {
	if c.backend == nil {
		return
	}
	key := activeVersionKey(flowID)
	if err := c.backend.Delete(ctx, key); err != nil {
		c.log.Warn("cache delete failed", "key", key, "error", err)
	}
}

// decodeVersionRead parses a cached read model. Numbers inside the
// document decode as json.Number, matching what store reads produce, so
// cached and uncached results are indistinguishable to callers.
func decodeVersionRead(data []byte) (*flow.VersionRead, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var read flow.VersionRead
	if err := dec.Decode(&read); err != nil {
		return nil, err
	}
	return &read, nil
}
