// Package cache memoizes proximity analysis results keyed by a fingerprint
// of the dataset contents and the effective analysis settings. Any input
// change produces a new key, so entries never need explicit invalidation.
package cache

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/config"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/proximity"
)

const (
	defaultNumCounters = 1e5
	defaultBufferItems = 64
	defaultMaxMB       = 64
	defaultTTL         = 15 * time.Minute
)

// AnalysisCache holds recent analysis results. A nil *AnalysisCache is
// valid and caches nothing, which is how a disabled cache is wired.
type AnalysisCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a point-in-time hit/miss snapshot.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// New creates an AnalysisCache sized and aged from config.
func New(cfg config.CacheConfig) (*AnalysisCache, error) {
	maxMB := cfg.MaxMB
	if maxMB <= 0 {
		maxMB = defaultMaxMB
	}
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultTTL
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultNumCounters,
		MaxCost:     int64(maxMB) << 20,
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, eris.Wrap(err, "cache: create")
	}
	return &AnalysisCache{cache: c, ttl: ttl}, nil
}

// Key derives the cache key for one analysis request. The fingerprint
// covers everything the engine reads plus the premium flag echoed into the
// result settings, hashed over the point set sorted by ID so that input
// order does not matter.
func Key(d model.Dataset, opts proximity.AnalyzeOptions, data []model.DataPoint) string {
	h := fnv.New64a()

	writeString(h, d.SatisfactionScale)
	writeString(h, d.LoyaltyScale)
	writeFloat(h, d.Midpoint.Sat)
	writeFloat(h, d.Midpoint.Loy)
	writeInt(h, d.ApostlesZoneSize)
	writeInt(h, d.TerroristsZoneSize)
	writeBool(h, opts.ShowSpecialZones)
	writeBool(h, opts.ShowNearApostles)
	writeBool(h, opts.IsPremium)
	writeFloat(h, opts.Threshold)

	sorted := make([]model.DataPoint, len(data))
	copy(sorted, data)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, p := range sorted {
		writeString(h, p.ID)
		writeString(h, p.Name)
		writeFloat(h, p.Satisfaction)
		writeFloat(h, p.Loyalty)
		writeBool(h, p.Excluded)
	}

	return fmt.Sprintf("%s:%016x", d.ID, h.Sum64())
}

// Get returns the cached result for key, counting the hit or miss.
func (c *AnalysisCache) Get(key string) (*model.ProximityAnalysisResult, bool) {
	if c == nil {
		return nil, false
	}
	v, found := c.cache.Get(key)
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	res, ok := v.(*model.ProximityAnalysisResult)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return res, true
}

// Set stores a result under key with the configured TTL.
func (c *AnalysisCache) Set(key string, res *model.ProximityAnalysisResult) bool {
	if c == nil || res == nil {
		return false
	}
	return c.cache.SetWithTTL(key, res, estimateCost(res), c.ttl)
}

// Wait blocks until pending writes are applied. Ristretto sets are
// asynchronous, so tests call this before reading back.
func (c *AnalysisCache) Wait() {
	if c == nil {
		return
	}
	c.cache.Wait()
}

// Stats returns the hit/miss counters.
func (c *AnalysisCache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Close releases the cache's resources.
func (c *AnalysisCache) Close() {
	if c == nil {
		return
	}
	c.cache.Close()
}

// estimateCost approximates the in-memory size of a result so ristretto's
// MaxCost budget tracks real usage.
func estimateCost(res *model.ProximityAnalysisResult) int64 {
	cost := int64(256)
	for i := range res.Details {
		cost += 128 + int64(len(res.Details[i].Customers))*96
	}
	cost += int64(len(res.Crossroads)) * 128
	for _, s := range res.Summary.CrisisIndicators {
		cost += int64(len(s))
	}
	for _, s := range res.Summary.OpportunityIndicators {
		cost += int64(len(s))
	}
	return cost
}

func writeString(h hash.Hash64, s string) {
	h.Write([]byte(s)) //nolint:errcheck
	h.Write([]byte{0}) //nolint:errcheck
}

func writeFloat(h hash.Hash64, f float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	h.Write(b[:]) //nolint:errcheck
}

func writeInt(h hash.Hash64, n int) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	h.Write(b[:]) //nolint:errcheck
}

func writeBool(h hash.Hash64, v bool) {
	if v {
		h.Write([]byte{1}) //nolint:errcheck
		return
	}
	h.Write([]byte{0}) //nolint:errcheck
}
