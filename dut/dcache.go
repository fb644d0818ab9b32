package dut

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// CacheConfig describes the L1 data cache charged to loads and stores.
type CacheConfig struct {
	// Size in bytes.
	Size int `json:"size" yaml:"size"`

	// Associativity is the number of ways.
	Associativity int `json:"associativity" yaml:"associativity"`

	// BlockSize is the line size in bytes.
	BlockSize int `json:"block_size" yaml:"block_size"`

	// HitLatency in cycles.
	HitLatency uint64 `json:"hit_latency" yaml:"hit_latency"`

	// MissLatency in cycles, including the refill.
	MissLatency uint64 `json:"miss_latency" yaml:"miss_latency"`
}

// DefaultL1DConfig returns a small 16KB 4-way data cache with 16B lines,
// sized like the L1D of a simple in-order LA32R core.
func DefaultL1DConfig() CacheConfig {
	return CacheConfig{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     16,
		HitLatency:    2,
		MissLatency:   20,
	}
}

// Validate checks the geometry.
func (c CacheConfig) Validate() error {
	if c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("cache associativity and block_size must be > 0")
	}
	if c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("cache block_size %d is not a power of two", c.BlockSize)
	}
	if c.Size <= 0 || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("cache size %d is not a multiple of associativity*block_size", c.Size)
	}
	if c.HitLatency == 0 || c.MissLatency < c.HitLatency {
		return fmt.Errorf("cache latencies must satisfy 0 < hit_latency <= miss_latency")
	}
	return nil
}

// CacheStats holds data cache statistics.
type CacheStats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// DataCache is a write-allocate, write-back tag model. Data stays in the
// emulator memory; only hit/miss timing is derived here.
type DataCache struct {
	config    CacheConfig
	directory *akitacache.DirectoryImpl
	stats     CacheStats
}

// NewDataCache creates a cold data cache.
func NewDataCache(config CacheConfig) *DataCache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	return &DataCache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Stats returns cache statistics.
func (c *DataCache) Stats() CacheStats {
	return c.stats
}

// Access looks up addr, allocating the line on a miss, and returns the
// access latency.
func (c *DataCache) Access(addr uint64, write bool) uint64 {
	blockAddr := addr &^ uint64(c.config.BlockSize-1)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		if write {
			block.IsDirty = true
		}
		return c.config.HitLatency
	}

	c.stats.Misses++
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return c.config.MissLatency
	}
	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = write
	c.directory.Visit(victim)

	return c.config.MissLatency
}
