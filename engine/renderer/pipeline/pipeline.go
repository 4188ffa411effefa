package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultVertexEntryPoint is the WGSL vertex entry point of the full-screen shader.
	DefaultVertexEntryPoint = "vs_main"

	// DefaultFragmentEntryPoint is the WGSL fragment entry point of the full-screen shader.
	DefaultFragmentEntryPoint = "fs_main"

	// DefaultCacheSize is the number of specialized pipelines kept alive.
	DefaultCacheSize = 8
)

// ErrNoBuilder is returned by NewCache without a pipeline builder.
var ErrNoBuilder = errors.New("pipeline: builder is required")

// Config fully describes a render pipeline. It is comparable and used as the cache key, so a
// surface format change after a resize specializes a new pipeline instead of reusing a stale one.
type Config struct {
	Label              string
	Source             string
	VertexEntryPoint   string
	FragmentEntryPoint string
	Format             wgpu.TextureFormat
	Topology           wgpu.PrimitiveTopology
	CullMode           wgpu.CullMode
}

// NewConfig creates a Config for a vertex-buffer-less full-screen pass.
//
// Parameters:
//   - source: the complete WGSL module source
//   - options: functional options
//
// Returns:
//   - Config: the pipeline configuration
func NewConfig(source string, options ...ConfigBuilderOption) Config {
	c := Config{
		Label:              "orbitview",
		Source:             source,
		VertexEntryPoint:   DefaultVertexEntryPoint,
		FragmentEntryPoint: DefaultFragmentEntryPoint,
		Topology:           wgpu.PrimitiveTopologyTriangleList,
		CullMode:           wgpu.CullModeNone,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithFormat returns a copy of the Config targeting format.
//
// Parameters:
//   - format: the color target format
//
// Returns:
//   - Config: the specialized configuration
func (c Config) WithFormat(format wgpu.TextureFormat) Config {
	c.Format = format
	return c
}

// Builder creates the GPU pipeline for a Config.
type Builder func(conf Config) (*wgpu.RenderPipeline, error)

type cacheImpl struct {
	mu *sync.Mutex

	build   Builder
	release func(*wgpu.RenderPipeline)
	size    int
	cache   *lru.Cache[Config, *wgpu.RenderPipeline]
}

// Cache defines the interface for a bounded cache of specialized render pipelines.
// Evicted pipelines are released.
type Cache interface {
	// Get returns the pipeline for conf, building it on first use.
	//
	// Parameters:
	//   - conf: the pipeline configuration
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the cached or newly built pipeline
	//   - error: the builder's error, wrapped
	Get(conf Config) (*wgpu.RenderPipeline, error)

	// Len returns the number of cached pipelines.
	Len() int

	// Purge releases and drops every cached pipeline.
	Purge()
}

var _ Cache = &cacheImpl{}

// NewCache creates a new Cache.
//
// Parameters:
//   - build: creates a pipeline for a configuration it has not seen
//   - options: functional options
//
// Returns:
//   - Cache: the newly created cache
//   - error: ErrNoBuilder without a builder, or an error for an invalid size
func NewCache(build Builder, options ...CacheBuilderOption) (Cache, error) {
	c := &cacheImpl{
		mu:      &sync.Mutex{},
		build:   build,
		release: releasePipeline,
		size:    DefaultCacheSize,
	}
	for _, option := range options {
		option(c)
	}
	if c.build == nil {
		return nil, ErrNoBuilder
	}

	cache, err := lru.NewWithEvict[Config, *wgpu.RenderPipeline](c.size, func(_ Config, p *wgpu.RenderPipeline) {
		c.release(p)
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

func (c *cacheImpl) Get(conf Config) (*wgpu.RenderPipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.cache.Get(conf); ok {
		return p, nil
	}

	p, err := c.build(conf)
	if err != nil {
		return nil, fmt.Errorf("build pipeline %q: %w", conf.Label, err)
	}
	c.cache.Add(conf, p)
	return p, nil
}

func (c *cacheImpl) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *cacheImpl) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

func releasePipeline(p *wgpu.RenderPipeline) {
	if p != nil {
		p.Release()
	}
}
