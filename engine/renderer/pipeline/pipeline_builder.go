package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// ConfigBuilderOption is a functional option used to configure a Config.
type ConfigBuilderOption func(*Config)

// WithLabel sets the debug label of the pipeline.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - ConfigBuilderOption: a function that sets the label
func WithLabel(label string) ConfigBuilderOption {
	return func(c *Config) {
		c.Label = label
	}
}

// WithEntryPoints overrides the vertex and fragment entry point names.
//
// Parameters:
//   - vertex: vertex stage entry point
//   - fragment: fragment stage entry point
//
// Returns:
//   - ConfigBuilderOption: a function that sets the entry points
func WithEntryPoints(vertex, fragment string) ConfigBuilderOption {
	return func(c *Config) {
		c.VertexEntryPoint = vertex
		c.FragmentEntryPoint = fragment
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - ConfigBuilderOption: a function that sets the topology
func WithTopology(topology wgpu.PrimitiveTopology) ConfigBuilderOption {
	return func(c *Config) {
		c.Topology = topology
	}
}

// WithCullMode sets the face culling mode.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - ConfigBuilderOption: a function that sets the cull mode
func WithCullMode(mode wgpu.CullMode) ConfigBuilderOption {
	return func(c *Config) {
		c.CullMode = mode
	}
}

// CacheBuilderOption is a functional option used to configure a Cache during construction.
type CacheBuilderOption func(*cacheImpl)

// WithCacheSize sets how many pipelines the cache keeps alive.
//
// Parameters:
//   - size: cache capacity, > 0
//
// Returns:
//   - CacheBuilderOption: a function that sets the capacity
func WithCacheSize(size int) CacheBuilderOption {
	return func(c *cacheImpl) {
		c.size = size
	}
}

// WithReleaseFunc replaces how evicted pipelines are released.
//
// Parameters:
//   - release: called for every evicted pipeline
//
// Returns:
//   - CacheBuilderOption: a function that sets the release function
func WithReleaseFunc(release func(*wgpu.RenderPipeline)) CacheBuilderOption {
	return func(c *cacheImpl) {
		c.release = release
	}
}
