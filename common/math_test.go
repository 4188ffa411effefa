package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestAlignUp(t *testing.T) {
	tests := []struct {
		size, alignment, want int
	}{
		{80, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{80, 16, 80},
		{76, 16, 80},
		{80, 0, 80},
		{80, 1, 80},
		{0, 256, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignUp(tt.size, tt.alignment), "AlignUp(%d, %d)", tt.size, tt.alignment)
	}
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite())
	assert.True(t, IsFinite(0, -1, 3.5e38))
	assert.False(t, IsFinite(1, math32.NaN()))
	assert.False(t, IsFinite(math32.Inf(1)))
	assert.False(t, IsFinite(math32.Inf(-1), 2))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(0.5, 1, 2))
	assert.Equal(t, float32(2), Clamp(3, 1, 2))
	assert.Equal(t, float32(1.5), Clamp(1.5, 1, 2))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, float32(3), Coalesce(float32(0), 3))
}
