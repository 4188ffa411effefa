package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/orbitview/engine/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessInjectsStructAndBinding(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process(strings.Join([]string{
		"//@orbit:include frame",
		"  // @orbit:group 0 0 uniform frame frame",
		"//@orbit:include frame",
		"fn f() -> f32 { return frame.distance; }",
	}, "\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, camera.GPUFrameUniformSource), "struct is included once")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> frame: FrameUniform;")
	assert.True(t, strings.HasSuffix(out, "fn f() -> f32 { return frame.distance; }"))

	decl, ok := FindBinding(p.Declarations(), AnnotationArgFrame)
	require.True(t, ok)
	assert.Equal(t, 0, *decl.Group)
	assert.Equal(t, 0, *decl.Binding)
	assert.Equal(t, AnnotationArg("frame"), decl.Args[1])
	assert.Equal(t, 2, decl.Line)
}

func TestProcessLeavesPlainSourceAlone(t *testing.T) {
	p := NewPreProcessor()
	src := "// a comment mentioning orbit\nfn main() {}"
	out, err := p.Process(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
	assert.Empty(t, p.Declarations())

	_, ok := FindBinding(p.Declarations(), AnnotationArgFrame)
	assert.False(t, ok)
}

func TestProcessResetsDeclarations(t *testing.T) {
	p := NewPreProcessor()
	_, err := p.Process("//@orbit:group 1 2 uniform params frame")
	require.NoError(t, err)
	require.Len(t, p.Declarations(), 1)

	_, err = p.Process("fn main() {}")
	require.NoError(t, err)
	assert.Empty(t, p.Declarations())
}

func TestProcessRejectsMalformedAnnotations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "//@orbit:"},
		{"unknown type", "//@orbit:provider 0 0 frame"},
		{"unknown include", "//@orbit:include camera"},
		{"include arity", "//@orbit:include"},
		{"group arity", "//@orbit:group 0 0 uniform frame"},
		{"bad group", "//@orbit:group x 0 uniform frame frame"},
		{"negative binding", "//@orbit:group 0 -1 uniform frame frame"},
		{"bad address space", "//@orbit:group 0 0 storage frame frame"},
		{"bad struct", "//@orbit:group 0 0 uniform frame light"},
		{"duplicate binding", "//@orbit:group 0 0 uniform a frame\n//@orbit:group 0 0 uniform b frame"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(tt.src)
			assert.Error(t, err)
		})
	}
}
