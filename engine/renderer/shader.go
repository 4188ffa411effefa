package renderer

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/orbitview/engine/renderer/shader"
)

// DefaultShaderBody is the built-in full-screen shader: one oversized triangle whose fragments
// march rays from the camera origin through a pivot-centered scene.
//
//go:embed assets/fullscreen.wgsl
var DefaultShaderBody string

// ErrShader is returned when a shader body cannot be composed.
var ErrShader = errors.New("renderer: invalid shader")

// frameHeader declares FrameUniform as `frame` for bodies without annotations.
const frameHeader = "//@orbit:include frame\n//@orbit:group 0 0 uniform frame frame\n"

// ComposeShader runs body through the pre-processor and checks that the frame slot is read
// from group 0 binding 0, where the renderer binds it. Bodies without annotations get the
// FrameUniform struct and a `frame` binding prepended.
//
// Parameters:
//   - body: WGSL declaring vs_main and fs_main
//
// Returns:
//   - string: the complete shader module source
//   - error: ErrShader for malformed annotations or a misplaced frame binding
func ComposeShader(body string) (string, error) {
	if !strings.Contains(body, "@orbit:") {
		body = frameHeader + body
	}

	pp := shader.NewPreProcessor()
	src, err := pp.Process(body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrShader, err)
	}
	decl, ok := shader.FindBinding(pp.Declarations(), shader.AnnotationArgFrame)
	if !ok {
		return "", fmt.Errorf("%w: FrameUniform is never bound", ErrShader)
	}
	if *decl.Group != 0 || *decl.Binding != 0 {
		return "", fmt.Errorf("%w: line %d binds FrameUniform at group %d binding %d, want group 0 binding 0",
			ErrShader, decl.Line, *decl.Group, *decl.Binding)
	}
	return src, nil
}
