// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for
// @orbit: annotations, replaces them with injected struct sources or generated binding
// declarations, and collects the declarations so the renderer can check the shader
// reads the frame slot where the bind group puts it.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/orbitview/engine/camera"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by include.
	Source string

	// Type is the WGSL type name emitted in group declarations (e.g. "FrameUniform").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @orbit: annotations.
type PreProcessor interface {
	// Process replaces include annotations with the registered struct source and group
	// annotations with generated @group/@binding declarations. Each struct is included at most once.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed
	Process(source string) (string, error)

	// Declarations returns the group annotations collected during the most recent call
	// to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the engine's GPU struct types registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgFrame: {Source: camera.GPUFrameUniformSource, Type: "FrameUniform"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgUniform: "var<uniform>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[AnnotationArg]bool)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, p.structRegistry[a.Args[0]].Source)
		case AnnotationTypeBindingGroup:
			for _, d := range p.declarations {
				if *d.Group == *a.Group && *d.Binding == *a.Binding {
					return "", fmt.Errorf("line %d: group %d binding %d already declared on line %d", a.Line, *a.Group, *a.Binding, d.Line)
				}
			}
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// FindBinding returns the declaration of a struct type, if any.
//
// Parameters:
//   - declarations: the result of Declarations
//   - structType: the struct type key
//
// Returns:
//   - Annotation: the first matching declaration
//   - bool: false if the struct is never bound
func FindBinding(declarations []Annotation, structType AnnotationArg) (Annotation, bool) {
	for _, d := range declarations {
		if d.Type == AnnotationTypeBindingGroup && d.Args[2] == structType {
			return d, true
		}
	}
	return Annotation{}, false
}
