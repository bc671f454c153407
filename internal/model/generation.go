package model

import (
	"fmt"
	"strings"
)

// Variant identifies which prompt template produced an attempt's source.
type Variant string

const (
	VariantInitial         Variant = "initial"
	VariantRefinement      Variant = "refinement"
	VariantErrorCorrection Variant = "error_correction"
)

// Vec3 is a three-component vector. Units depend on the field it is used in.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform describes where an object sits in the viewer.
type Transform struct {
	Position Vec3 // millimeters
	Scale    Vec3 // unitless factors
	Rotation Vec3 // degrees
}

// IdentityTransform is the transform of an object that was never moved.
func IdentityTransform() Transform {
	return Transform{Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// ComponentTransform is a named part of a multi-part model.
type ComponentTransform struct {
	ID string
	Transform
}

// GenerationRequest is a single generate-or-refine call.
type GenerationRequest struct {
	Prompt              string
	CurrentSource       *string
	CurrentMeshRef      *string // opaque, never interpreted
	ObjectTransform     *Transform
	ComponentTransforms []ComponentTransform
}

// IsRefinement reports whether the request edits an existing program.
func (r GenerationRequest) IsRefinement() bool {
	return r.CurrentSource != nil && strings.TrimSpace(*r.CurrentSource) != ""
}

// ComponentName returns the display id of the i-th component (0-based).
func ComponentName(c ComponentTransform, i int) string {
	if c.ID != "" {
		return c.ID
	}
	return fmt.Sprintf("component-%d", i+1)
}

// Attempt is one generate, repair, compile iteration. Failure holds the
// compiler's failure kind and is empty for the attempt that compiled.
type Attempt struct {
	Index      int
	Variant    Variant
	Source     string
	Failure    string
	Diagnostic string
}

func (a Attempt) Failed() bool {
	return a.Failure != ""
}
