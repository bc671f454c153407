// Package prompt renders the LLM prompts used by the generation loop.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"basegraph.app/forge/internal/model"
)

// Select picks the prompt variant for the attempt at index.
func Select(index int, req model.GenerationRequest) model.Variant {
	switch {
	case index > 0:
		return model.VariantErrorCorrection
	case req.IsRefinement():
		return model.VariantRefinement
	default:
		return model.VariantInitial
	}
}

// Build renders the prompt for the attempt following prev. prev is nil for
// the first attempt.
func Build(req model.GenerationRequest, prev *model.Attempt) (model.Variant, string) {
	index := 0
	if prev != nil {
		index = prev.Index + 1
	}

	variant := Select(index, req)
	switch variant {
	case model.VariantErrorCorrection:
		return variant, ErrorCorrection(req, *prev)
	case model.VariantRefinement:
		return variant, Refinement(req)
	default:
		return variant, Initial(req)
	}
}

func Initial(req model.GenerationRequest) string {
	return fmt.Sprintf(initialTemplate, req.Prompt, constraintRules, outputContract)
}

func Refinement(req model.GenerationRequest) string {
	var current string
	if req.CurrentSource != nil {
		current = *req.CurrentSource
	}
	return fmt.Sprintf(refinementTemplate, TransformContext(req), current, req.Prompt, outputContract)
}

func ErrorCorrection(req model.GenerationRequest, prev model.Attempt) string {
	marker := ""
	if req.IsRefinement() {
		marker = " (refinement)"
	}
	return fmt.Sprintf(errorCorrectionTemplate, marker, req.Prompt, prev.Source, prev.Diagnostic, constraintRules, outputContract)
}

// TransformContext describes where the existing geometry sits. Component
// transforms win over the single object transform. Returns an empty line
// when the request carries neither.
func TransformContext(req model.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case len(req.ComponentTransforms) > 0:
		b.WriteString("EXISTING COMPONENTS:\n")
		for i, c := range req.ComponentTransforms {
			b.WriteString("\n")
			b.WriteString(model.ComponentName(c, i))
			b.WriteString(":\n")
			writeTransform(&b, "  ", c.Transform)
		}
		b.WriteString("\n")
	case req.ObjectTransform != nil:
		b.WriteString("CURRENT OBJECT TRANSFORMS:\n")
		writeTransform(&b, "- ", *req.ObjectTransform)
		b.WriteString("\n")
	}

	return b.String()
}

func writeTransform(b *strings.Builder, indent string, t model.Transform) {
	fmt.Fprintf(b, "%sPosition: X=%smm, Y=%smm, Z=%smm\n", indent, num(t.Position.X), num(t.Position.Y), num(t.Position.Z))
	fmt.Fprintf(b, "%sScale: X=%s, Y=%s, Z=%s\n", indent, num(t.Scale.X), num(t.Scale.Y), num(t.Scale.Z))
	fmt.Fprintf(b, "%sRotation: X=%s°, Y=%s°, Z=%s°\n", indent, num(t.Rotation.X), num(t.Rotation.Y), num(t.Rotation.Z))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
