package prompt_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/forge/internal/model"
	"basegraph.app/forge/internal/prompt"
)

func ptr(s string) *string { return &s }

var _ = Describe("Select", func() {
	fresh := model.GenerationRequest{Prompt: "a box 20 by 20 by 20"}
	refine := model.GenerationRequest{Prompt: "add a sphere on top", CurrentSource: ptr("cube(10);")}

	DescribeTable("chooses the variant from attempt index and request mode",
		func(index int, req model.GenerationRequest, want model.Variant) {
			Expect(prompt.Select(index, req)).To(Equal(want))
		},
		Entry("first attempt, fresh request", 0, fresh, model.VariantInitial),
		Entry("first attempt, refinement", 0, refine, model.VariantRefinement),
		Entry("retry of fresh request", 1, fresh, model.VariantErrorCorrection),
		Entry("retry of refinement", 2, refine, model.VariantErrorCorrection),
		Entry("blank current source is not a refinement", 0,
			model.GenerationRequest{Prompt: "x", CurrentSource: ptr("  \n")}, model.VariantInitial),
	)
})

var _ = Describe("Build", func() {
	Context("for a fresh request", func() {
		It("renders the initial prompt with the request and constraints", func() {
			req := model.GenerationRequest{Prompt: "a box 20 by 20 by 20"}

			variant, text := prompt.Build(req, nil)

			Expect(variant).To(Equal(model.VariantInitial))
			Expect(text).To(ContainSubstring("USER REQUEST: a box 20 by 20 by 20"))
			Expect(text).To(ContainSubstring("at most 15 lines"))
			Expect(text).To(ContainSubstring("between 1 and 500"))
			Expect(text).To(ContainSubstring("cone -> cylinder"))
			Expect(text).To(ContainSubstring("torus"))
			Expect(text).To(ContainSubstring("Return ONLY OpenSCAD source"))
		})
	})

	Context("for a refinement with component transforms", func() {
		It("injects each component's id, position, scale and rotation", func() {
			req := model.GenerationRequest{
				Prompt:        "add a sphere on top",
				CurrentSource: ptr("$fn = 50;\ncube([30, 30, 10], center=false);"),
				ComponentTransforms: []model.ComponentTransform{
					{ID: "base", Transform: model.IdentityTransform()},
					{Transform: model.Transform{
						Position: model.Vec3{X: 12.5, Y: -4, Z: 30},
						Scale:    model.Vec3{X: 2, Y: 1, Z: 0.5},
						Rotation: model.Vec3{X: 0, Y: 90, Z: 45},
					}},
				},
			}

			variant, text := prompt.Build(req, nil)

			Expect(variant).To(Equal(model.VariantRefinement))
			Expect(text).To(ContainSubstring("EXISTING COMPONENTS:"))
			Expect(text).To(ContainSubstring("base:\n  Position: X=0mm, Y=0mm, Z=0mm\n  Scale: X=1, Y=1, Z=1\n  Rotation: X=0°, Y=0°, Z=0°"))
			Expect(text).To(ContainSubstring("component-2:\n  Position: X=12.5mm, Y=-4mm, Z=30mm"))
			Expect(text).To(ContainSubstring("Scale: X=2, Y=1, Z=0.5"))
			Expect(text).To(ContainSubstring("Rotation: X=0°, Y=90°, Z=45°"))
			Expect(text).To(ContainSubstring("cube([30, 30, 10], center=false);"))
			Expect(text).To(ContainSubstring("NEW REQUEST: add a sphere on top"))
			Expect(text).NotTo(ContainSubstring("CURRENT OBJECT TRANSFORMS"))
		})
	})

	Context("for a refinement with only an object transform", func() {
		It("injects the object transform", func() {
			req := model.GenerationRequest{
				Prompt:        "make it taller",
				CurrentSource: ptr("cube(10);"),
				ObjectTransform: &model.Transform{
					Position: model.Vec3{X: 1, Y: 2, Z: 3},
					Scale:    model.Vec3{X: 1, Y: 1, Z: 2},
				},
			}

			_, text := prompt.Build(req, nil)

			Expect(text).To(ContainSubstring("CURRENT OBJECT TRANSFORMS:\n- Position: X=1mm, Y=2mm, Z=3mm\n- Scale: X=1, Y=1, Z=2"))
		})
	})

	Context("after a failed attempt", func() {
		prev := model.Attempt{
			Index:      0,
			Variant:    model.VariantInitial,
			Source:     "$fn = 50;\ncone(h=10);",
			Failure:    "compile_error",
			Diagnostic: "ERROR: Parser error",
		}

		It("embeds the original request, previous source and diagnostic", func() {
			req := model.GenerationRequest{Prompt: "a cone"}

			variant, text := prompt.Build(req, &prev)

			Expect(variant).To(Equal(model.VariantErrorCorrection))
			Expect(text).To(ContainSubstring("ORIGINAL REQUEST: a cone"))
			Expect(text).To(ContainSubstring("PREVIOUS CODE:\n$fn = 50;\ncone(h=10);"))
			Expect(text).To(ContainSubstring("COMPILER OUTPUT:\nERROR: Parser error"))
			Expect(text).To(ContainSubstring("at most 15 lines"))
			Expect(text).NotTo(ContainSubstring("(refinement)"))
		})

		It("marks refinement requests", func() {
			req := model.GenerationRequest{Prompt: "add a hole", CurrentSource: ptr("cube(10);")}

			_, text := prompt.Build(req, &prev)

			Expect(text).To(ContainSubstring("failed to compile (refinement)"))
		})
	})
})

var _ = Describe("TransformContext", func() {
	It("is blank when no transforms are supplied", func() {
		req := model.GenerationRequest{Prompt: "x", CurrentSource: ptr("cube(1);")}
		Expect(prompt.TransformContext(req)).To(Equal("\n"))
	})
})
