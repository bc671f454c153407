package dto

import (
	"basegraph.app/forge/internal/generator"
	"basegraph.app/forge/internal/model"
)

// Vec3 mirrors the viewer's {x,y,z} objects. Absent axes take the field default.
type Vec3 struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

func (v *Vec3) toModel(def float64) model.Vec3 {
	out := model.Vec3{X: def, Y: def, Z: def}
	if v == nil {
		return out
	}
	if v.X != nil {
		out.X = *v.X
	}
	if v.Y != nil {
		out.Y = *v.Y
	}
	if v.Z != nil {
		out.Z = *v.Z
	}
	return out
}

type Transform struct {
	Position *Vec3 `json:"position,omitempty" jsonschema:"description=Position in millimeters"`
	Scale    *Vec3 `json:"scale,omitempty" jsonschema:"description=Unitless scale factors"`
	Rotation *Vec3 `json:"rotation,omitempty" jsonschema:"description=Rotation in degrees"`
}

func (t Transform) ToModel() model.Transform {
	return model.Transform{
		Position: t.Position.toModel(0),
		Scale:    t.Scale.toModel(1),
		Rotation: t.Rotation.toModel(0),
	}
}

type ComponentTransform struct {
	ID string `json:"id,omitempty" binding:"max=128" jsonschema:"description=Component name; defaults to component-N"`
	Transform
}

type GenerateRequest struct {
	Prompt              string               `json:"prompt" binding:"required,max=4000" jsonschema:"minLength=1,maxLength=4000,description=Natural-language description of the model or change"`
	CurrentCode         *string              `json:"current_code,omitempty" binding:"omitempty,max=100000" jsonschema:"description=OpenSCAD source to refine"`
	CurrentSTLData      *string              `json:"current_stl_data,omitempty" jsonschema:"description=Opaque reference to the current mesh; not interpreted"`
	MeshTransforms      *Transform           `json:"mesh_transforms,omitempty"`
	ComponentTransforms []ComponentTransform `json:"component_transforms,omitempty" binding:"omitempty,max=64,dive"`
}

func (r GenerateRequest) ToModel() model.GenerationRequest {
	req := model.GenerationRequest{
		Prompt:         r.Prompt,
		CurrentSource:  r.CurrentCode,
		CurrentMeshRef: r.CurrentSTLData,
	}
	if r.MeshTransforms != nil {
		t := r.MeshTransforms.ToModel()
		req.ObjectTransform = &t
	}
	for _, c := range r.ComponentTransforms {
		req.ComponentTransforms = append(req.ComponentTransforms, model.ComponentTransform{
			ID:        c.ID,
			Transform: c.Transform.ToModel(),
		})
	}
	return req
}

type GenerateResponse struct {
	STLData      []byte `json:"stl_data"` // base64 in JSON
	OpenSCADCode string `json:"openscad_code"`
	Attempts     int    `json:"attempts"`
}

func ToGenerateResponse(r *generator.Result) GenerateResponse {
	return GenerateResponse{
		STLData:      r.Mesh,
		OpenSCADCode: r.Source,
		Attempts:     len(r.Attempts),
	}
}

// GenerateFailureResponse carries the last attempt so the client can show
// the nearly-working code next to the compiler output.
type GenerateFailureResponse struct {
	Error        string `json:"error"`
	Diagnostic   string `json:"diagnostic"`
	OpenSCADCode string `json:"openscad_code"`
	Attempts     int    `json:"attempts"`
}
