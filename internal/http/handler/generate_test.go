package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/genai"

	"basegraph.app/forge/internal/generator"
	"basegraph.app/forge/internal/http/handler"
	"basegraph.app/forge/internal/model"
	"basegraph.app/forge/internal/scad"
)

var _ = Describe("GenerateHandler", func() {
	var (
		router *gin.Engine
		gen    *mockGenerator
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		gen = &mockGenerator{}
		h := handler.NewGenerateHandler(gen)
		router.POST("/generate", h.Generate)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]any {
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	It("returns 200 with base64 mesh, source and attempt count", func() {
		gen.generateFn = func(context.Context, model.GenerationRequest) (*generator.Result, error) {
			return &generator.Result{
				Mesh:     []byte("solid box"),
				Source:   "cube([20, 20, 20]);",
				Attempts: []model.Attempt{{Failure: "compile_error", Diagnostic: "bad"}, {Index: 1}},
			}, nil
		}

		w := post(`{"prompt": "a box 20 by 20 by 20"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["stl_data"]).To(Equal("c29saWQgYm94"))
		Expect(resp["openscad_code"]).To(Equal("cube([20, 20, 20]);"))
		Expect(resp["attempts"]).To(BeEquivalentTo(2))
		Expect(gen.requests[0].IsRefinement()).To(BeFalse())
	})

	It("maps refinement fields with per-axis defaults", func() {
		w := post(`{
			"prompt": "add a sphere on top",
			"current_code": "cube(10);",
			"current_stl_data": "opaque",
			"mesh_transforms": {"position": {"z": 5}},
			"component_transforms": [
				{"id": "base", "position": {"x": 0, "y": 0, "z": 0}, "scale": {"x": 1, "y": 1, "z": 1}, "rotation": {"x": 0, "y": 0, "z": 0}},
				{"rotation": {"y": 90}}
			]
		}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		got := gen.requests[0]
		Expect(got.IsRefinement()).To(BeTrue())
		Expect(*got.CurrentMeshRef).To(Equal("opaque"))
		Expect(got.ObjectTransform.Position).To(Equal(model.Vec3{Z: 5}))
		Expect(got.ObjectTransform.Scale).To(Equal(model.Vec3{X: 1, Y: 1, Z: 1}))
		Expect(got.ComponentTransforms).To(HaveLen(2))
		Expect(got.ComponentTransforms[0].ID).To(Equal("base"))
		Expect(got.ComponentTransforms[1].ID).To(BeEmpty())
		Expect(got.ComponentTransforms[1].Rotation).To(Equal(model.Vec3{Y: 90}))
		Expect(got.ComponentTransforms[1].Scale).To(Equal(model.Vec3{X: 1, Y: 1, Z: 1}))
	})

	DescribeTable("returns 400 on invalid request bodies",
		func(body string) {
			w := post(body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(gen.requests).To(BeEmpty())
		},
		Entry("malformed json", `{`),
		Entry("missing prompt", `{"current_code": "cube(1);"}`),
		Entry("blank prompt", `{"prompt": "   "}`),
		Entry("oversized prompt", `{"prompt": "`+strings.Repeat("a", 4001)+`"}`),
	)

	It("returns 422 with the last source and diagnostic when retries are exhausted", func() {
		gen.generateFn = func(context.Context, model.GenerationRequest) (*generator.Result, error) {
			return nil, &generator.RetriesExhaustedError{
				Diagnostic: "ERROR: Parser error",
				LastSource: "cone(h=10);",
				Attempts:   3,
			}
		}

		w := post(`{"prompt": "a cone"}`)

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		resp := decode(w)
		Expect(resp["error"]).To(Equal("Failed to generate valid model after 3 attempts"))
		Expect(resp["diagnostic"]).To(Equal("ERROR: Parser error"))
		Expect(resp["openscad_code"]).To(Equal("cone(h=10);"))
		Expect(resp["attempts"]).To(BeEquivalentTo(3))
	})

	DescribeTable("maps upstream failures to gateway statuses",
		func(cause error, want int, message string) {
			gen.generateFn = func(context.Context, model.GenerationRequest) (*generator.Result, error) {
				return nil, &generator.UpstreamError{Err: cause}
			}

			w := post(`{"prompt": "a box"}`)

			Expect(w.Code).To(Equal(want))
			Expect(decode(w)["error"]).To(SatisfyAll(
				ContainSubstring("llm generation failed"),
				ContainSubstring(message),
			))
		},
		Entry("provider rate limit is transient", anthropicErr(429), http.StatusServiceUnavailable, "429 Too Many Requests"),
		Entry("provider outage is transient", anthropicErr(529), http.StatusServiceUnavailable, "529"),
		Entry("timeout is transient", context.DeadlineExceeded, http.StatusServiceUnavailable, "context deadline exceeded"),
		Entry("bad credentials are not", anthropicErr(401), http.StatusBadGateway, "401 Unauthorized"),
		Entry("gemini bad key is not", fmt.Errorf("gemini generate: %w", genai.APIError{Code: 401, Message: "API key not valid"}), http.StatusBadGateway, "API key not valid"),
		Entry("gemini rejected request is not", fmt.Errorf("gemini generate: %w", &genai.APIError{Code: 400, Message: "invalid argument"}), http.StatusBadGateway, "invalid argument"),
		Entry("gemini rate limit is transient", fmt.Errorf("gemini generate: %w", genai.APIError{Code: 429, Message: "quota exceeded"}), http.StatusServiceUnavailable, "quota exceeded"),
		Entry("unusable reply is not", scad.ErrEmptySource, http.StatusBadGateway, "response contained no source"),
	)

	It("returns 500 for any other failure", func() {
		gen.generateFn = func(context.Context, model.GenerationRequest) (*generator.Result, error) {
			return nil, errors.New("compiling attempt 0: exec: openscad: not found")
		}

		w := post(`{"prompt": "a box"}`)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(decode(w)["error"]).To(Equal("internal server error"))
	})
})

var _ = Describe("SchemaHandler", func() {
	It("serves the request schema with prompt required", func() {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.GET("/schema/generate", handler.NewSchemaHandler().Generate)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schema/generate", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var schema map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &schema)).To(Succeed())
		Expect(schema["required"]).To(ContainElement("prompt"))
		Expect(schema["properties"]).To(HaveKey("component_transforms"))
		Expect(schema["properties"]).To(HaveKey("mesh_transforms"))
	})
})

func anthropicErr(status int) *anthropic.Error {
	return &anthropic.Error{
		StatusCode: status,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil),
		Response:   &http.Response{StatusCode: status},
	}
}
