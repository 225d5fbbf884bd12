package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dgellow/steady/internal/config"
	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/generator"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/refgraph"
	"github.com/dgellow/steady/internal/registry"
)

func userSchema() *openapi.Schema {
	return &openapi.Schema{
		Type: openapi.SchemaType{Values: []string{"object"}},
		Properties: map[string]*openapi.Schema{
			"id":   {Type: openapi.SchemaType{Values: []string{"string"}}},
			"name": {Type: openapi.SchemaType{Values: []string{"string"}}},
		},
		Required: []string{"id"},
	}
}

func newTestServer(t *testing.T) *Server {
	doc := &openapi.Document{
		Info: openapi.Info{Title: "Test API", Version: "1.0.0"},
		Paths: map[openapi.Path]map[openapi.HTTPVerb]*openapi.Operation{
			"/users/{id}": {
				"get": {
					OperationID: "getUser",
					Parameters: []*openapi.Parameter{
						{Name: "id", In: "path", Required: true, Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"string"}}}},
					},
					Responses: map[openapi.StatusCode]*openapi.Response{
						"200": {
							Description: "the user",
							Content: map[string]openapi.MediaType{
								"application/json": {Schema: userSchema()},
							},
						},
					},
				},
			},
			"/users": {
				"post": {
					OperationID: "createUser",
					RequestBody: &openapi.RequestBody{
						Required: true,
						Content: map[string]openapi.MediaType{
							"application/json": {Schema: userSchema()},
						},
					},
					Responses: map[openapi.StatusCode]*openapi.Response{
						"201": {
							Content: map[string]openapi.MediaType{
								"application/json": {Schema: userSchema()},
							},
						},
					},
				},
			},
		},
		Components: openapi.Components{},
	}
	doc.SetRawRoot(map[string]interface{}{})

	graph := refgraph.Build(doc.RawRoot())
	reg := registry.New(doc, graph)
	coll := diagnostics.New()
	logger := zap.NewNop()

	cfg := config.Default()
	return New(doc, reg, cfg, coll, logger)
}

func TestServeHTTPGeneratesBodyForMatchedRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/users/abc123", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/users/{id}", rec.Header().Get("X-Steady-Matched-Path"))
	assert.Equal(t, "generated", rec.Header().Get("X-Steady-Example-Source"))
	assert.Contains(t, rec.Body.String(), "abc123")
}

func TestServeHTTPUnknownPathReturns404WithSuggestion(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/usersx/abc123", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "suggestion")
}

func TestServeHTTPHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/_x-steady/health", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"Test API"`)
}

func TestServeHTTPStrictModeRejectsMissingRequiredBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Validation failed")
}

func TestServeHTTPRelaxedModeHeaderOverridesStrictDefault(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Steady-Mode", "relaxed")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "relaxed", rec.Header().Get("X-Steady-Mode"))
}

func TestServeHTTPArraySizeHeaderOverridesGeneratedArrayLength(t *testing.T) {
	s := newTestServer(t)
	s.doc.Paths["/items"] = map[openapi.HTTPVerb]*openapi.Operation{
		"get": {
			Responses: map[openapi.StatusCode]*openapi.Response{
				"200": {
					Content: map[string]openapi.MediaType{
						"application/json": {Schema: &openapi.Schema{
							Type:  openapi.SchemaType{Values: []string{"array"}},
							Items: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"string"}}},
						}},
					},
				},
			},
		},
	}
	s.buildRoutes()

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("X-Steady-Array-Size", "0")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestServeHTTPPathParamCoercionFailureIsRejectedInStrictMode(t *testing.T) {
	s := newTestServer(t)
	s.doc.Paths["/orders/{count}"] = map[openapi.HTTPVerb]*openapi.Operation{
		"get": {
			Parameters: []*openapi.Parameter{
				{Name: "count", In: "path", Required: true, Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"integer"}}}},
			},
			Responses: map[openapi.StatusCode]*openapi.Response{
				"200": {Content: map[string]openapi.MediaType{"application/json": {Schema: userSchema()}}},
			},
		},
	}
	s.buildRoutes()

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-number", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Validation failed")
}

func TestServeHTTPCyclicSchemaTruncatesRatherThanHanging(t *testing.T) {
	s := newTestServer(t)

	node := &openapi.Schema{Ref: "#/components/schemas/Node"}
	nodeSchema := &openapi.Schema{
		Type: openapi.SchemaType{Values: []string{"object"}},
		Properties: map[string]*openapi.Schema{
			"id":       {Type: openapi.SchemaType{Values: []string{"string"}}},
			"children": {Type: openapi.SchemaType{Values: []string{"array"}}, Items: node},
		},
	}
	s.doc.Components.Schemas = map[string]*openapi.Schema{"Node": nodeSchema}
	s.doc.SetRawRoot(map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Node": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":       map[string]interface{}{"type": "string"},
						"children": map[string]interface{}{"type": "array", "items": map[string]interface{}{"$ref": "#/components/schemas/Node"}},
					},
				},
			},
		},
	})
	graph := refgraph.Build(s.doc.RawRoot())
	s.reg = registry.New(s.doc, graph)

	s.doc.Paths["/nodes/{id}"] = map[openapi.HTTPVerb]*openapi.Operation{
		"get": {
			Parameters: []*openapi.Parameter{
				{Name: "id", In: "path", Required: true, Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"string"}}}},
			},
			Responses: map[openapi.StatusCode]*openapi.Response{
				"200": {Content: map[string]openapi.MediaType{"application/json": {Schema: node}}},
			},
		},
	}
	s.buildRoutes()
	s.gen = generator.New(s.reg, s.config.GeneratorConfig())

	req := httptest.NewRequest(http.MethodGet, "/nodes/root", nil)
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() { s.ServeHTTP(rec, req) })
	require.Equal(t, http.StatusOK, rec.Code)
}
