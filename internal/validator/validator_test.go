package validator

import (
	"net/http"
	"testing"

	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/refgraph"
	"github.com/dgellow/steady/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	doc := &openapi.Document{}
	doc.SetRawRoot(map[string]interface{}{})
	g := refgraph.Build(map[string]interface{}{})
	reg := registry.New(doc, g)
	return New(reg, DefaultConfig())
}

func TestValidateMissingRequiredQueryParam(t *testing.T) {
	v := newTestValidator(t)
	op := &openapi.Operation{
		Parameters: []*openapi.Parameter{
			{Name: "q", In: "query", Required: true, Schema: strSchema()},
		},
	}

	result := v.Validate(Request{RawQuery: ""}, op, nil)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[0].Message, "missing required property")
}

func TestValidateJSONBody(t *testing.T) {
	v := newTestValidator(t)
	op := &openapi.Operation{
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]openapi.MediaType{
				"application/json": {Schema: &openapi.Schema{
					Type:     openapi.SchemaType{Values: []string{"object"}},
					Required: []string{"name"},
					Properties: map[string]*openapi.Schema{
						"name": strSchema(),
					},
				}},
			},
		},
	}

	bad := v.Validate(Request{Body: []byte(`{}`), ContentType: "application/json"}, op, nil)
	assert.False(t, bad.Valid)

	good := v.Validate(Request{Body: []byte(`{"name":"Alex"}`), ContentType: "application/json"}, op, nil)
	assert.True(t, good.Valid)
	assert.Equal(t, map[string]interface{}{"name": "Alex"}, good.DecodedBody)
}

func TestValidateBodyTooLarge(t *testing.T) {
	v := newTestValidator(t)
	v.config.MaxBodyBytes = 4

	op := &openapi.Operation{RequestBody: &openapi.RequestBody{
		Content: map[string]openapi.MediaType{"application/json": {Schema: &openapi.Schema{}}},
	}}

	result := v.Validate(Request{Body: []byte(`{"a":1}`), ContentType: "application/json"}, op, nil)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0].Message, "maximum allowed size")
}

func TestValidateResolvesRefParameter(t *testing.T) {
	v := newTestValidator(t)
	components := map[string]*openapi.Parameter{
		"Limit": {Name: "limit", In: "query", Required: true, Schema: strSchema()},
	}
	op := &openapi.Operation{
		Parameters: []*openapi.Parameter{{Ref: "#/components/parameters/Limit"}},
	}

	result := v.Validate(Request{RawQuery: ""}, op, components)
	assert.False(t, result.Valid)

	result = v.Validate(Request{RawQuery: "limit=10"}, op, components)
	assert.True(t, result.Valid)
}

func TestValidateRejectsUnknownQueryParam(t *testing.T) {
	v := newTestValidator(t)
	op := &openapi.Operation{
		Parameters: []*openapi.Parameter{
			{Name: "limit", In: "query", Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"integer"}}}},
		},
	}

	result := v.Validate(Request{RawQuery: "limit=10&unknown=1"}, op, nil)
	require.False(t, result.Valid)
	assert.Equal(t, "query.unknown", result.Errors[0].Path)
}

func TestValidateBodyRejectsUnsupportedContentType(t *testing.T) {
	v := newTestValidator(t)
	op := &openapi.Operation{
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]openapi.MediaType{
				"application/json": {Schema: strSchema()},
			},
		},
	}

	result := v.Validate(Request{Body: []byte(`<a/>`), ContentType: "application/xml"}, op, nil)
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[0].Message, "unsupported content type")
}

func TestValidateHeaderLocation(t *testing.T) {
	v := newTestValidator(t)
	op := &openapi.Operation{
		Parameters: []*openapi.Parameter{
			{Name: "X-Request-Id", In: "header", Required: true, Schema: strSchema()},
		},
	}

	h := http.Header{}
	bad := v.Validate(Request{Header: h}, op, nil)
	assert.False(t, bad.Valid)

	h.Set("X-Request-Id", "abc")
	good := v.Validate(Request{Header: h}, op, nil)
	assert.True(t, good.Valid)
}
