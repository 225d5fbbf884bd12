package validator

import (
	"testing"

	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/refgraph"
	"github.com/dgellow/steady/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestRegistry(t *testing.T, raw map[string]interface{}) *registry.Registry {
	t.Helper()
	doc := &openapi.Document{}
	doc.SetRawRoot(raw)
	g := refgraph.Build(raw)
	return registry.New(doc, g)
}

func intPtr(i int) *int          { return &i }
func floatPtr(f float64) *float64 { return &f }

func TestEngineValidateRequiredAndType(t *testing.T) {
	reg := buildTestRegistry(t, map[string]interface{}{})
	eng := newEngine(reg, DefaultConfig())

	schema := &openapi.Schema{
		Type:       openapi.SchemaType{Values: []string{"object"}},
		Required:   []string{"name"},
		Properties: map[string]*openapi.Schema{"name": {Type: openapi.SchemaType{Values: []string{"string"}}}},
	}

	issues := eng.validate(schema, map[string]interface{}{}, "$")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "missing required property")

	issues = eng.validate(schema, map[string]interface{}{"name": 5.0}, "$")
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "expected type")
}

func TestEngineValidateNumberBounds(t *testing.T) {
	reg := buildTestRegistry(t, map[string]interface{}{})
	eng := newEngine(reg, DefaultConfig())

	schema := &openapi.Schema{
		Type:    openapi.SchemaType{Values: []string{"integer"}},
		Minimum: floatPtr(1),
		Maximum: floatPtr(10),
	}

	assert.Empty(t, eng.validate(schema, 5.0, "$"))
	assert.NotEmpty(t, eng.validate(schema, 0.0, "$"))
	assert.NotEmpty(t, eng.validate(schema, 11.0, "$"))
}

func TestEngineValidateStringConstraints(t *testing.T) {
	reg := buildTestRegistry(t, map[string]interface{}{})
	eng := newEngine(reg, DefaultConfig())

	schema := &openapi.Schema{
		Type:      openapi.SchemaType{Values: []string{"string"}},
		MinLength: intPtr(2),
		Pattern:   "^[a-z]+$",
	}

	assert.Empty(t, eng.validate(schema, "abc", "$"))
	assert.NotEmpty(t, eng.validate(schema, "a", "$"))
	assert.NotEmpty(t, eng.validate(schema, "ABC", "$"))
}

func TestEngineValidateOneOfModes(t *testing.T) {
	reg := buildTestRegistry(t, map[string]interface{}{})

	schema := &openapi.Schema{
		OneOf: []*openapi.Schema{
			{Type: openapi.SchemaType{Values: []string{"string"}}},
			{Type: openapi.SchemaType{Values: []string{"string"}}, MinLength: intPtr(3)},
		},
	}

	anyMatch := newEngine(reg, DefaultConfig())
	assert.Empty(t, anyMatch.validate(schema, "abcd", "$"))

	strict := DefaultConfig()
	strict.OneOfMode = OneOfExactlyOne
	exactlyOne := newEngine(reg, strict)
	assert.NotEmpty(t, exactlyOne.validate(schema, "abcd", "$"))
}

func TestEngineValidateRefCycleTerminatesAsSatisfied(t *testing.T) {
	raw := map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Node": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"next": map[string]interface{}{"$ref": "#/components/schemas/Node"},
					},
				},
			},
		},
	}
	reg := buildTestRegistry(t, raw)
	eng := newEngine(reg, DefaultConfig())

	schema := &openapi.Schema{Ref: "#/components/schemas/Node"}
	value := map[string]interface{}{
		"next": map[string]interface{}{
			"next": map[string]interface{}{},
		},
	}

	assert.Empty(t, eng.validate(schema, value, "$"))
}

func TestEngineValidateAdditionalPropertiesFalse(t *testing.T) {
	reg := buildTestRegistry(t, map[string]interface{}{})
	eng := newEngine(reg, DefaultConfig())

	no := false
	schema := &openapi.Schema{
		Type:                     openapi.SchemaType{Values: []string{"object"}},
		Properties:               map[string]*openapi.Schema{"a": {Type: openapi.SchemaType{Values: []string{"string"}}}},
		AdditionalPropertiesBool: &no,
	}

	assert.Empty(t, eng.validate(schema, map[string]interface{}{"a": "x"}, "$"))
	assert.NotEmpty(t, eng.validate(schema, map[string]interface{}{"a": "x", "b": 1.0}, "$"))
}

func TestEngineValidateBoolSchema(t *testing.T) {
	reg := buildTestRegistry(t, map[string]interface{}{})
	eng := newEngine(reg, DefaultConfig())

	falseSchema := &openapi.Schema{IsBool: true, BoolValue: false}
	assert.NotEmpty(t, eng.validate(falseSchema, "anything", "$"))

	trueSchema := &openapi.Schema{IsBool: true, BoolValue: true}
	assert.Empty(t, eng.validate(trueSchema, "anything", "$"))
}
