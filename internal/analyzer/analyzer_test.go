package analyzer

import (
	"testing"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/refgraph"
	"github.com/dgellow/steady/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func buildRegistry(raw map[string]interface{}) *registry.Registry {
	doc := &openapi.Document{}
	doc.SetRawRoot(raw)
	g := refgraph.Build(raw)
	return registry.New(doc, g)
}

func TestUnresolvedRefAnalyzer(t *testing.T) {
	raw := map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"A": map[string]interface{}{"$ref": "#/components/schemas/Missing"},
			},
		},
	}
	reg := buildRegistry(raw)

	diags := UnresolvedRefAnalyzer{}.Analyze(reg)
	require.Len(t, diags, 1)
	assert.Equal(t, "ref-unresolved", diags[0].Code)
}

func TestCycleAnalyzerTruncatesLongCycles(t *testing.T) {
	raw := map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"A": map[string]interface{}{"$ref": "#/components/schemas/B"},
				"B": map[string]interface{}{"$ref": "#/components/schemas/C"},
				"C": map[string]interface{}{"$ref": "#/components/schemas/D"},
				"D": map[string]interface{}{"$ref": "#/components/schemas/A"},
			},
		},
	}
	reg := buildRegistry(raw)

	diags := CycleAnalyzer{}.Analyze(reg)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "more)")
}

func TestRunRecoversPanic(t *testing.T) {
	reg := buildRegistry(map[string]interface{}{})

	panicky := panickyAnalyzer{}
	diags := Run(reg, []Analyzer{panicky}, zap.NewNop())

	require.Len(t, diags, 1)
	assert.Equal(t, "analyzer-failure", diags[0].Code)
}

type panickyAnalyzer struct{}

func (panickyAnalyzer) Name() string    { return "panicky" }
func (panickyAnalyzer) Codes() []string { return nil }
func (panickyAnalyzer) Analyze(reg *registry.Registry) []diagnostics.Diagnostic {
	panic("boom")
}
