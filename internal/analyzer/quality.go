package analyzer

import (
	"fmt"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/registry"
)

// SchemaQualityAnalyzer flags component schemas that are unusually large
// (schema-oversized) or unusually deeply nested (schema-too-nested),
// per spec.md §4.4.
type SchemaQualityAnalyzer struct {
	MaxProperties int
	MaxNesting    int
}

func (SchemaQualityAnalyzer) Name() string { return "schema-quality" }
func (SchemaQualityAnalyzer) Codes() []string {
	return []string{"schema-oversized", "schema-too-nested"}
}

func (a SchemaQualityAnalyzer) Analyze(reg *registry.Registry) []diagnostics.Diagnostic {
	maxProps := a.MaxProperties
	if maxProps <= 0 {
		maxProps = 50
	}
	maxNesting := a.MaxNesting
	if maxNesting <= 0 {
		maxNesting = 6
	}

	var out []diagnostics.Diagnostic
	for name, ps := range reg.GetComponentSchemas() {
		count := countProperties(ps.Raw, map[*openapi.Schema]bool{})
		if count > maxProps {
			out = append(out, diagnostics.Diagnostic{
				Code:     "schema-oversized",
				Severity: diagnostics.SeverityInfo,
				Pointer:  ps.Pointer.String(),
				Message:  fmt.Sprintf("schema %q has %d properties (threshold %d)", name, count, maxProps),
				Attribution: diagnostics.Attribution{
					Type:       diagnostics.AttributionSpec,
					Confidence: 0.4,
					Reasoning:  "a very large object schema is a design smell, not a correctness bug",
				},
			})
		}

		nesting := nestingDepth(ps.Raw, map[*openapi.Schema]bool{})
		if nesting > maxNesting {
			out = append(out, diagnostics.Diagnostic{
				Code:     "schema-too-nested",
				Severity: diagnostics.SeverityInfo,
				Pointer:  ps.Pointer.String(),
				Message:  fmt.Sprintf("schema %q nests %d levels deep (threshold %d)", name, nesting, maxNesting),
				Attribution: diagnostics.Attribution{
					Type:       diagnostics.AttributionSpec,
					Confidence: 0.4,
					Reasoning:  "deep object nesting is legal but harder for SDKs to traverse correctly",
				},
			})
		}
	}
	return out
}

func countProperties(s *openapi.Schema, visited map[*openapi.Schema]bool) int {
	if s == nil || visited[s] {
		return 0
	}
	visited[s] = true

	count := len(s.Properties)
	for _, sub := range s.Properties {
		count += countProperties(sub, visited)
	}
	return count
}

func nestingDepth(s *openapi.Schema, visited map[*openapi.Schema]bool) int {
	if s == nil || visited[s] || len(s.Properties) == 0 {
		return 0
	}
	visited[s] = true

	best := 0
	for _, sub := range s.Properties {
		d := nestingDepth(sub, visited)
		if d > best {
			best = d
		}
	}
	return best + 1
}
