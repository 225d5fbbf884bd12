package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/docpointer"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/registry"
)

func remarshal(node interface{}, out interface{}) error {
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// MockReadinessAnalyzer emits example-missing when a response declares
// content but neither an example, an examples map, nor a usable schema
// is present to synthesize from (spec.md §4.4).
type MockReadinessAnalyzer struct{}

func (MockReadinessAnalyzer) Name() string    { return "mock-readiness" }
func (MockReadinessAnalyzer) Codes() []string { return []string{"example-missing"} }

func (MockReadinessAnalyzer) Analyze(reg *registry.Registry) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic

	doc := reg.Document()
	for path, verbs := range doc.Paths {
		for verb, op := range verbs {
			for status, resp := range op.Responses {
				resolved, pointer := resolveResponse(reg, resp, path, verb, status)
				if resolved == nil {
					continue
				}

				for mediaType, mt := range resolved.Content {
					if mt.Example != nil || len(mt.Examples) > 0 {
						continue
					}
					if mt.Schema != nil && !isUselessSchema(mt.Schema) {
						continue
					}

					out = append(out, diagnostics.Diagnostic{
						Code:     "example-missing",
						Severity: diagnostics.SeverityInfo,
						Pointer:  pointer,
						Message: fmt.Sprintf(
							"%s %s response %s (%s) has no example, examples map, or usable schema to synthesize from",
							verb, path, status, mediaType),
						Attribution: diagnostics.Attribution{
							Type:       diagnostics.AttributionSpec,
							Confidence: 0.6,
							Reasoning:  "the generator has nothing to base a synthetic body on, so the mock response will be empty or null",
						},
					})
				}
			}
		}
	}

	return out
}

func resolveResponse(reg *registry.Registry, resp *openapi.Response, path openapi.Path, verb openapi.HTTPVerb, status openapi.StatusCode) (*openapi.Response, string) {
	if resp == nil {
		return nil, ""
	}
	if resp.Ref == "" {
		return resp, fmt.Sprintf("paths./%s.%s.responses.%s", path, verb, status)
	}

	node, ok := reg.Resolve(docpointer.Parse(resp.Ref))
	if !ok {
		return nil, ""
	}
	var decoded openapi.Response
	if err := remarshal(node, &decoded); err != nil {
		return nil, ""
	}
	return &decoded, resp.Ref
}

func isUselessSchema(s *openapi.Schema) bool {
	if s == nil {
		return true
	}
	if s.IsBool {
		return false
	}
	return s.Type.Empty() && len(s.Properties) == 0 && s.Ref == "" &&
		len(s.OneOf) == 0 && len(s.AnyOf) == 0 && len(s.AllOf) == 0 && len(s.Enum) == 0
}
