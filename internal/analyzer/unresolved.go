package analyzer

import (
	"fmt"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/registry"
)

// UnresolvedRefAnalyzer emits ref-unresolved for every local "$ref" that
// failed to resolve against the document.
type UnresolvedRefAnalyzer struct{}

func (UnresolvedRefAnalyzer) Name() string    { return "unresolved-references" }
func (UnresolvedRefAnalyzer) Codes() []string { return []string{"ref-unresolved"} }

func (UnresolvedRefAnalyzer) Analyze(reg *registry.Registry) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for _, u := range reg.Graph().Unresolved() {
		out = append(out, diagnostics.Diagnostic{
			Code:     "ref-unresolved",
			Severity: diagnostics.SeverityError,
			Pointer:  u.Source.String(),
			Message:  fmt.Sprintf("reference %q does not resolve to a node in the document", u.Ref),
			Attribution: diagnostics.Attribution{
				Type:       diagnostics.AttributionSpec,
				Confidence: 0.95,
				Reasoning:  "a dangling local $ref is a malformed document, not a server or SDK defect",
			},
		})
	}
	return out
}
