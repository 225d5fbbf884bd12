package analyzer

import (
	"fmt"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/registry"
)

// DeepChainAnalyzer emits ref-deep-chain info diagnostics for pointers
// whose longest acyclic $ref chain exceeds Threshold (default 10, per
// spec.md §4.4).
type DeepChainAnalyzer struct {
	Threshold int
}

func (DeepChainAnalyzer) Name() string    { return "deep-chains" }
func (DeepChainAnalyzer) Codes() []string { return []string{"ref-deep-chain"} }

func (a DeepChainAnalyzer) Analyze(reg *registry.Registry) []diagnostics.Diagnostic {
	threshold := a.Threshold
	if threshold <= 0 {
		threshold = 10
	}

	var out []diagnostics.Diagnostic
	for _, p := range reg.Graph().Pointers() {
		depth := reg.Graph().ChainDepth(p)
		if depth > threshold {
			out = append(out, diagnostics.Diagnostic{
				Code:     "ref-deep-chain",
				Severity: diagnostics.SeverityInfo,
				Pointer:  p.String(),
				Message:  fmt.Sprintf("reference chain from %s is %d levels deep (threshold %d)", p.String(), depth, threshold),
				Attribution: diagnostics.Attribution{
					Type:       diagnostics.AttributionSpec,
					Confidence: 0.5,
					Reasoning:  "deeply chained refs are legal but slow to reason about and to generate examples for",
				},
			})
		}
	}
	return out
}
