package analyzer

import (
	"fmt"
	"strings"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/docpointer"
	"github.com/dgellow/steady/internal/registry"
)

// CycleAnalyzer emits one ref-cycle warning per cycle recorded in the
// reference graph, truncating long cycles in the message per spec.md
// §4.4.
type CycleAnalyzer struct{}

func (CycleAnalyzer) Name() string    { return "cycles" }
func (CycleAnalyzer) Codes() []string { return []string{"ref-cycle"} }

const cycleMessagePreviewLen = 3

func (CycleAnalyzer) Analyze(reg *registry.Registry) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for _, cycle := range reg.Graph().Cycles() {
		out = append(out, diagnostics.Diagnostic{
			Code:     "ref-cycle",
			Severity: diagnostics.SeverityWarning,
			Pointer:  cycle[0].String(),
			Message:  describeCycle(cycle),
			Attribution: diagnostics.Attribution{
				Type:       diagnostics.AttributionSpec,
				Confidence: 0.7,
				Reasoning:  "a self-referential schema is a normal (if generator-bounding) spec pattern, e.g. recursive tree structures",
			},
		})
	}
	return out
}

func describeCycle(cycle []docpointer.Pointer) string {
	names := make([]string, 0, len(cycle))
	for _, p := range cycle {
		names = append(names, p.String())
	}

	if len(names) <= cycleMessagePreviewLen {
		return fmt.Sprintf("reference cycle: %s", strings.Join(names, " -> "))
	}

	omitted := len(names) - cycleMessagePreviewLen
	return fmt.Sprintf("reference cycle: %s -> ... (%d more)", strings.Join(names[:cycleMessagePreviewLen], " -> "), omitted)
}
