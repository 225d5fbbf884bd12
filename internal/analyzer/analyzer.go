// Package analyzer implements the static analysis layer (C4): a small
// polymorphic interface over a batch of built-in analyzers that classify
// problems in a parsed document and attribute each to spec, sdk, or
// server, per spec.md §4.4 and §9 ("Dynamic dispatch over analyzer
// instances is a good fit for a small polymorphic interface").
package analyzer

import (
	"fmt"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/registry"
	"go.uber.org/zap"
)

// Analyzer declares the diagnostic codes it may emit and produces a batch
// of diagnostics from a Registry. Implementations must not mutate the
// registry and must never panic across this interface — a panic is
// recovered by Run and converted into a server-attributed diagnostic.
type Analyzer interface {
	Name() string
	Codes() []string
	Analyze(reg *registry.Registry) []diagnostics.Diagnostic
}

// Default returns the built-in analyzer set in a fixed order, matching
// the bullet order of spec.md §4.4.
func Default(opts Options) []Analyzer {
	return []Analyzer{
		UnresolvedRefAnalyzer{},
		CycleAnalyzer{},
		DeepChainAnalyzer{Threshold: opts.DeepChainThreshold},
		SchemaQualityAnalyzer{
			MaxProperties: opts.MaxProperties,
			MaxNesting:    opts.MaxNesting,
		},
		MockReadinessAnalyzer{},
	}
}

// Options configures the threshold-bearing built-in analyzers.
type Options struct {
	// DeepChainThreshold is the chain depth above which ref-deep-chain
	// fires. Defaults to 10 per spec.md §4.4.
	DeepChainThreshold int
	// MaxProperties is the property-count threshold for
	// schema-oversized.
	MaxProperties int
	// MaxNesting is the nesting-depth threshold for schema-too-nested.
	MaxNesting int
}

// DefaultOptions returns spec.md's documented defaults.
func DefaultOptions() Options {
	return Options{DeepChainThreshold: 10, MaxProperties: 50, MaxNesting: 6}
}

// Run executes every analyzer in analyzers, collects their outputs,
// sorts the result by severity, and recovers any analyzer panic into a
// server-attributed diagnostic instead of aborting the run.
func Run(reg *registry.Registry, analyzers []Analyzer, logger *zap.Logger) []diagnostics.Diagnostic {
	var all []diagnostics.Diagnostic

	for _, a := range analyzers {
		all = append(all, runOne(reg, a, logger)...)
	}

	diagnostics.SortBySeverity(all)
	return all
}

func runOne(reg *registry.Registry, a Analyzer, logger *zap.Logger) (result []diagnostics.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error("analyzer panicked", zap.String("analyzer", a.Name()), zap.Any("recovered", r))
			}
			result = []diagnostics.Diagnostic{{
				Code:     "analyzer-failure",
				Severity: diagnostics.SeverityError,
				Message:  fmt.Sprintf("analyzer %q failed: %v", a.Name(), r),
				Attribution: diagnostics.Attribution{
					Type:       diagnostics.AttributionServer,
					Confidence: 1.0,
					Reasoning:  "an analyzer panicked during static analysis; this is a server defect, not a spec or SDK issue",
				},
			}}
		}
	}()

	return a.Analyze(reg)
}
