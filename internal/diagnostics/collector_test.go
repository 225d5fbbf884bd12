package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorAddAndSummary(t *testing.T) {
	c := New()
	c.SetStatic([]Diagnostic{{Code: "ref-cycle", Severity: SeverityWarning}})

	c.Add([]Diagnostic{{Code: "unknown-param", Severity: SeverityError}}, false)
	c.Add(nil, true)
	c.Add([]Diagnostic{{Code: "unknown-param", Severity: SeverityError}}, false)

	summary := c.Summary()
	assert.Equal(t, int64(3), summary.Stats.RequestCount)
	assert.Equal(t, int64(1), summary.Stats.SuccessCount)
	assert.Equal(t, int64(2), summary.Stats.FailedCount)
	require.Len(t, summary.Static, 1)
	require.Len(t, summary.Runtime, 2)

	require.NotEmpty(t, summary.TopCodes)
	assert.Equal(t, "unknown-param", summary.TopCodes[0].Code)
	assert.Equal(t, 2, summary.TopCodes[0].Count)
}

func TestCollectorResetRuntime(t *testing.T) {
	c := New()
	c.Add([]Diagnostic{{Code: "x"}}, false)
	c.ResetRuntime()

	summary := c.Summary()
	assert.Equal(t, int64(0), summary.Stats.RequestCount)
	assert.Empty(t, summary.Runtime)
}

func TestSortBySeverity(t *testing.T) {
	diags := []Diagnostic{
		{Code: "a", Severity: SeverityHint},
		{Code: "b", Severity: SeverityError},
		{Code: "c", Severity: SeverityError},
		{Code: "d", Severity: SeverityInfo},
	}
	SortBySeverity(diags)
	assert.Equal(t, []string{"b", "c", "d", "a"}, codesOf(diags))
}

func codesOf(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}
