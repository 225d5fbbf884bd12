package diagnostics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SessionStats are the monotonic counters maintained by the collector
// across one server run (spec.md §3 "Session Stats").
type SessionStats struct {
	RequestCount int64
	SuccessCount int64
	FailedCount  int64
	StartTime    time.Time
	DurationMs   int64
}

// Summary is the aggregate returned by Collector.Summary: the static
// diagnostics set at startup, the accumulated runtime diagnostics, and
// the top-N codes by frequency with one example each.
type Summary struct {
	Static  []Diagnostic
	Runtime []Diagnostic
	Stats   SessionStats
	TopCodes []CodeFrequency
}

// CodeFrequency is one entry of the top-N-codes summary.
type CodeFrequency struct {
	Code    string
	Count   int
	Example Diagnostic
}

const topCodesLimit = 10

// Collector aggregates static (computed once at startup) and runtime
// (growing per request) diagnostics for one server instance. Per spec.md
// §9, this is deliberately scoped to the server instance rather than a
// process-global singleton so that tests can run parallel servers without
// cross-talk — there is no package-level "get or create" accessor;
// callers construct one via New and inject it.
type Collector struct {
	mu      sync.RWMutex
	static  []Diagnostic
	runtime []Diagnostic

	requestCount int64
	successCount int64
	failedCount  int64
	startTime    time.Time
}

// New constructs an empty Collector. SetStatic should be called once
// after startup analysis completes.
func New() *Collector {
	return &Collector{startTime: now()}
}

// now is indirected so tests can't accidentally depend on wall-clock
// behavior bleeding into assertions beyond "some positive duration".
var now = time.Now

// SetStatic installs the one-time static diagnostics set, replacing any
// earlier one. It is expected to run once at startup before the listener
// accepts requests.
func (c *Collector) SetStatic(diags []Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.static = append([]Diagnostic(nil), diags...)
}

// Add records one request's diagnostics and whether it succeeded.
// Counter updates and the runtime list append are performed under lock so
// that Summary always observes a coherent snapshot (spec.md §5).
func (c *Collector) Add(diags []Diagnostic, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.AddInt64(&c.requestCount, 1)
	if success {
		atomic.AddInt64(&c.successCount, 1)
	} else {
		atomic.AddInt64(&c.failedCount, 1)
	}

	c.runtime = append(c.runtime, diags...)
}

// Summary returns a coherent snapshot of static/runtime diagnostics,
// session stats, and the top 10 codes by frequency.
func (c *Collector) Summary() Summary {
	c.mu.RLock()
	static := append([]Diagnostic(nil), c.static...)
	runtime := append([]Diagnostic(nil), c.runtime...)
	stats := SessionStats{
		RequestCount: atomic.LoadInt64(&c.requestCount),
		SuccessCount: atomic.LoadInt64(&c.successCount),
		FailedCount:  atomic.LoadInt64(&c.failedCount),
		StartTime:    c.startTime,
		DurationMs:   time.Since(c.startTime).Milliseconds(),
	}
	c.mu.RUnlock()

	return Summary{
		Static:   static,
		Runtime:  runtime,
		Stats:    stats,
		TopCodes: topCodes(append(append([]Diagnostic(nil), static...), runtime...)),
	}
}

// ResetRuntime is a test hook: it clears runtime diagnostics and counters
// without touching the static set, per spec.md §4.9 "A test hook may
// reset runtime state."
func (c *Collector) ResetRuntime() {
	c.mu.Lock()
	defer c.mu.Unlock()

	atomic.StoreInt64(&c.requestCount, 0)
	atomic.StoreInt64(&c.successCount, 0)
	atomic.StoreInt64(&c.failedCount, 0)
	c.runtime = nil
	c.startTime = now()
}

func topCodes(all []Diagnostic) []CodeFrequency {
	counts := map[string]int{}
	examples := map[string]Diagnostic{}
	var order []string

	for _, d := range all {
		if _, seen := counts[d.Code]; !seen {
			order = append(order, d.Code)
			examples[d.Code] = d
		}
		counts[d.Code]++
	}

	freqs := make([]CodeFrequency, 0, len(order))
	for _, code := range order {
		freqs = append(freqs, CodeFrequency{Code: code, Count: counts[code], Example: examples[code]})
	}

	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].Count > freqs[j].Count
	})

	if len(freqs) > topCodesLimit {
		freqs = freqs[:topCodesLimit]
	}
	return freqs
}
