// Package pathmatch compiles OpenAPI path templates into a form that
// supports O(1) exact lookup and linear fallback over parameterized
// patterns, including parameters embedded inside a segment
// ("prefix{name}suffix"), per spec.md §4.5.
package pathmatch

import (
	"net/url"
	"regexp"
	"strings"
)

// SegmentKind discriminates the three compiled segment shapes.
type SegmentKind int

const (
	// SegmentLiteral matches a fixed string exactly.
	SegmentLiteral SegmentKind = iota
	// SegmentParam matches an entire segment as a named parameter.
	SegmentParam
	// SegmentMixed matches "prefix{name}suffix" within one segment.
	SegmentMixed
)

// Segment is one compiled path-template segment.
type Segment struct {
	Kind   SegmentKind
	Value  string // literal value, for SegmentLiteral
	Name   string // parameter name, for SegmentParam/SegmentMixed
	Prefix string // for SegmentMixed
	Suffix string // for SegmentMixed
}

// CompiledPath is the (pattern, segments, exact) triple from spec.md §3.
type CompiledPath struct {
	// Pattern is the original OpenAPI path template, e.g. "/v2/users/{id}".
	Pattern string

	Segments []Segment

	// Exact reports whether Pattern contains no parameters at all, making
	// it eligible for the O(1) hash-keyed lookup in C8.
	Exact bool

	// Specificity is the number of literal segments, used to order
	// parameterized patterns (spec.md §4.5/§8 "more specific patterns
	// win").
	Specificity int
}

var mixedSegmentPattern = regexp.MustCompile(`^([^{]*)\{([^}]+)\}(.*)$`)

// Compile splits pattern on "/", drops empty segments, and classifies
// each segment as literal, param, or mixed.
func Compile(pattern string) CompiledPath {
	parts := splitNonEmpty(pattern)

	segments := make([]Segment, 0, len(parts))
	exact := true
	specificity := 0

	for _, part := range parts {
		if part == "" {
			continue
		}
		if part[0] == '{' && part[len(part)-1] == '}' && strings.Count(part, "{") == 1 {
			name := part[1 : len(part)-1]
			segments = append(segments, Segment{Kind: SegmentParam, Name: name})
			exact = false
			continue
		}

		if m := mixedSegmentPattern.FindStringSubmatch(part); m != nil {
			segments = append(segments, Segment{
				Kind:   SegmentMixed,
				Prefix: m[1],
				Name:   m[2],
				Suffix: m[3],
			})
			exact = false
			continue
		}

		segments = append(segments, Segment{Kind: SegmentLiteral, Value: part})
		specificity++
	}

	return CompiledPath{
		Pattern:     pattern,
		Segments:    segments,
		Exact:       exact,
		Specificity: specificity,
	}
}

func splitNonEmpty(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Match attempts to match requestPath against cp. On success it returns
// the captured parameter values (possibly empty, never nil on success)
// and ok=true. A segment-count mismatch, a literal mismatch, an empty
// mixed-segment capture, or a percent-decoding failure all yield ok=false
// rather than a crash (spec.md §4.5 step 3, §8 boundary behaviors).
func Match(cp CompiledPath, requestPath string) (params map[string]string, ok bool) {
	reqSegments := splitNonEmpty(requestPath)
	if len(reqSegments) != len(cp.Segments) {
		return nil, false
	}

	params = make(map[string]string, len(cp.Segments))
	for i, seg := range cp.Segments {
		raw := reqSegments[i]

		switch seg.Kind {
		case SegmentLiteral:
			if raw != seg.Value {
				return nil, false
			}

		case SegmentParam:
			decoded, err := url.PathUnescape(raw)
			if err != nil {
				return nil, false
			}
			params[seg.Name] = decoded

		case SegmentMixed:
			if !strings.HasPrefix(raw, seg.Prefix) || !strings.HasSuffix(raw, seg.Suffix) {
				return nil, false
			}
			middle := raw[len(seg.Prefix) : len(raw)-len(seg.Suffix)]
			if middle == "" {
				return nil, false
			}
			decoded, err := url.PathUnescape(middle)
			if err != nil {
				return nil, false
			}
			params[seg.Name] = decoded
		}
	}

	return params, true
}

// Matcher holds a compiled route table: an O(1) exact-match index plus a
// specificity-ordered fallback list, per spec.md §4.5 "Route selection".
type Matcher struct {
	exact    map[string]int
	fallback []int
	paths    []CompiledPath
}

// NewMatcher compiles patterns (as returned by Compile, in caller-chosen
// insertion order) into a Matcher. Exact routes are indexed by their full
// pattern string; the rest are ordered literal-segment-count descending,
// ties broken by insertion order (a stable sort).
func NewMatcher(paths []CompiledPath) *Matcher {
	m := &Matcher{
		exact: make(map[string]int),
		paths: paths,
	}

	for i, p := range paths {
		if p.Exact {
			m.exact[normalizeForExact(p.Pattern)] = i
		} else {
			m.fallback = append(m.fallback, i)
		}
	}

	sortStableBySpecificityDesc(m.fallback, paths)

	return m
}

func sortStableBySpecificityDesc(idx []int, paths []CompiledPath) {
	// Insertion sort: stable and adequate for route-table sizes, and
	// keeps this package free of a "sort" import for a single call site
	// mirroring docpointer's minimalism.
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && paths[idx[j-1]].Specificity < paths[idx[j]].Specificity; j-- {
			idx[j-1], idx[j] = idx[j], idx[j-1]
		}
	}
}

// MatchResult carries the matched compiled path alongside its captured
// parameters.
type MatchResult struct {
	Path   CompiledPath
	Params map[string]string
}

// Find tries the exact index first, then falls back to the
// specificity-ordered list; first match wins.
func (m *Matcher) Find(requestPath string) (MatchResult, bool) {
	if idx, ok := m.exact[normalizeForExact(requestPath)]; ok {
		return MatchResult{Path: m.paths[idx], Params: map[string]string{}}, true
	}

	for _, idx := range m.fallback {
		cp := m.paths[idx]
		if params, ok := Match(cp, requestPath); ok {
			return MatchResult{Path: cp, Params: params}, true
		}
	}

	return MatchResult{}, false
}

// normalizeForExact reproduces the same "//" and trailing-slash tolerance
// the segment matcher gives parameterized routes, so that an exact route
// is equally forgiving (spec.md §8: "//users//123" style boundary
// behaviors apply uniformly).
func normalizeForExact(requestPath string) string {
	segs := splitNonEmpty(requestPath)
	return "/" + strings.Join(segs, "/")
}
