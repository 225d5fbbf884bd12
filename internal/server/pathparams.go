package server

import (
	"github.com/dgellow/steady/internal/generator"
	"github.com/dgellow/steady/internal/pathmatch"
)

// buildPathParamsMap turns a matched route's captured parameters into the
// generator's PathParamsMap, simplifying the teacher's
// hasPrimaryIDSuffixes heuristic: the last path-parameter segment in the
// pattern is the primary ID (the resource the request is actually
// addressing), everything captured before it is a secondary ID keyed by
// its OpenAPI parameter name (spec.md §3 supplement). The teacher's
// action-suffix special casing ("/approve", "/capture") doesn't apply
// here since this surface has no domain-specific actions.
func buildPathParamsMap(pattern string, params map[string]string) *generator.PathParamsMap {
	if len(params) == 0 {
		return nil
	}

	compiled := pathmatch.Compile(pattern)

	var names []string
	for _, seg := range compiled.Segments {
		if seg.Kind == pathmatch.SegmentParam || seg.Kind == pathmatch.SegmentMixed {
			names = append(names, seg.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	primaryName := names[len(names)-1]
	out := &generator.PathParamsMap{}

	if id, ok := params[primaryName]; ok {
		out.PrimaryID = &id
	}

	for _, name := range names[:len(names)-1] {
		id, ok := params[name]
		if !ok {
			continue
		}
		out.SecondaryIDs = append(out.SecondaryIDs, &generator.PathParamsSecondaryID{
			ID:   id,
			Name: name,
		})
	}

	return out
}
