package generator

import (
	"fmt"

	"github.com/dgellow/steady/internal/openapi"
	"github.com/imdario/mergo"
)

// mergeAllOf flattens an allOf composition into a single schema by
// merging each branch's Properties/Required in order, later branches
// overriding earlier ones where both set the same field or property
// name. This mirrors the teacher's
// spec.Schema.FlattenAllOf, implemented here with mergo instead of a
// hand-rolled merge.
func (g *Generator) mergeAllOf(schema *openapi.Schema, depth int, visited map[string]bool) (*openapi.Schema, error) {
	if schema == nil {
		return nil, nil
	}
	if depth > g.config.MaxDepth {
		return nil, fmt.Errorf("allOf flattening exceeded max depth %d", g.config.MaxDepth)
	}

	if schema.Ref != "" {
		if visited[schema.Ref] {
			return schema, nil
		}
		ps, ok := g.reg.ResolveRef(schema.Ref)
		if !ok {
			return schema, nil
		}
		next := copyVisitedRefs(visited)
		next[schema.Ref] = true
		return g.mergeAllOf(ps.Raw, depth+1, next)
	}

	if len(schema.AllOf) == 0 {
		return schema, nil
	}

	merged := &openapi.Schema{
		Type:       schema.Type,
		Properties: map[string]*openapi.Schema{},
	}

	for _, branch := range schema.AllOf {
		resolved, err := g.mergeAllOf(branch, depth+1, visited)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			continue
		}
		if err := mergo.Merge(merged, resolved, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging allOf branch: %w", err)
		}
		for name, sub := range resolved.Properties {
			merged.Properties[name] = sub
		}
		merged.Required = append(merged.Required, resolved.Required...)
	}

	// Properties/Type declared directly alongside allOf (legal, if
	// unusual) take precedence over what the branches contributed.
	for name, sub := range schema.Properties {
		merged.Properties[name] = sub
	}
	if !schema.Type.Empty() {
		merged.Type = schema.Type
	}
	merged.Required = append(merged.Required, schema.Required...)

	return merged, nil
}

func copyVisitedRefs(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
