// Package generator implements the Response Generator (C7): recursive
// descent over a response schema that produces a plausible JSON value,
// the way the teacher's DataGenerator turns a spec.Schema into fixture
// data (spec.md §4.7). Unlike the teacher, this module has no captured
// fixture store to draw realistic examples from — every leaf value is
// synthesized from the schema itself (type, format, enum, example),
// falling back to the teacher's "generate a synthetic fixture" path
// for every case instead of only the fixture-miss case.
package generator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/registry"
)

// Config tunes recursion bounds and determinism.
type Config struct {
	// MaxDepth bounds schema recursion (both $ref cycles and plain deep
	// nesting), mirroring the registry/analyzer's own depth guards
	// (spec.md §4.3/§4.4).
	MaxDepth int

	// Seed drives the synthetic value generator so that repeated calls
	// for the same schema produce the same output (spec.md §4.7,
	// "deterministic under a fixed seed"). -1 means "use wall-clock
	// randomness" (spec.md §4.7 Determinism, §6 `X-Steady-Seed`).
	Seed int64

	// ArrayMin/ArrayMax bound the length chosen for a generated array,
	// overridable per request via X-Steady-Array-Size/-Min/-Max
	// (spec.md §6). -1 means "no override" on that end, since 0 is
	// itself a legal requested array size.
	ArrayMin int
	ArrayMax int
}

// DefaultConfig returns the spec-documented bounds: depth 10 (spec.md
// §4.7/§5), seed 0, no array-size override.
func DefaultConfig() Config {
	return Config{MaxDepth: 10, ArrayMin: -1, ArrayMax: -1}
}

// Params describes one generation request.
type Params struct {
	Schema *openapi.Schema

	// RequestMethod and RequestPath drive the ID-reflection and
	// request-data-reflection supplements (spec.md §3 supplement,
	// ported from the teacher's recordAndReplaceIDs/datareplacer).
	RequestMethod string
	RequestPath   string

	// PathParams carries path-extracted IDs so the generator can make
	// a freshly-synthesized object's "id" (and related fields) match
	// what the caller actually asked for.
	PathParams *PathParamsMap

	// ArrayMin/ArrayMax override the Generator's configured array bounds
	// for this call only (spec.md §6 per-request headers). Nil means
	// "use the Generator's Config".
	ArrayMin *int
	ArrayMax *int

	// Seed overrides the Generator's configured seed for this call only
	// (spec.md §6 `X-Steady-Seed`, including -1 for wall-clock
	// randomness). Nil means "use the Generator's Config".
	Seed *int64

	// RequestData is the decoded request body (or query), reflected
	// into POST/PUT/PATCH responses the way a real API would echo back
	// what it was given.
	RequestData map[string]interface{}
}

// Generator produces response bodies from schemas.
type Generator struct {
	reg    *registry.Registry
	config Config
	rng    *deterministicSource
}

// New builds a Generator over reg using config.
func New(reg *registry.Registry, config Config) *Generator {
	return &Generator{reg: reg, config: config, rng: newDeterministicSource(config.Seed)}
}

// Generate produces a response body for params.Schema.
func (g *Generator) Generate(params Params) (interface{}, error) {
	if params.Schema == nil {
		return nil, nil
	}

	merged, err := g.mergeAllOf(params.Schema, 0, map[string]bool{})
	if err != nil {
		return nil, err
	}

	rng := newDeterministicSource(g.config.Seed)
	if params.Seed != nil {
		rng = newDeterministicSource(*params.Seed)
	}

	arrayMin := g.config.ArrayMin
	if params.ArrayMin != nil {
		arrayMin = *params.ArrayMin
	}
	arrayMax := g.config.ArrayMax
	if params.ArrayMax != nil {
		arrayMax = *params.ArrayMax
	}

	data, err := g.generate(merged, genContext{
		depth:    0,
		visited:  map[string]bool{},
		rng:      rng,
		arrayMin: arrayMin,
		arrayMax: arrayMax,
	})
	if err != nil {
		return nil, err
	}

	if params.PathParams != nil {
		recordAndReplaceIDs(params.PathParams, data)
		distributeReplacedIDs(params.PathParams, data)
	}

	if isWriteMethod(params.RequestMethod) && params.RequestData != nil {
		if m, ok := data.(map[string]interface{}); ok {
			reflectRequestData(params.RequestData, m)
		}
	}

	return data, nil
}

func isWriteMethod(method string) bool {
	return method == http.MethodPost || method == http.MethodPatch || method == http.MethodPut
}

type genContext struct {
	depth    int
	visited  map[string]bool
	rng      *deterministicSource
	arrayMin int
	arrayMax int
}

// truncationMarker is returned in place of a $ref that's already on the
// current recursive path, per spec.md §4.7 ("$ref: if already in
// visitedRefs, return a truncation marker object").
func truncationMarker(ref string) map[string]interface{} {
	return map[string]interface{}{
		"$comment": "recursion truncated to avoid an infinite cycle",
		"...":      "truncated",
		"$ref":     ref,
	}
}

func (g *Generator) generate(schema *openapi.Schema, ctx genContext) (interface{}, error) {
	if schema == nil {
		return nil, nil
	}

	if ctx.depth > g.config.MaxDepth {
		// Depth exceeding the configured maximum only happens along a
		// cyclic or pathologically deep chain; spec.md §4.7 says to
		// return a null sentinel here, not fail the whole generation.
		return nil, nil
	}

	if schema.IsBool {
		if schema.BoolValue {
			return map[string]interface{}{}, nil
		}
		return nil, nil
	}

	if schema.Ref != "" {
		if ctx.visited[schema.Ref] {
			return truncationMarker(schema.Ref), nil
		}
		ps, ok := g.reg.ResolveRef(schema.Ref)
		if !ok {
			return nil, fmt.Errorf("unresolved schema reference %q", schema.Ref)
		}

		next := ctx
		next.visited = copyVisited(ctx.visited)
		next.visited[schema.Ref] = true
		next.depth++
		return g.generate(ps.Raw, next)
	}

	if schema.Example != nil {
		var v interface{}
		if err := json.Unmarshal(schema.Example, &v); err == nil {
			return v, nil
		}
	}

	if len(schema.Enum) > 0 {
		return schema.Enum[0], nil
	}

	if len(schema.AnyOf) > 0 {
		return g.generate(schema.AnyOf[0], childCtx(ctx))
	}
	if len(schema.OneOf) > 0 {
		return g.generate(schema.OneOf[0], childCtx(ctx))
	}

	if isListResource(schema) {
		return g.generateListResource(schema, ctx)
	}

	switch schema.Type.Primary() {
	case "array":
		return g.generateArray(schema, ctx)
	case "object", "":
		if len(schema.Properties) > 0 {
			return g.generateObject(schema, ctx)
		}
		return g.synthesizeScalar(schema, ctx), nil
	default:
		return g.synthesizeScalar(schema, ctx), nil
	}
}

func childCtx(ctx genContext) genContext {
	return genContext{
		depth:    ctx.depth + 1,
		visited:  ctx.visited,
		rng:      ctx.rng,
		arrayMin: ctx.arrayMin,
		arrayMax: ctx.arrayMax,
	}
}

func copyVisited(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (g *Generator) generateObject(schema *openapi.Schema, ctx genContext) (interface{}, error) {
	required := map[string]bool{}
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]interface{}, len(schema.Properties))
	for _, name := range names {
		sub := schema.Properties[name]
		if sub != nil && sub.WriteOnly {
			// Write-only fields (e.g. a plaintext password) are never
			// echoed back in a response (spec.md §3 supplement).
			continue
		}
		if !required[name] && g.isCyclicSchema(sub) && ctx.depth > 3 {
			// Optional + cyclic + deep: skip rather than keep recursing
			// toward the depth cutoff (spec.md §4.7 "object" rule).
			continue
		}
		val, err := g.generate(sub, childCtx(ctx))
		if err != nil {
			return nil, err
		}
		out[name] = val
	}

	if schema.AdditionalPropertiesBool != nil && *schema.AdditionalPropertiesBool {
		out["additionalProperty"] = "value"
	} else if schema.AdditionalProperties != nil {
		val, err := g.generate(schema.AdditionalProperties, childCtx(ctx))
		if err != nil {
			return nil, err
		}
		out["additionalProperty"] = val
	}

	return out, nil
}

func (g *Generator) isCyclicSchema(schema *openapi.Schema) bool {
	if schema == nil || schema.Ref == "" {
		return false
	}
	return g.reg.IsCyclic(schema.Ref)
}

func (g *Generator) generateArray(schema *openapi.Schema, ctx genContext) (interface{}, error) {
	base := 1
	if schema.MinItems != nil && *schema.MinItems > base {
		base = *schema.MinItems
	}
	count := clampArrayLen(base, ctx.arrayMin, ctx.arrayMax)
	if schema.MaxItems != nil && count > *schema.MaxItems {
		count = *schema.MaxItems
	}
	if g.isCyclicSchema(schema.Items) && count > 2 {
		count = 2
	}
	if count < 0 {
		count = 0
	}
	if count == 0 {
		return []interface{}{}, nil
	}

	out := make([]interface{}, count)
	for i := range out {
		item, err := g.generate(schema.Items, childCtx(ctx))
		if err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}

// clampArrayLen bounds base to [arrayMin, arrayMax] when those are set
// (>= 0; -1 means "no override"), per spec.md §4.7 "array" rule and §6's
// per-request size headers.
func clampArrayLen(base, arrayMin, arrayMax int) int {
	count := base
	if arrayMin >= 0 && count < arrayMin {
		count = arrayMin
	}
	if arrayMax >= 0 && count > arrayMax {
		count = arrayMax
	}
	return count
}

// isListResource recognizes the common "paginated list" object shape:
// { object: "list", data: [...], has_more, total_count, url }. It's the
// same heuristic the teacher uses (spec.md §3 supplement).
func isListResource(schema *openapi.Schema) bool {
	if schema.Type.Primary() != "object" && !schema.Type.Empty() {
		return false
	}
	if schema.Properties == nil {
		return false
	}

	object, ok := schema.Properties["object"]
	if !ok || len(object.Enum) == 0 {
		return false
	}
	if s, ok := object.Enum[0].(string); !ok || s != "list" {
		return false
	}

	data, ok := schema.Properties["data"]
	return ok && data.Items != nil
}

func (g *Generator) generateListResource(schema *openapi.Schema, ctx genContext) (interface{}, error) {
	count := clampArrayLen(1, ctx.arrayMin, ctx.arrayMax)
	items := make([]interface{}, count)
	for i := range items {
		item, err := g.generate(schema.Properties["data"].Items, childCtx(ctx))
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	out := make(map[string]interface{}, len(schema.Properties))
	for key, sub := range schema.Properties {
		switch key {
		case "data":
			out[key] = items
		case "has_more":
			out[key] = false
		case "object":
			out[key] = "list"
		case "total_count":
			out[key] = len(items)
		case "url":
			out[key] = urlForListResource(sub)
		default:
			val, err := g.generate(sub, childCtx(ctx))
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
	}
	return out, nil
}

func urlForListResource(schema *openapi.Schema) string {
	if schema != nil && len(schema.Pattern) > 1 && schema.Pattern[0] == '^' {
		return schema.Pattern[1:]
	}
	return ""
}
