// Package registry implements the Schema Registry (spec.md §4.3): lookup
// by pointer with a memoized Processed Schema view, component-schema
// enumeration, and cycle queries backed by the reference graph.
package registry

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/dgellow/steady/internal/docpointer"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/refgraph"
)

// ProcessedSchema is a memoized view of a schema, shared across callers.
// Callers must not mutate the fields of a ProcessedSchema or its Raw
// schema (spec.md §3, "Processed schemas are shared; callers must not
// mutate them").
type ProcessedSchema struct {
	Pointer docpointer.Pointer
	Raw     *openapi.Schema

	// Cyclic reports whether Pointer participates in a reference cycle.
	Cyclic bool

	// OutboundRefs lists every $ref string reachable directly from Raw
	// (not recursively), used by analyzers and the generator's visited
	// set.
	OutboundRefs []string

	// TypeDiscriminator is a normalized summary of Raw.Type: the primary
	// non-null type name, or "" if the schema declares none directly
	// (e.g. a bare oneOf/allOf wrapper).
	TypeDiscriminator string
}

// Registry indexes a Document's schemas (and other pointer-addressable
// nodes) and caches ProcessedSchema views.
type Registry struct {
	doc   *openapi.Document
	graph *refgraph.Graph

	cache sync.Map // pointer string -> *cacheEntry
}

type cacheEntry struct {
	once   sync.Once
	value  *ProcessedSchema
	exists bool
}

// New builds a Registry over doc using a reference graph already computed
// by refgraph.Build. The Registry does not mutate doc or graph.
func New(doc *openapi.Document, graph *refgraph.Graph) *Registry {
	return &Registry{doc: doc, graph: graph}
}

// Graph exposes the underlying reference graph, e.g. for analyzers.
func (r *Registry) Graph() *refgraph.Graph { return r.graph }

// Document exposes the underlying document.
func (r *Registry) Document() *openapi.Document { return r.doc }

// Get returns the ProcessedSchema at p, constructing it at most once
// across concurrent callers (spec.md §4.3/§5, "at-most-once guarantee").
// It returns (nil, false) if p does not resolve to a schema-shaped node.
func (r *Registry) Get(p docpointer.Pointer) (*ProcessedSchema, bool) {
	key := p.String()

	entryIface, _ := r.cache.LoadOrStore(key, &cacheEntry{})
	entry := entryIface.(*cacheEntry)

	entry.once.Do(func() {
		entry.value, entry.exists = r.build(p)
	})

	return entry.value, entry.exists
}

// Resolve returns the raw node at p without wrapping it in a
// ProcessedSchema, e.g. for parameters/responses that aren't schemas.
func (r *Registry) Resolve(p docpointer.Pointer) (interface{}, bool) {
	return docpointer.Resolve(r.doc.RawRoot(), p)
}

// ResolveRef is a convenience equivalent to Get after normalizing a
// "$ref" wire string into a Pointer.
func (r *Registry) ResolveRef(ref string) (*ProcessedSchema, bool) {
	if !strings.HasPrefix(ref, "#") {
		return nil, false
	}
	return r.Get(docpointer.Parse(ref))
}

// IsCyclic reports whether the schema at ref participates in a cycle.
func (r *Registry) IsCyclic(ref string) bool {
	return r.graph.IsCyclic(docpointer.Parse(ref))
}

// GetComponentSchemas returns every #/components/schemas/* entry as
// ProcessedSchema views, keyed by component name.
func (r *Registry) GetComponentSchemas() map[string]*ProcessedSchema {
	out := make(map[string]*ProcessedSchema, len(r.doc.Components.Schemas))
	for name := range r.doc.Components.Schemas {
		p := docpointer.Pointer{"components", "schemas", name}
		if ps, ok := r.Get(p); ok {
			out[name] = ps
		}
	}
	return out
}

func (r *Registry) build(p docpointer.Pointer) (*ProcessedSchema, bool) {
	node, ok := r.Resolve(p)
	if !ok {
		return nil, false
	}

	raw, err := decodeSchemaNode(node)
	if err != nil {
		return nil, false
	}

	ps := &ProcessedSchema{
		Pointer: p,
		Raw:     raw,
		Cyclic:  r.graph.IsCyclic(p),
	}
	ps.OutboundRefs = collectOutboundRefs(raw)
	ps.TypeDiscriminator = typeDiscriminator(raw)

	return ps, true
}

// decodeSchemaNode re-marshals a raw pointer-resolved node back through
// openapi.Schema's UnmarshalJSON so that registry callers get the same
// typed view regardless of whether the node came from doc.Components or
// an arbitrary nested pointer. This is a little wasteful but keeps there
// being exactly one schema-decoding code path (openapi.Schema's own
// UnmarshalJSON), matching spec.md §3's "a schema's identity for caching
// purposes is its pointer" — decode-on-demand, not decode-once-globally.
func decodeSchemaNode(node interface{}) (*openapi.Schema, error) {
	data, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	var s openapi.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectOutboundRefs(s *openapi.Schema) []string {
	var out []string
	var walk func(s *openapi.Schema, depth int)
	walk = func(s *openapi.Schema, depth int) {
		if s == nil || depth > 1 {
			return
		}
		if s.Ref != "" {
			out = append(out, s.Ref)
			return
		}
		for _, sub := range s.Properties {
			walk(sub, depth+1)
		}
		walk(s.Items, depth+1)
		for _, sub := range s.OneOf {
			walk(sub, depth+1)
		}
		for _, sub := range s.AnyOf {
			walk(sub, depth+1)
		}
		for _, sub := range s.AllOf {
			walk(sub, depth+1)
		}
	}
	walk(s, 0)
	return out
}

func typeDiscriminator(s *openapi.Schema) string {
	if s == nil {
		return ""
	}
	if prim := s.Type.Primary(); prim != "" {
		return prim
	}
	if s.Ref != "" {
		return "$ref"
	}
	if len(s.OneOf) > 0 {
		return "oneOf"
	}
	if len(s.AnyOf) > 0 {
		return "anyOf"
	}
	if len(s.AllOf) > 0 {
		return "allOf"
	}
	return ""
}
