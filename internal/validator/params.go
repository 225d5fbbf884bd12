package validator

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dgellow/steady/internal/openapi"
)

// Extractor turns raw wire-format parameter values (query strings, path
// segments, header lines, cookies) into typed Go values ready for the
// schema engine, honoring the configured array/object serialization
// formats (spec.md §4.6).
type Extractor struct {
	config Config
}

// NewExtractor builds an Extractor for the given configuration.
func NewExtractor(config Config) *Extractor {
	return &Extractor{config: config}
}

// ExtractQuery decodes every query-location parameter declared on an
// operation out of a raw query string ("a=1&b=2"), plus every raw query
// key that isn't covered by a declared parameter, passed through
// unconverted so the schema engine's additionalProperties:false check
// can report it (spec.md §4.6 "Unknown query parameters are always
// reported").
func (e *Extractor) ExtractQuery(rawQuery string, params []*openapi.Parameter) map[string]interface{} {
	values, _ := url.ParseQuery(rawQuery)
	out := map[string]interface{}{}

	for _, p := range params {
		if p == nil || p.In != "query" {
			continue
		}
		v, ok := e.extractOne(values, p)
		if ok {
			out[p.Name] = v
		}
	}

	for key, vs := range values {
		if len(vs) == 0 || e.isDeclaredQueryKey(key, params) {
			continue
		}
		out[key] = vs[0]
	}

	return out
}

// isDeclaredQueryKey reports whether key belongs to one of the declared
// query parameters: an exact name match, a bracket/dot-suffixed wire
// form an array or object parameter may appear under ("tag[]",
// "color[R]"), or — for the default flat object format, where
// sub-properties appear as bare top-level keys with no prefix at all —
// one of that parameter's declared property names.
func (e *Extractor) isDeclaredQueryKey(key string, params []*openapi.Parameter) bool {
	for _, p := range params {
		if p == nil || p.In != "query" {
			continue
		}
		if key == p.Name || strings.HasPrefix(key, p.Name+"[") || strings.HasPrefix(key, p.Name+".") {
			return true
		}
		if p.Schema == nil || p.Schema.Type.Empty() || p.Schema.Type.Primary() != "object" {
			continue
		}
		switch e.config.QueryObjectFormat {
		case QueryObjectBrackets, QueryObjectDots, QueryObjectFlatComma:
			// wire forms already covered by the prefix/exact checks above.
		default: // flat, auto
			if _, ok := p.Schema.Properties[key]; ok {
				return true
			}
		}
	}
	return false
}

// ExtractPath decodes path-location parameters from already-matched
// string segments (pathmatch.MatchResult.Params).
func (e *Extractor) ExtractPath(matched map[string]string, params []*openapi.Parameter) map[string]interface{} {
	out := map[string]interface{}{}
	for _, p := range params {
		if p == nil || p.In != "path" {
			continue
		}
		raw, ok := matched[p.Name]
		if !ok {
			continue
		}
		out[p.Name] = coerceScalar(raw, p.Schema)
	}
	return out
}

// ExtractHeader decodes header-location parameters. Array-valued headers
// use the "simple" style: always comma-joined regardless of explode,
// per OpenAPI's fixed style for the "header" location (spec.md §4.6
// open-question decision: header array simple style is fully supported).
func (e *Extractor) ExtractHeader(h http.Header, params []*openapi.Parameter) map[string]interface{} {
	out := map[string]interface{}{}
	for _, p := range params {
		if p == nil || p.In != "header" {
			continue
		}
		raw := h.Get(p.Name)
		if raw == "" && h.Values(p.Name) == nil {
			continue
		}
		out[p.Name] = e.decodeSimple(raw, p)
	}
	return out
}

// ExtractCookie decodes each cookie-location parameter from its cookie
// value with the same decodeSimple rules headers use: arrays are
// comma-separated, objects follow the parameter's explode setting.
func (e *Extractor) ExtractCookie(cookies []*http.Cookie, params []*openapi.Parameter) map[string]interface{} {
	byName := map[string]string{}
	for _, c := range cookies {
		byName[c.Name] = c.Value
	}

	out := map[string]interface{}{}
	for _, p := range params {
		if p == nil || p.In != "cookie" {
			continue
		}
		raw, ok := byName[p.Name]
		if !ok {
			continue
		}
		out[p.Name] = e.decodeSimple(raw, p)
	}
	return out
}

func (e *Extractor) extractOne(values url.Values, p *openapi.Parameter) (interface{}, bool) {
	schema := p.Schema
	if schema != nil && !schema.Type.Empty() {
		switch schema.Type.Primary() {
		case "array":
			if e.config.QueryArrayFormat == QueryArrayBrackets {
				raw, present := collectBracketArray(values, p.Name)
				if !present {
					return nil, false
				}
				return e.decodeArrayQuery(raw, p, schema), true
			}
			raw, present := values[p.Name]
			if !present {
				return nil, false
			}
			return e.decodeArrayQuery(raw, p, schema), true
		case "object":
			obj, present := e.decodeObjectQuery(values, p.Name, schema)
			return obj, present
		}
	}

	raw, present := values[p.Name]
	if !present {
		return nil, false
	}
	return coerceScalar(raw[0], schema), true
}

func explodeOf(p *openapi.Parameter) bool {
	if p.Explode != nil {
		return *p.Explode
	}
	return p.Style == "" || p.Style == "form"
}

func (e *Extractor) decodeArrayQuery(raw []string, p *openapi.Parameter, schema *openapi.Schema) []interface{} {
	format := e.config.QueryArrayFormat
	explode := explodeOf(p)

	var items []string
	switch {
	case format == QueryArrayAuto:
		if len(raw) > 1 || (explode && len(raw) == 1 && !strings.ContainsAny(raw[0], ", |")) {
			items = raw
		} else {
			items = splitOnAny(raw[0], ",")
		}
	case format == QueryArrayRepeat || (explode && len(raw) > 1):
		items = raw
	case format == QueryArrayComma:
		items = splitOnAny(joinFirst(raw), ",")
	case format == QueryArraySpace:
		items = splitOnAny(joinFirst(raw), " ")
	case format == QueryArrayPipe:
		items = splitOnAny(joinFirst(raw), "|")
	case format == QueryArrayBrackets:
		items = raw
	default:
		items = raw
	}

	itemSchema := schema.Items
	out := make([]interface{}, 0, len(items))
	for _, it := range items {
		out = append(out, coerceScalar(it, itemSchema))
	}
	return out
}

// collectBracketArray scans values for the brackets wire form of an
// array query parameter ("tag[]=a&tag[]=b", or the indexed variant
// "tag[0]=a&tag[1]=b"), the same prefix/suffix scan decodeObjectQuery
// already uses for object parameters. Matched keys are visited in
// sorted order so an indexed form stays deterministic.
func collectBracketArray(values url.Values, paramName string) ([]string, bool) {
	prefix := paramName + "["
	var keys []string
	for key := range values {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, "]") {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)

	var out []string
	for _, key := range keys {
		out = append(out, values[key]...)
	}
	return out, true
}

func joinFirst(raw []string) string {
	if len(raw) == 0 {
		return ""
	}
	return raw[0]
}

func splitOnAny(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}

func (e *Extractor) decodeObjectQuery(values url.Values, paramName string, schema *openapi.Schema) (map[string]interface{}, bool) {
	out := map[string]interface{}{}
	found := false

	switch e.config.QueryObjectFormat {
	case QueryObjectBrackets:
		prefix := paramName + "["
		for key, vs := range values {
			if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, "]") {
				prop := key[len(prefix) : len(key)-1]
				out[prop] = coerceScalar(joinFirst(vs), propSchema(schema, prop))
				found = true
			}
		}
	case QueryObjectDots:
		prefix := paramName + "."
		for key, vs := range values {
			if strings.HasPrefix(key, prefix) {
				prop := strings.TrimPrefix(key, prefix)
				out[prop] = coerceScalar(joinFirst(vs), propSchema(schema, prop))
				found = true
			}
		}
	case QueryObjectFlatComma:
		if raw, ok := values[paramName]; ok {
			found = true
			parts := splitOnAny(joinFirst(raw), ",")
			for i := 0; i+1 < len(parts); i += 2 {
				out[parts[i]] = coerceScalar(parts[i+1], propSchema(schema, parts[i]))
			}
		}
	default: // flat, auto: object properties appear as top-level query keys
		for prop := range schema.Properties {
			if vs, ok := values[prop]; ok {
				out[prop] = coerceScalar(joinFirst(vs), schema.Properties[prop])
				found = true
			}
		}
	}

	return out, found
}

func propSchema(schema *openapi.Schema, name string) *openapi.Schema {
	if schema == nil {
		return nil
	}
	return schema.Properties[name]
}

// decodeSimple implements OpenAPI's "simple" style, shared by header and
// (for cookies, approximated) scalar/array/object decoding from a single
// raw string.
func (e *Extractor) decodeSimple(raw string, p *openapi.Parameter) interface{} {
	schema := p.Schema
	if schema == nil || schema.Type.Empty() {
		return raw
	}

	switch schema.Type.Primary() {
	case "array":
		parts := splitOnAny(raw, ",")
		out := make([]interface{}, 0, len(parts))
		for _, part := range parts {
			out = append(out, coerceScalar(strings.TrimSpace(part), schema.Items))
		}
		return out
	case "object":
		parts := splitOnAny(raw, ",")
		out := map[string]interface{}{}
		explode := explodeOf(p)
		if explode {
			for _, part := range parts {
				kv := strings.SplitN(part, "=", 2)
				if len(kv) == 2 {
					out[kv[0]] = coerceScalar(kv[1], propSchema(schema, kv[0]))
				}
			}
		} else {
			for i := 0; i+1 < len(parts); i += 2 {
				out[parts[i]] = coerceScalar(parts[i+1], propSchema(schema, parts[i]))
			}
		}
		return out
	default:
		return coerceScalar(raw, schema)
	}
}

// coerceScalar converts a raw wire-format string into the Go value
// (string/float64/bool/nil) the schema engine expects, per schema's
// declared primary type. Unparseable values are passed through as
// strings so the type-check keyword can produce a precise diagnostic
// instead of silently dropping the value.
func coerceScalar(raw string, schema *openapi.Schema) interface{} {
	if schema == nil || schema.Type.Empty() {
		return raw
	}

	switch schema.Type.Primary() {
	case "integer", "number":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
		return raw
	case "null":
		if raw == "" {
			return nil
		}
		return raw
	default:
		return raw
	}
}
