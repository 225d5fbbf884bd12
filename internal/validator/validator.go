package validator

import (
	"net/http"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/registry"
)

// Request is the subset of an incoming HTTP request the validator needs,
// kept decoupled from net/http.Request so callers (and tests) can build
// one without standing up a real server.
type Request struct {
	Method      string
	RawQuery    string
	Header      http.Header
	Cookies     []*http.Cookie
	Body        []byte
	ContentType string
	PathParams  map[string]string
}

// Result is the outcome of validating one request against one operation.
type Result struct {
	Valid  bool
	Errors []diagnostics.ValidationIssue
	// Warnings holds non-blocking issues. Validate leaves it empty: every
	// issue it finds, format failures included, goes into Errors.
	Warnings []diagnostics.ValidationIssue
	// DecodedBody is the parsed request body, available to the generator
	// for request-data reflection (spec.md §4.7 supplement).
	DecodedBody interface{}
}

// Validator checks requests against an operation's declared parameters
// and request body, per spec.md §4.6.
type Validator struct {
	reg       *registry.Registry
	config    Config
	extractor *Extractor
}

// New builds a Validator backed by reg, using config for serialization
// format and strictness knobs.
func New(reg *registry.Registry, config Config) *Validator {
	return &Validator{reg: reg, config: config, extractor: NewExtractor(config)}
}

// Validate checks req against op's declared parameters (resolving any
// $ref parameters against componentParams) and request body.
func (v *Validator) Validate(req Request, op *openapi.Operation, componentParams map[string]*openapi.Parameter) Result {
	params := resolveParams(op.Parameters, componentParams)

	var issues []diagnostics.ValidationIssue

	issues = append(issues, v.validateLocation(req.RawQuery, params, "query")...)
	issues = append(issues, v.validatePathParams(req.PathParams, params)...)
	issues = append(issues, v.validateHeaders(req.Header, params)...)
	issues = append(issues, v.validateCookies(req.Cookies, params)...)

	bodyIssues, decoded := v.validateBody(req, op)
	issues = append(issues, bodyIssues...)

	return Result{
		Valid:       len(issues) == 0,
		Errors:      issues,
		DecodedBody: decoded,
	}
}

func resolveParams(declared []*openapi.Parameter, components map[string]*openapi.Parameter) []*openapi.Parameter {
	out := make([]*openapi.Parameter, 0, len(declared))
	for _, p := range declared {
		if p == nil {
			continue
		}
		if p.Ref == "" {
			out = append(out, p)
			continue
		}
		if resolved, ok := components[refName(p.Ref, "#/components/parameters/")]; ok {
			out = append(out, resolved)
		}
	}
	return out
}

func refName(ref, prefix string) string {
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}

func (v *Validator) validateLocation(rawQuery string, params []*openapi.Parameter, location string) []diagnostics.ValidationIssue {
	if location != "query" {
		return nil
	}

	schema, names := syntheticObjectSchema(params, "query")
	values := v.extractor.ExtractQuery(rawQuery, params)

	eng := newEngine(v.reg, v.config)
	issues := eng.validate(schema, toMapIface(values), "query")
	_ = names
	return issues
}

func (v *Validator) validatePathParams(matched map[string]string, params []*openapi.Parameter) []diagnostics.ValidationIssue {
	schema, _ := syntheticObjectSchema(params, "path")
	values := v.extractor.ExtractPath(matched, params)

	eng := newEngine(v.reg, v.config)
	return eng.validate(schema, toMapIface(values), "path")
}

func (v *Validator) validateHeaders(h http.Header, params []*openapi.Parameter) []diagnostics.ValidationIssue {
	schema, _ := syntheticObjectSchema(params, "header")
	values := v.extractor.ExtractHeader(h, params)

	eng := newEngine(v.reg, v.config)
	return eng.validate(schema, toMapIface(values), "header")
}

func (v *Validator) validateCookies(cookies []*http.Cookie, params []*openapi.Parameter) []diagnostics.ValidationIssue {
	schema, _ := syntheticObjectSchema(params, "cookie")
	values := v.extractor.ExtractCookie(cookies, params)

	eng := newEngine(v.reg, v.config)
	return eng.validate(schema, toMapIface(values), "cookie")
}

func (v *Validator) validateBody(req Request, op *openapi.Operation) ([]diagnostics.ValidationIssue, interface{}) {
	if op.RequestBody == nil {
		return nil, nil
	}

	maxBytes := v.config.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = MaxBodyBytes
	}
	if int64(len(req.Body)) > maxBytes {
		return []diagnostics.ValidationIssue{{Path: "$", Message: "request body exceeds the maximum allowed size"}}, nil
	}

	if len(req.Body) == 0 {
		if op.RequestBody.Required {
			return []diagnostics.ValidationIssue{{Path: "$", Message: "request body is required but was empty"}}, nil
		}
		return nil, nil
	}

	decoded, parseIssues, err := decodeBody(req.Body, req.ContentType)
	if err != nil {
		return []diagnostics.ValidationIssue{{Path: "$", Message: err.Error()}}, nil
	}
	if len(parseIssues) > 0 {
		return parseIssues, nil
	}

	mt, ok := op.RequestBody.Content[mediaTypeKey(req.ContentType)]
	if !ok || mt.Schema == nil {
		return []diagnostics.ValidationIssue{{Path: "body", Message: "unsupported content type"}}, decoded.Value
	}

	eng := newEngine(v.reg, v.config)
	issues := eng.validate(mt.Schema, decoded.Value, "$")
	return issues, decoded.Value
}

// syntheticObjectSchema builds an object schema from every parameter
// declared for the given location, the way the teacher's
// BuildQuerySchema assembles a validation schema out of scattered
// Parameter declarations rather than one already-shaped JSON schema.
func syntheticObjectSchema(params []*openapi.Parameter, in string) (*openapi.Schema, []string) {
	schema := &openapi.Schema{
		Type:       openapi.SchemaType{Values: []string{"object"}},
		Properties: map[string]*openapi.Schema{},
	}
	falseVal := false
	schema.AdditionalPropertiesBool = &falseVal

	var names []string
	for _, p := range params {
		if p == nil || p.In != in {
			continue
		}
		ps := p.Schema
		if ps == nil {
			ps = &openapi.Schema{}
		}
		schema.Properties[p.Name] = ps
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
		names = append(names, p.Name)
	}
	return schema, names
}

func toMapIface(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

func mediaTypeKey(contentType string) string {
	for i, c := range contentType {
		if c == ';' {
			return contentType[:i]
		}
	}
	return contentType
}
