package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/registry"
)

// engine runs the JSON-Schema 2020-12 subset described in spec.md §4.6
// against a decoded value, resolving $ref through a Registry and
// bounding recursion with a visited-pointer set.
type engine struct {
	reg     *registry.Registry
	config  Config
	visited map[string]bool
}

func newEngine(reg *registry.Registry, config Config) *engine {
	return &engine{reg: reg, config: config, visited: map[string]bool{}}
}

// validate checks value against schema at the dotted location path,
// appending ValidationIssues for every failing keyword. Each issue
// records the instance path only; the failing keyword appears in its
// message, not as a separate schema path.
func (e *engine) validate(schema *openapi.Schema, value interface{}, path string) []diagnostics.ValidationIssue {
	if schema == nil {
		return nil
	}

	if schema.IsBool {
		if schema.BoolValue {
			return nil
		}
		return []diagnostics.ValidationIssue{{Path: path, Message: "value is not allowed here (schema is `false`)"}}
	}

	if schema.Ref != "" {
		return e.validateRef(schema.Ref, value, path)
	}

	var issues []diagnostics.ValidationIssue

	issues = append(issues, e.checkType(schema, value, path)...)
	issues = append(issues, e.checkEnumConst(schema, value, path)...)
	issues = append(issues, e.checkComposition(schema, value, path)...)

	switch v := value.(type) {
	case string:
		issues = append(issues, e.checkString(schema, v, path)...)
	case float64:
		issues = append(issues, e.checkNumber(schema, v, path)...)
	case bool:
		// no further keyword checks
	case []interface{}:
		issues = append(issues, e.checkArray(schema, v, path)...)
	case map[string]interface{}:
		issues = append(issues, e.checkObject(schema, v, path)...)
	case nil:
		// handled by checkType (nullable)
	}

	return issues
}

func (e *engine) validateRef(ref string, value interface{}, path string) []diagnostics.ValidationIssue {
	if e.visited[ref] {
		// A revisited pointer along the current recursive path is
		// treated as satisfied, to terminate schema cycles (spec.md
		// §4.6 step 2).
		return nil
	}

	ps, ok := e.reg.ResolveRef(ref)
	if !ok {
		return []diagnostics.ValidationIssue{{Path: path, Message: fmt.Sprintf("unresolved schema reference %q", ref)}}
	}

	e.visited[ref] = true
	defer delete(e.visited, ref)

	return e.validate(ps.Raw, value, path)
}

func (e *engine) checkType(schema *openapi.Schema, value interface{}, path string) []diagnostics.ValidationIssue {
	if schema.Type.Empty() {
		return nil
	}

	if value == nil {
		if schema.Nullable || schema.Type.Is("null") {
			return nil
		}
		return []diagnostics.ValidationIssue{{Path: path, Message: "value must not be null", Expected: schema.Type.String(), Actual: "null"}}
	}

	actual := jsonTypeOf(value)
	for _, want := range schema.Type.Values {
		if want == "null" {
			continue
		}
		if typeMatches(want, actual, value) {
			return nil
		}
	}

	return []diagnostics.ValidationIssue{{
		Path:     path,
		Message:  fmt.Sprintf("expected type %s, got %s", schema.Type.String(), actual),
		Expected: schema.Type.String(),
		Actual:   actual,
	}}
}

func typeMatches(want, actual string, value interface{}) bool {
	if want == actual {
		return true
	}
	// integer is a refinement of number: 3.0 satisfies "integer".
	if want == "integer" && actual == "number" {
		if f, ok := value.(float64); ok {
			return f == math.Trunc(f)
		}
	}
	return false
}

func jsonTypeOf(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case float64, int:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func (e *engine) checkEnumConst(schema *openapi.Schema, value interface{}, path string) []diagnostics.ValidationIssue {
	var issues []diagnostics.ValidationIssue

	if len(schema.Enum) > 0 {
		match := false
		for _, candidate := range schema.Enum {
			if deepEqual(candidate, value) {
				match = true
				break
			}
		}
		if !match {
			issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: "value is not one of the allowed enum values"})
		}
	}

	if len(schema.Const) > 0 {
		var constVal interface{}
		if err := json.Unmarshal(schema.Const, &constVal); err == nil {
			if !deepEqual(constVal, value) {
				issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: "value does not equal the schema's const"})
			}
		}
	}

	return issues
}

func (e *engine) checkComposition(schema *openapi.Schema, value interface{}, path string) []diagnostics.ValidationIssue {
	var issues []diagnostics.ValidationIssue

	if len(schema.AllOf) > 0 {
		for i, sub := range schema.AllOf {
			issues = append(issues, e.validate(sub, value, fmt.Sprintf("%s[allOf:%d]", path, i))...)
		}
	}

	if len(schema.AnyOf) > 0 {
		var anyMatched bool
		var firstFailure []diagnostics.ValidationIssue
		for _, sub := range schema.AnyOf {
			subIssues := e.validate(sub, value, path)
			if len(subIssues) == 0 {
				anyMatched = true
				break
			}
			if firstFailure == nil {
				firstFailure = subIssues
			}
		}
		if !anyMatched {
			issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: "value does not match any anyOf branch"})
		}
	}

	if len(schema.OneOf) > 0 {
		matches := 0
		for _, sub := range schema.OneOf {
			if len(e.validate(sub, value, path)) == 0 {
				matches++
			}
		}
		switch e.config.OneOfMode {
		case OneOfExactlyOne:
			if matches != 1 {
				issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("value must match exactly one oneOf branch, matched %d", matches)})
			}
		default: // OneOfAnyMatch
			if matches == 0 {
				issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: "value does not match any oneOf branch"})
			}
		}
	}

	if schema.Not != nil {
		if len(e.validate(schema.Not, value, path)) == 0 {
			issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: "value must not match the 'not' schema"})
		}
	}

	return issues
}

func (e *engine) checkString(schema *openapi.Schema, v string, path string) []diagnostics.ValidationIssue {
	var issues []diagnostics.ValidationIssue

	if schema.MinLength != nil && len(v) < *schema.MinLength {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("string shorter than minLength %d", *schema.MinLength)})
	}
	if schema.MaxLength != nil && len(v) > *schema.MaxLength {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("string longer than maxLength %d", *schema.MaxLength)})
	}
	if schema.Pattern != "" {
		if re, err := regexp.Compile(schema.Pattern); err == nil {
			if !re.MatchString(v) {
				issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("string does not match pattern %q", schema.Pattern)})
			}
		}
	}
	if e.config.EnableFormat && schema.Format != "" {
		if msg, ok := checkFormat(schema.Format, v); !ok {
			issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: msg})
		}
	}

	return issues
}

func (e *engine) checkNumber(schema *openapi.Schema, v float64, path string) []diagnostics.ValidationIssue {
	var issues []diagnostics.ValidationIssue

	if schema.Minimum != nil && v < *schema.Minimum {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("value below minimum %v", *schema.Minimum)})
	}
	if schema.Maximum != nil && v > *schema.Maximum {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("value above maximum %v", *schema.Maximum)})
	}
	if schema.ExclusiveMinimum != nil && v <= *schema.ExclusiveMinimum {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("value must be strictly greater than %v", *schema.ExclusiveMinimum)})
	}
	if schema.ExclusiveMaximum != nil && v >= *schema.ExclusiveMaximum {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("value must be strictly less than %v", *schema.ExclusiveMaximum)})
	}
	if schema.MultipleOf != nil && *schema.MultipleOf != 0 {
		ratio := v / *schema.MultipleOf
		if math.Abs(ratio-math.Round(ratio)) > 1e-9 {
			issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("value is not a multiple of %v", *schema.MultipleOf)})
		}
	}

	return issues
}

func (e *engine) checkArray(schema *openapi.Schema, v []interface{}, path string) []diagnostics.ValidationIssue {
	var issues []diagnostics.ValidationIssue

	if schema.MinItems != nil && len(v) < *schema.MinItems {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("array has fewer than minItems %d", *schema.MinItems)})
	}
	if schema.MaxItems != nil && len(v) > *schema.MaxItems {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: fmt.Sprintf("array has more than maxItems %d", *schema.MaxItems)})
	}
	if schema.UniqueItems && hasDuplicates(v) {
		issues = append(issues, diagnostics.ValidationIssue{Path: path, Message: "array items must be unique"})
	}
	if schema.Items != nil {
		for i, item := range v {
			issues = append(issues, e.validate(schema.Items, item, fmt.Sprintf("%s[%d]", path, i))...)
		}
	}

	return issues
}

func (e *engine) checkObject(schema *openapi.Schema, v map[string]interface{}, path string) []diagnostics.ValidationIssue {
	var issues []diagnostics.ValidationIssue

	for _, req := range schema.Required {
		if _, ok := v[req]; !ok {
			issues = append(issues, diagnostics.ValidationIssue{Path: joinPath(path, req), Message: fmt.Sprintf("missing required property %q", req)})
		}
	}

	matchedByPattern := map[string]bool{}
	for key, subSchema := range schema.PatternProperties {
		re, err := regexp.Compile(key)
		if err != nil {
			continue
		}
		for propName, propVal := range v {
			if re.MatchString(propName) {
				matchedByPattern[propName] = true
				issues = append(issues, e.validate(subSchema, propVal, joinPath(path, propName))...)
			}
		}
	}

	for propName, propVal := range v {
		propSchema, declared := schema.Properties[propName]
		if declared {
			issues = append(issues, e.validate(propSchema, propVal, joinPath(path, propName))...)
			continue
		}
		if matchedByPattern[propName] {
			continue
		}

		switch {
		case schema.AdditionalPropertiesBool != nil && !*schema.AdditionalPropertiesBool:
			issues = append(issues, diagnostics.ValidationIssue{Path: joinPath(path, propName), Message: fmt.Sprintf("property %q is not allowed (additionalProperties: false)", propName)})
		case schema.AdditionalProperties != nil:
			issues = append(issues, e.validate(schema.AdditionalProperties, propVal, joinPath(path, propName))...)
		}
	}

	return issues
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func hasDuplicates(items []interface{}) bool {
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if deepEqual(items[i], items[j]) {
				return true
			}
		}
	}
	return false
}

func deepEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		keys := make([]string, 0, len(av))
		for k := range av {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			bvv, ok := bv[k]
			if !ok || !deepEqual(av[k], bvv) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
