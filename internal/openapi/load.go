package openapi

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load decodes a spec document from raw bytes. It accepts both JSON and
// YAML (detected by content, not file extension, since the spec can be
// fetched from a URL with no extension) and returns a Document whose raw
// tree and typed Paths/Components are both populated from the same bytes.
//
// This is the one place the core touches file-format concerns; per
// spec.md §1, YAML/JSON file I/O itself is an external collaborator, but
// decoding bytes into the Document the core owns happens here so that
// cmd/steadymock has nothing to do but read the bytes off disk or a URL.
func Load(data []byte) (*Document, error) {
	jsonData, err := toJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "normalizing spec document to JSON")
	}

	var raw interface{}
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding spec document")
	}

	var doc Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding spec document into typed model")
	}
	doc.SetRawRoot(raw)

	return &doc, nil
}

// toJSON normalizes YAML or JSON input to JSON bytes. YAML is a superset
// of JSON syntactically in the common case, but gopkg.in/yaml.v3 produces
// map[string]interface{} trees with non-string-keyed maps in some corners,
// so we round-trip explicitly rather than relying on YAML's JSON
// compatibility.
func toJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return data, nil
	}

	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, errors.Wrap(err, "parsing YAML")
	}

	converted := convertYAMLMaps(generic)
	return json.Marshal(converted)
}

// convertYAMLMaps recursively converts map[string]interface{} nodes
// produced by yaml.v3 (which are already string-keyed for mapping nodes)
// into a form safe for encoding/json, and normalizes any
// map[interface{}]interface{} that could appear from nested anchors.
func convertYAMLMaps(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = convertYAMLMaps(vv)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[keyToString(k)] = convertYAMLMaps(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = convertYAMLMaps(vv)
		}
		return out
	default:
		return v
	}
}

func keyToString(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return jsonStringify(k)
}

func jsonStringify(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
