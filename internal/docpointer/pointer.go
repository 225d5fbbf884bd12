// Package docpointer implements JSON Pointer (RFC 6901) navigation and
// $ref-string collection over an arbitrary decoded document tree. It is
// the leaf dependency of the reference graph (C2) and schema registry
// (C3): nothing above this package knows how a pointer is actually
// walked.
package docpointer

import (
	"strconv"
	"strings"
)

// Pointer is a parsed JSON Pointer: a sequence of already-unescaped
// tokens. The empty pointer (zero-length slice) denotes the document
// root. Two pointers are equal iff their token sequences are equal.
type Pointer []string

// String renders p back to its wire form, e.g. "#/a/b~1c".
func (p Pointer) String() string {
	if len(p) == 0 {
		return "#"
	}
	var b strings.Builder
	b.WriteByte('#')
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(Escape(tok))
	}
	return b.String()
}

// Equal reports whether p and other name the same sequence of tokens.
func (p Pointer) Equal(other Pointer) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Append returns a new Pointer with tok appended, without mutating p's
// backing array.
func (p Pointer) Append(tok string) Pointer {
	out := make(Pointer, len(p)+1)
	copy(out, p)
	out[len(p)] = tok
	return out
}

// Parse decodes a wire-form JSON Pointer (with or without the leading
// "#") into its token sequence. An empty string or "#" is the root
// pointer.
func Parse(ref string) Pointer {
	ref = strings.TrimPrefix(ref, "#")
	if ref == "" {
		return Pointer{}
	}
	ref = strings.TrimPrefix(ref, "/")
	if ref == "" {
		return Pointer{}
	}

	rawTokens := strings.Split(ref, "/")
	tokens := make(Pointer, len(rawTokens))
	for i, t := range rawTokens {
		tokens[i] = Unescape(t)
	}
	return tokens
}

// Unescape decodes one pointer token's escape sequences. Order matters:
// "~1" must be decoded before "~0" would otherwise be mistaken, so this
// decodes "~1" -> "/" first, then "~0" -> "~".
func Unescape(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

// Escape encodes a literal path segment into a valid pointer token, the
// reverse mapping of Unescape ("~" -> "~0" first, then "/" -> "~1").
func Escape(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	segment = strings.ReplaceAll(segment, "/", "~1")
	return segment
}

// Resolve walks root token-by-token following p and returns the node it
// lands on. ok is false if any token fails to resolve (missing object
// key, non-numeric/negative/leading-zero array index, or array index out
// of bounds) — unresolved pointers are not an error at this layer, they
// become diagnostics one level up (spec.md §4.1).
func Resolve(root interface{}, p Pointer) (node interface{}, ok bool) {
	current := root
	for _, tok := range p {
		next, found := step(current, tok)
		if !found {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(node interface{}, tok string) (interface{}, bool) {
	switch v := node.(type) {
	case map[string]interface{}:
		child, ok := v[tok]
		return child, ok
	case []interface{}:
		idx, ok := arrayIndex(tok, len(v))
		if !ok {
			return nil, false
		}
		return v[idx], true
	default:
		return nil, false
	}
}

// arrayIndex converts a pointer token to an array index per RFC 6901:
// strict base-10 digits only, no leading zero (except the literal "0"
// itself), no sign, and within bounds.
func arrayIndex(tok string, length int) (int, bool) {
	if tok == "" {
		return 0, false
	}
	if tok == "0" {
		return 0, length > 0
	}
	if tok[0] == '0' || tok[0] == '-' || tok[0] == '+' {
		return 0, false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

// RefOccurrence is one ("$ref" string found, pointer of its containing
// node) pair produced by CollectRefs.
type RefOccurrence struct {
	Container Pointer
	Ref       string
}

// CollectRefs performs a deterministic pre-order traversal of root and
// emits one RefOccurrence per "$ref" string encountered. Go's
// encoding/json into map[string]interface{} loses key order, so this
// traversal visits object keys in sorted order, not in source order:
// results are stable and reproducible run-to-run, independent of map
// iteration order. Array elements are visited by ascending index.
func CollectRefs(root interface{}) []RefOccurrence {
	var out []RefOccurrence
	collectRefs(root, Pointer{}, &out)
	return out
}

func collectRefs(node interface{}, at Pointer, out *[]RefOccurrence) {
	switch v := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sortStrings(keys)

		if refVal, ok := v["$ref"]; ok {
			if refStr, ok := refVal.(string); ok {
				*out = append(*out, RefOccurrence{Container: at, Ref: refStr})
			}
		}
		for _, k := range keys {
			if k == "$ref" {
				continue
			}
			collectRefs(v[k], at.Append(k), out)
		}
	case []interface{}:
		for i, item := range v {
			collectRefs(item, at.Append(strconv.Itoa(i)), out)
		}
	}
}

// sortStrings is a tiny insertion sort to avoid importing "sort" for a
// single call site; kept here because this package is meant to stay a
// dependency-free leaf.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
