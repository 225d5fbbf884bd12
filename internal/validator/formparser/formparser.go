// Package formparser decodes application/x-www-form-urlencoded and
// multipart/form-data bodies into nested maps, understanding both
// bracket ("address[city]") and dot ("address.city") path notations
// (spec.md §4.6). No library in the retrieval pack offers nested-path
// form decoding, so this leans on the standard library's net/url and
// mime/multipart primitives for the wire-format parsing itself.
package formparser

import (
	"bytes"
	"mime/multipart"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// filePlaceholder is substituted for uploaded file contents in the
// decoded value tree, so the schema engine can still see "a value was
// present here" without buffering file bytes into the validation path.
const filePlaceholder = "[File]"

// unsafeKeys blocks assignment into map keys that would let a
// maliciously-named form field clobber Go's prototype-less but
// still-shared nested maps in surprising ways (prototype-pollution
// analog for a language without prototypes: defensive regardless).
var unsafeKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

var bracketToken = regexp.MustCompile(`\[([^\]]*)\]`)

// ParseURLEncoded parses a raw application/x-www-form-urlencoded body.
func ParseURLEncoded(raw string) (map[string]interface{}, []string, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid urlencoded body")
	}

	root := map[string]interface{}{}
	for key, vs := range values {
		for _, v := range vs {
			setNestedValue(root, splitPath(key), v)
		}
	}
	return root, nil, nil
}

// ParseMultipart parses a raw multipart/form-data body. File parts are
// recorded by field name and represented in the returned map as the
// literal "[File]" placeholder.
func ParseMultipart(raw []byte, boundary string) (map[string]interface{}, []string, error) {
	if boundary == "" {
		return nil, nil, errors.New("multipart body missing boundary parameter")
	}

	reader := multipart.NewReader(bytes.NewReader(raw), boundary)
	root := map[string]interface{}{}
	var files []string

	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}

		name := part.FormName()
		if name == "" {
			continue
		}

		if part.FileName() != "" {
			files = append(files, name)
			setNestedValue(root, splitPath(name), filePlaceholder)
			continue
		}

		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(part); err != nil {
			return nil, nil, errors.Wrap(err, "reading multipart field")
		}
		setNestedValue(root, splitPath(name), buf.String())
	}

	return root, files, nil
}

// splitPath turns "address[city]" or "address.city" into
// ["address", "city"]. A path with no nesting returns a single-element
// slice.
func splitPath(key string) []string {
	if strings.Contains(key, "[") {
		head := key[:strings.Index(key, "[")]
		tokens := []string{head}
		for _, m := range bracketToken.FindAllStringSubmatch(key, -1) {
			tokens = append(tokens, m[1])
		}
		return tokens
	}
	if strings.Contains(key, ".") {
		return strings.Split(key, ".")
	}
	return []string{key}
}

// setNestedValue writes value at the nested path described by tokens,
// creating intermediate maps as needed. Numeric tokens are ordinary map
// keys; only a trailing empty token ("items[]") appends to a
// []interface{} stored under the first token.
func setNestedValue(root map[string]interface{}, tokens []string, value interface{}) {
	if len(tokens) == 0 {
		return
	}

	if tokens[len(tokens)-1] == "" {
		// "items[]" style append-to-array notation.
		for _, tok := range tokens {
			if unsafeKeys[tok] {
				return
			}
		}
		key := tokens[0]
		arr, _ := root[key].([]interface{})
		root[key] = append(arr, value)
		return
	}

	cur := root
	for i := 0; i < len(tokens)-1; i++ {
		tok := tokens[i]
		if unsafeKeys[tok] {
			return
		}

		next, ok := cur[tok].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[tok] = next
		}
		cur = next
	}

	last := tokens[len(tokens)-1]
	if unsafeKeys[last] {
		return
	}
	if _, err := strconv.Atoi(last); err == nil && len(tokens) > 1 {
		// Numeric segment under a parent ("items[0]"): kept as a string
		// map key; no array is built, so a schema that declares an array
		// at this position sees an object here.
		cur[last] = value
		return
	}
	cur[last] = value
}
