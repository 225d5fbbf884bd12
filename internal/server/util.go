package server

import (
	"encoding/json"
	"strconv"

	"github.com/dgellow/steady/internal/docpointer"
	"github.com/dgellow/steady/internal/registry"
)

// resolveRef resolves a local "$ref" wire string against reg's raw
// document tree and decodes it into target's type, the same
// re-marshal-through-JSON pattern the registry uses to turn an arbitrary
// pointer-resolved node into a typed view (registry.decodeSchemaNode).
// target is only used for its type; the decoded value is returned fresh.
func resolveRef[T any](reg *registry.Registry, ref string, target *T) (*T, bool) {
	node, ok := reg.Resolve(docpointer.Parse(ref))
	if !ok {
		return nil, false
	}

	data, err := json.Marshal(node)
	if err != nil {
		return nil, false
	}

	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, false
	}
	return out, true
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}
