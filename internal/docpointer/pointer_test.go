package docpointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeUnescape(t *testing.T) {
	assert.Equal(t, "~1", Escape("/"))
	assert.Equal(t, "~0", Escape("~"))
	assert.Equal(t, "a~1b~0c", Escape("a/b~c"))

	assert.Equal(t, "/", Unescape("~1"))
	assert.Equal(t, "~", Unescape("~0"))
	assert.Equal(t, "a/b~c", Unescape("a~1b~0c"))

	// Order matters: ~01 must decode to ~1, not /.
	assert.Equal(t, "~1", Unescape("~01"))
}

func TestParseAndString(t *testing.T) {
	{
		p := Parse("#/a/b~1c/~0d")
		require.Equal(t, Pointer{"a", "b/c", "~d"}, p)
		assert.Equal(t, "#/a/b~1c/~0d", p.String())
	}

	for _, empty := range []string{"", "#", "#/"} {
		assert.Equal(t, Pointer{}, Parse(empty), "input %q", empty)
	}
}

func TestResolve(t *testing.T) {
	root := map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"User": map[string]interface{}{
					"type": "object",
				},
			},
		},
		"list": []interface{}{"zero", "one", "two"},
	}

	node, ok := Resolve(root, Parse("#/components/schemas/User/type"))
	require.True(t, ok)
	assert.Equal(t, "object", node)

	node, ok = Resolve(root, Parse("#/list/1"))
	require.True(t, ok)
	assert.Equal(t, "one", node)

	node, ok = Resolve(root, Pointer{})
	require.True(t, ok)
	assert.Equal(t, root, node)

	_, ok = Resolve(root, Parse("#/components/schemas/Missing"))
	assert.False(t, ok)
}

func TestArrayIndexEdgeCases(t *testing.T) {
	root := map[string]interface{}{
		"list": []interface{}{"a", "b"},
	}

	for _, tok := range []string{"00", "-1", "+1", "x", "2"} {
		_, ok := Resolve(root, Pointer{"list", tok})
		assert.False(t, ok, "token %q should not resolve", tok)
	}

	node, ok := Resolve(root, Pointer{"list", "0"})
	require.True(t, ok)
	assert.Equal(t, "a", node)
}

func TestCollectRefs(t *testing.T) {
	root := map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"A": map[string]interface{}{
					"properties": map[string]interface{}{
						"b": map[string]interface{}{"$ref": "#/components/schemas/B"},
					},
				},
				"B": map[string]interface{}{"$ref": "#/components/schemas/A"},
			},
		},
	}

	refs := CollectRefs(root)
	require.Len(t, refs, 2)

	found := map[string]string{}
	for _, r := range refs {
		found[r.Container.String()] = r.Ref
	}
	assert.Equal(t, "#/components/schemas/B", found["#/components/schemas/A/properties/b"])
	assert.Equal(t, "#/components/schemas/A", found["#/components/schemas/B"])
}
