package refgraph

import (
	"testing"

	"github.com/dgellow/steady/internal/docpointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemasRoot(schemas map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": schemas,
		},
	}
}

func TestBuildDetectsDirectCycle(t *testing.T) {
	root := schemasRoot(map[string]interface{}{
		"TreeNode": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"children": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"$ref": "#/components/schemas/TreeNode"},
				},
			},
		},
	})

	g := Build(root)
	require.Len(t, g.Cycles(), 1)
	assert.True(t, g.IsCyclic(docpointer.Parse("#/components/schemas/TreeNode/properties/children/items")))
}

func TestBuildDetectsMutualCycle(t *testing.T) {
	root := schemasRoot(map[string]interface{}{
		"A": map[string]interface{}{"$ref": "#/components/schemas/B"},
		"B": map[string]interface{}{"$ref": "#/components/schemas/A"},
	})

	g := Build(root)
	require.Len(t, g.Cycles(), 1)
	assert.True(t, g.IsCyclic(docpointer.Parse("#/components/schemas/A")))
	assert.True(t, g.IsCyclic(docpointer.Parse("#/components/schemas/B")))
}

func TestUnresolvedRef(t *testing.T) {
	root := schemasRoot(map[string]interface{}{
		"A": map[string]interface{}{"$ref": "#/components/schemas/Missing"},
	})

	g := Build(root)
	require.Len(t, g.Unresolved(), 1)
	assert.Equal(t, "#/components/schemas/Missing", g.Unresolved()[0].Ref)
	assert.Empty(t, g.Cycles())
}

func TestChainDepth(t *testing.T) {
	root := schemasRoot(map[string]interface{}{
		"A": map[string]interface{}{"$ref": "#/components/schemas/B"},
		"B": map[string]interface{}{"$ref": "#/components/schemas/C"},
		"C": map[string]interface{}{"type": "string"},
	})

	g := Build(root)
	assert.Equal(t, 2, g.ChainDepth(docpointer.Parse("#/components/schemas/A")))
	assert.Equal(t, 1, g.ChainDepth(docpointer.Parse("#/components/schemas/B")))
	assert.Equal(t, 0, g.ChainDepth(docpointer.Parse("#/components/schemas/C")))
}
