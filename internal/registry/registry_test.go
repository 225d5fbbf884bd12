package registry

import (
	"sync"
	"testing"

	"github.com/dgellow/steady/internal/docpointer"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/refgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDoc(t *testing.T, raw map[string]interface{}) (*openapi.Document, *refgraph.Graph) {
	t.Helper()
	doc := &openapi.Document{}
	doc.SetRawRoot(raw)
	g := refgraph.Build(raw)
	return doc, g
}

func TestGetAndCyclicAndComponents(t *testing.T) {
	raw := map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"TreeNode": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"children": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"$ref": "#/components/schemas/TreeNode"},
						},
					},
				},
				"Leaf": map[string]interface{}{"type": "string"},
			},
		},
	}
	doc, g := buildDoc(t, raw)
	reg := New(doc, g)
	doc.Components.Schemas = map[string]*openapi.Schema{"TreeNode": {}, "Leaf": {}}

	ps, ok := reg.Get(docpointer.Pointer{"components", "schemas", "TreeNode"})
	require.True(t, ok)
	assert.Equal(t, "object", ps.TypeDiscriminator)

	assert.True(t, reg.IsCyclic("#/components/schemas/TreeNode"))
	assert.False(t, reg.IsCyclic("#/components/schemas/Leaf"))

	comps := reg.GetComponentSchemas()
	assert.Len(t, comps, 2)

	_, ok = reg.Get(docpointer.Pointer{"components", "schemas", "Missing"})
	assert.False(t, ok)
}

func TestGetIsOncePerKeyUnderConcurrency(t *testing.T) {
	raw := map[string]interface{}{
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"A": map[string]interface{}{"type": "string"},
			},
		},
	}
	doc, g := buildDoc(t, raw)
	reg := New(doc, g)

	var wg sync.WaitGroup
	results := make([]*ProcessedSchema, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ps, ok := reg.Get(docpointer.Pointer{"components", "schemas", "A"})
			require.True(t, ok)
			results[i] = ps
		}(i)
	}
	wg.Wait()

	for _, ps := range results {
		assert.Same(t, results[0], ps)
	}
}
