package pathmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSegmentKinds(t *testing.T) {
	cp := Compile("/users/{id}/files/file_{fileId}.json")
	require.Len(t, cp.Segments, 4)
	assert.Equal(t, SegmentLiteral, cp.Segments[0].Kind)
	assert.Equal(t, SegmentParam, cp.Segments[1].Kind)
	assert.Equal(t, SegmentLiteral, cp.Segments[2].Kind)
	assert.Equal(t, SegmentMixed, cp.Segments[3].Kind)
	assert.Equal(t, "file_", cp.Segments[3].Prefix)
	assert.Equal(t, "fileId", cp.Segments[3].Name)
	assert.Equal(t, ".json", cp.Segments[3].Suffix)
	assert.False(t, cp.Exact)
	assert.Equal(t, 2, cp.Specificity)
}

func TestMatchDoubleAndTrailingSlash(t *testing.T) {
	cp := Compile("/users/{id}")

	params, ok := Match(cp, "//users//123")
	require.True(t, ok)
	assert.Equal(t, "123", params["id"])

	params, ok = Match(cp, "/users/123/")
	require.True(t, ok)
	assert.Equal(t, "123", params["id"])
}

func TestMatchPercentDecodeFailureIsNoMatch(t *testing.T) {
	cp := Compile("/users/{id}")
	_, ok := Match(cp, "/users/%ZZ")
	assert.False(t, ok)
}

func TestMatchMixedRequiresNonEmptyMiddle(t *testing.T) {
	cp := Compile("/files/file_{id}.json")
	_, ok := Match(cp, "/files/file_.json")
	assert.False(t, ok)

	params, ok := Match(cp, "/files/file_abc.json")
	require.True(t, ok)
	assert.Equal(t, "abc", params["id"])
}

func TestMatcherSpecificityOrdering(t *testing.T) {
	upcoming := Compile("/v1/invoices/upcoming")
	byID := Compile("/v1/invoices/{invoice}")

	m := NewMatcher([]CompiledPath{byID, upcoming})

	res, ok := m.Find("/v1/invoices/upcoming")
	require.True(t, ok)
	assert.Equal(t, "/v1/invoices/upcoming", res.Path.Pattern)
}

func TestMatcherExactFastPath(t *testing.T) {
	health := Compile("/health")
	byID := Compile("/users/{id}")

	m := NewMatcher([]CompiledPath{health, byID})

	res, ok := m.Find("/health")
	require.True(t, ok)
	assert.Equal(t, "/health", res.Path.Pattern)
	assert.Empty(t, res.Params)
}

func TestMatcherNoMatch(t *testing.T) {
	m := NewMatcher([]CompiledPath{Compile("/users/{id}")})
	_, ok := m.Find("/accounts/1")
	assert.False(t, ok)
}
