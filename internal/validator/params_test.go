package validator

import (
	"net/http"
	"testing"

	"github.com/dgellow/steady/internal/openapi"
	"github.com/stretchr/testify/assert"
)

func strSchema() *openapi.Schema {
	return &openapi.Schema{Type: openapi.SchemaType{Values: []string{"string"}}}
}

func arraySchema(item *openapi.Schema) *openapi.Schema {
	return &openapi.Schema{Type: openapi.SchemaType{Values: []string{"array"}}, Items: item}
}

func TestExtractQueryRepeatFormat(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	params := []*openapi.Parameter{
		{Name: "tag", In: "query", Schema: arraySchema(strSchema())},
	}

	got := e.ExtractQuery("tag=a&tag=b&tag=c", params)
	assert.Equal(t, []interface{}{"a", "b", "c"}, got["tag"])
}

func TestExtractQueryCommaFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueryArrayFormat = QueryArrayComma
	e := NewExtractor(cfg)
	params := []*openapi.Parameter{
		{Name: "tag", In: "query", Schema: arraySchema(strSchema())},
	}

	got := e.ExtractQuery("tag=a,b,c", params)
	assert.Equal(t, []interface{}{"a", "b", "c"}, got["tag"])
}

func TestExtractQueryScalarCoercion(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	params := []*openapi.Parameter{
		{Name: "limit", In: "query", Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"integer"}}}},
		{Name: "active", In: "query", Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"boolean"}}}},
	}

	got := e.ExtractQuery("limit=5&active=true", params)
	assert.Equal(t, 5.0, got["limit"])
	assert.Equal(t, true, got["active"])
}

func TestExtractPathParams(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	params := []*openapi.Parameter{
		{Name: "id", In: "path", Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"integer"}}}},
	}

	got := e.ExtractPath(map[string]string{"id": "42"}, params)
	assert.Equal(t, 42.0, got["id"])
}

func TestExtractHeaderSimpleArray(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	h := http.Header{}
	h.Set("X-Tags", "a,b,c")
	params := []*openapi.Parameter{
		{Name: "X-Tags", In: "header", Schema: arraySchema(strSchema())},
	}

	got := e.ExtractHeader(h, params)
	assert.Equal(t, []interface{}{"a", "b", "c"}, got["X-Tags"])
}

func TestExtractQueryBracketsFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueryArrayFormat = QueryArrayBrackets
	e := NewExtractor(cfg)
	params := []*openapi.Parameter{
		{Name: "tag", In: "query", Schema: arraySchema(strSchema())},
	}

	got := e.ExtractQuery("tag[]=a&tag[]=b", params)
	assert.Equal(t, []interface{}{"a", "b"}, got["tag"])
}

func TestExtractQueryPassesThroughUndeclaredKeys(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	params := []*openapi.Parameter{
		{Name: "limit", In: "query", Schema: &openapi.Schema{Type: openapi.SchemaType{Values: []string{"integer"}}}},
	}

	got := e.ExtractQuery("limit=10&unknown=1", params)
	assert.Equal(t, 10.0, got["limit"])
	assert.Equal(t, "1", got["unknown"])
}

func TestExtractCookieScalar(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	cookies := []*http.Cookie{{Name: "session", Value: "abc123"}}
	params := []*openapi.Parameter{{Name: "session", In: "cookie", Schema: strSchema()}}

	got := e.ExtractCookie(cookies, params)
	assert.Equal(t, "abc123", got["session"])
}
