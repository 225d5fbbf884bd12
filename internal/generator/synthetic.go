package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dgellow/steady/internal/openapi"
	"github.com/google/uuid"
)

// deterministicSource wraps a seeded PRNG so repeated generator runs
// over the same schema produce identical output (spec.md §4.7). A seed
// of -1 seeds it from the wall clock instead.
type deterministicSource struct {
	rng *rand.Rand
}

func newDeterministicSource(seed int64) *deterministicSource {
	if seed == -1 {
		seed = time.Now().UnixNano()
	}
	return &deterministicSource{rng: rand.New(rand.NewSource(seed))}
}

func (d *deterministicSource) Int63() int64 {
	return d.rng.Int63()
}

// synthesizeScalar fabricates a leaf value for schema's declared type
// and format, the way the teacher's generateSyntheticFixture does for
// the case where no captured fixture or example exists — which, absent
// a fixture store, is every case here.
func (g *Generator) synthesizeScalar(schema *openapi.Schema, ctx genContext) interface{} {
	if schema == nil {
		return nil
	}

	if schema.Nullable && schema.Type.Empty() {
		return nil
	}

	switch schema.Type.Primary() {
	case "boolean":
		return true
	case "integer":
		return int(synthesizeMidpoint(schema))
	case "number":
		return synthesizeMidpoint(schema)
	case "string":
		return g.synthesizeString(schema, ctx)
	case "null":
		return nil
	default:
		return ""
	}
}

// synthesizeMidpoint picks the midpoint of [minimum, maximum], defaulting
// the bounds to 0/100 when undeclared, per spec.md §4.7 "integer/number".
func synthesizeMidpoint(schema *openapi.Schema) float64 {
	minimum, maximum := 0.0, 100.0
	if schema.Minimum != nil {
		minimum = *schema.Minimum
	}
	if schema.Maximum != nil {
		maximum = *schema.Maximum
	}
	if minimum > maximum {
		return minimum
	}
	return minimum + (maximum-minimum)/2
}

func (g *Generator) synthesizeString(schema *openapi.Schema, ctx genContext) string {
	switch schema.Format {
	case "uuid":
		return g.deterministicUUID(ctx)
	case "date":
		return "2024-01-01"
	case "date-time":
		return "2024-01-01T00:00:00Z"
	case "email":
		return "user@example.com"
	case "uri", "url":
		return "https://example.com"
	case "hostname":
		return "example.com"
	case "ipv4":
		return "198.51.100.1"
	case "password":
		return "********"
	case "byte":
		return "U3RlYWR5"
	}

	if schema.Pattern != "" {
		// Patterns aren't synthesized against (no regex-to-string
		// generator is in the pack's dependency surface); fall back to
		// a short, clearly-synthetic placeholder rather than pretend to
		// satisfy the pattern.
		return boundLength("string", schema.MinLength, schema.MaxLength)
	}

	return boundLength("string", schema.MinLength, schema.MaxLength)
}

// boundLength pads base up to max(minLength, 6) and truncates it to
// maxLength when declared, per spec.md §4.7's "padded placeholder of
// length max(minLength, 6) bounded by maxLength".
func boundLength(base string, minLength, maxLength *int) string {
	target := 6
	if minLength != nil && *minLength > target {
		target = *minLength
	}
	out := padString(base, target)
	if maxLength != nil && len(out) > *maxLength {
		out = out[:*maxLength]
	}
	return out
}

func padString(base string, length int) string {
	for len(base) < length {
		base += "x"
	}
	return base
}

func (g *Generator) deterministicUUID(ctx genContext) string {
	rng := ctx.rng
	if rng == nil {
		rng = g.rng
	}
	seed := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d-%d", g.config.Seed, rng.Int63())))
	return seed.String()
}
