// Package validator implements the Request Validator (C6): JSON-Schema-
// driven validation of query, path, header, cookie, and body parameters
// against an operation's declared schemas, with document-aware $ref
// resolution and a per-request strictness override, per spec.md §4.6.
package validator

// QueryArrayFormat selects how repeated/array-valued query parameters are
// parsed, per spec.md §4.6.
type QueryArrayFormat string

const (
	QueryArrayRepeat   QueryArrayFormat = "repeat"
	QueryArrayComma    QueryArrayFormat = "comma"
	QueryArraySpace    QueryArrayFormat = "space"
	QueryArrayPipe     QueryArrayFormat = "pipe"
	QueryArrayBrackets QueryArrayFormat = "brackets"
	QueryArrayAuto     QueryArrayFormat = "auto"
)

// QueryObjectFormat selects how object-valued query parameters are
// parsed, per spec.md §4.6.
type QueryObjectFormat string

const (
	QueryObjectFlat      QueryObjectFormat = "flat"
	QueryObjectFlatComma QueryObjectFormat = "flat-comma"
	QueryObjectBrackets  QueryObjectFormat = "brackets"
	QueryObjectDots      QueryObjectFormat = "dots"
	QueryObjectAuto      QueryObjectFormat = "auto"
)

// OneOfMode selects oneOf validation semantics (spec.md §4.6).
type OneOfMode string

const (
	// OneOfAnyMatch is the default, permissive semantics: valid if at
	// least one branch matches.
	OneOfAnyMatch OneOfMode = "any-match"
	// OneOfExactlyOne is strict JSON-Schema semantics: valid iff exactly
	// one branch matches.
	OneOfExactlyOne OneOfMode = "exactly-one"
)

// MaxBodyBytes is the hard cap on request body size (spec.md §4.6/§5):
// 10 MiB.
const MaxBodyBytes int64 = 10 * 1024 * 1024

// Config configures one Validator instance. The zero value is not
// generally useful; use DefaultConfig and override fields as needed.
type Config struct {
	QueryArrayFormat  QueryArrayFormat
	QueryObjectFormat QueryObjectFormat
	OneOfMode         OneOfMode
	EnableFormat      bool
	MaxBodyBytes      int64
}

// DefaultConfig returns the spec-documented defaults.
func DefaultConfig() Config {
	return Config{
		QueryArrayFormat:  QueryArrayRepeat,
		QueryObjectFormat: QueryObjectFlat,
		OneOfMode:         OneOfAnyMatch,
		EnableFormat:      true,
		MaxBodyBytes:      MaxBodyBytes,
	}
}
