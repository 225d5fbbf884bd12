// Package config assembles the server's construction-time settings into
// a single immutable Config, replacing the teacher's package-level
// "verbose" flag with explicit injection (spec.md §9, "Global mutable
// state ... must be replaced by construction-time injection").
package config

import (
	"github.com/dgellow/steady/internal/generator"
	"github.com/dgellow/steady/internal/validator"
)

// Mode is the server's default request-strictness level, overridable
// per request via X-Steady-Mode (spec.md §4.8 step 2).
type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeRelaxed Mode = "relaxed"
)

// ParseMode validates a literal mode string, mirroring the dispatcher's
// own tolerant parsing of X-Steady-Mode (spec.md §4.8: "Invalid values
// are silently ignored").
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeStrict:
		return ModeStrict, true
	case ModeRelaxed:
		return ModeRelaxed, true
	default:
		return "", false
	}
}

// LogLevel selects the zap logger's level (spec.md §6 `--log-level`):
// debug for details and full, info for summary.
type LogLevel string

const (
	LogSummary LogLevel = "summary"
	LogDetails LogLevel = "details"
	LogFull    LogLevel = "full"
)

// Config is constructed once at startup from CLI flags and never
// mutated afterward; every package that needs a setting receives it (or
// a derived sub-config) through an explicit parameter, not a package
// global.
type Config struct {
	SpecPath string
	Host     string
	Port     int
	Mode     Mode

	LogLevel    LogLevel
	LogBodies   bool
	Interactive bool

	QueryArrayFormat  validator.QueryArrayFormat
	QueryObjectFormat validator.QueryObjectFormat
	StrictOneOf       bool

	ArrayMin int
	ArrayMax int
	Seed     int64
}

// Default returns the spec-documented CLI defaults (spec.md §6):
// port 3000, host localhost, mode strict, repeat/flat query formats,
// any-match oneOf, no array-size override, seed 0.
func Default() Config {
	return Config{
		Host: "localhost",
		Port: 3000,
		Mode: ModeStrict,

		LogLevel: LogSummary,

		QueryArrayFormat:  validator.QueryArrayRepeat,
		QueryObjectFormat: validator.QueryObjectFlat,
		StrictOneOf:       false,

		ArrayMin: -1,
		ArrayMax: -1,
		Seed:     0,
	}
}

// ValidatorConfig derives the C6 configuration from c.
func (c Config) ValidatorConfig() validator.Config {
	cfg := validator.DefaultConfig()
	cfg.QueryArrayFormat = c.QueryArrayFormat
	cfg.QueryObjectFormat = c.QueryObjectFormat
	if c.StrictOneOf {
		cfg.OneOfMode = validator.OneOfExactlyOne
	} else {
		cfg.OneOfMode = validator.OneOfAnyMatch
	}
	return cfg
}

// GeneratorConfig derives the C7 configuration from c.
func (c Config) GeneratorConfig() generator.Config {
	return generator.Config{
		MaxDepth: 10,
		Seed:     c.Seed,
		ArrayMin: c.ArrayMin,
		ArrayMax: c.ArrayMax,
	}
}
