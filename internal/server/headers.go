package server

import (
	"net/http"
	"strconv"

	"github.com/dgellow/steady/internal/config"
	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/validator"
)

// effectiveMode computes E per spec.md §4.8 step 2: read X-Steady-Mode;
// if it's one of the two literals, use it; otherwise fall back to the
// server's configured default. Invalid values are silently ignored.
func (s *Server) effectiveMode(r *http.Request) config.Mode {
	if v := r.Header.Get("X-Steady-Mode"); v != "" {
		if mode, ok := config.ParseMode(v); ok {
			return mode
		}
	}
	return s.config.Mode
}

// requestValidatorConfig derives this request's validator configuration,
// applying any X-Steady-Query-Array-Format/-Object-Format override on
// top of the server default (spec.md §6).
func (s *Server) requestValidatorConfig(r *http.Request) validator.Config {
	cfg := s.config.ValidatorConfig()

	if v := r.Header.Get("X-Steady-Query-Array-Format"); v != "" {
		if format, ok := parseQueryArrayFormat(v); ok {
			cfg.QueryArrayFormat = format
		}
	}
	if v := r.Header.Get("X-Steady-Query-Object-Format"); v != "" {
		if format, ok := parseQueryObjectFormat(v); ok {
			cfg.QueryObjectFormat = format
		}
	}
	return cfg
}

func parseQueryArrayFormat(v string) (validator.QueryArrayFormat, bool) {
	switch validator.QueryArrayFormat(v) {
	case validator.QueryArrayRepeat, validator.QueryArrayComma, validator.QueryArraySpace,
		validator.QueryArrayPipe, validator.QueryArrayBrackets, validator.QueryArrayAuto:
		return validator.QueryArrayFormat(v), true
	default:
		return "", false
	}
}

func parseQueryObjectFormat(v string) (validator.QueryObjectFormat, bool) {
	switch validator.QueryObjectFormat(v) {
	case validator.QueryObjectFlat, validator.QueryObjectFlatComma, validator.QueryObjectBrackets,
		validator.QueryObjectDots, validator.QueryObjectAuto:
		return validator.QueryObjectFormat(v), true
	default:
		return "", false
	}
}

// arraySizeOverrides parses X-Steady-Array-Size (sets both bounds) and
// X-Steady-Array-Min/-Max (which take precedence on their own side),
// per spec.md §6.
func (s *Server) arraySizeOverrides(r *http.Request) (*int, *int) {
	var min, max *int

	if v := r.Header.Get("X-Steady-Array-Size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			size := n
			min, max = &size, &size
		}
	}
	if v := r.Header.Get("X-Steady-Array-Min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			min = &n
		}
	}
	if v := r.Header.Get("X-Steady-Array-Max"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			max = &n
		}
	}
	return min, max
}

// seedOverride parses X-Steady-Seed; -1 selects wall-clock randomness
// (spec.md §4.7 Determinism, §6).
func (s *Server) seedOverride(r *http.Request) *int64 {
	v := r.Header.Get("X-Steady-Seed")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// checkContentLength implements spec.md §4.6 body step 1: it reports a
// "body" validation issue, judged from the header alone, when the
// declared Content-Length is malformed or exceeds the hard cap. It does
// not stop the body from being read afterward; the issue flows through
// the normal strict/relaxed handling.
func checkContentLength(r *http.Request, maxBytes int64) []diagnostics.ValidationIssue {
	raw := r.Header.Get("Content-Length")
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return []diagnostics.ValidationIssue{{Path: "body", Message: "Content-Length header is not a valid integer"}}
	}
	if n > maxBytes {
		return []diagnostics.ValidationIssue{{Path: "body", Message: "request body exceeds the maximum allowed size"}}
	}
	return nil
}
