package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dgellow/steady/internal/config"
	"github.com/dgellow/steady/internal/diagnostics"
)

// exampleSource names where a response body came from, surfaced via the
// X-Steady-Example-Source header (spec.md §6).
type exampleSource string

const (
	exampleSourceProvided  exampleSource = "provided"
	exampleSourceGenerated exampleSource = "generated"
	exampleSourceNone      exampleSource = "none"
)

// respHeaders carries the values the dispatcher resolved over the course
// of the pipeline that writeBody must surface as response headers,
// mirroring the set of values the teacher's writeResponse closes over.
type respHeaders struct {
	ContentType   string
	MatchedPath   string
	ExampleSource exampleSource
	Mode          config.Mode
}

// isCurl ports the teacher's curl detection verbatim: a curl client gets
// pretty-printed JSON instead of the compact wire form (server.go).
func isCurl(userAgent string) bool {
	return strings.HasPrefix(userAgent, "curl/")
}

func (s *Server) setCommonHeaders(w http.ResponseWriter, r *http.Request, h respHeaders) {
	header := w.Header()
	if h.ContentType != "" {
		header.Set("Content-Type", h.ContentType)
	}
	header.Set("X-Steady-Matched-Path", h.MatchedPath)
	header.Set("X-Steady-Example-Source", string(h.ExampleSource))
	header.Set("X-Steady-Mode", string(h.Mode))
	header.Set("X-Steady-Mock-Version", Version)

	if r.Header.Get("X-Request-Id") == "" {
		header.Set("X-Request-Id", uuid.NewString())
	} else {
		header.Set("X-Request-Id", r.Header.Get("X-Request-Id"))
	}
}

// writeBody serializes body as the response, pretty-printing for a curl
// client the way the teacher's writeResponse does, and falling back to a
// diagnostic header plus an empty object if serialization itself fails
// rather than ever panicking out of the handler (spec.md §6
// X-Steady-Serialization-Error, §7 "server" error kind).
func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, statusCode int, body interface{}, h respHeaders) {
	if h.ContentType == "" {
		h.ContentType = "application/json"
	}
	s.setCommonHeaders(w, r, h)

	if body == nil && statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return
	}

	var data []byte
	var err error
	if isCurl(r.Header.Get("User-Agent")) {
		data, err = json.MarshalIndent(body, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = json.Marshal(body)
	}

	if err != nil {
		w.Header().Set("X-Steady-Serialization-Error", "true")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte("{}"))
		return
	}

	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}

type validationErrorBody struct {
	Error  string               `json:"error"`
	Errors []validationWireItem `json:"errors"`
}

type validationWireItem struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// writeValidationError writes the 400 body spec.md §6 documents for a
// strict-mode validation failure: {"error": "Validation failed", "errors": [...]}.
func (s *Server) writeValidationError(w http.ResponseWriter, r *http.Request, matchedPath string, mode config.Mode, issues []diagnostics.ValidationIssue) {
	items := make([]validationWireItem, 0, len(issues))
	for _, issue := range issues {
		items = append(items, validationWireItem{
			Path:     issue.Path,
			Message:  issue.Message,
			Expected: issue.Expected,
			Actual:   issue.Actual,
		})
	}

	s.writeBody(w, r, http.StatusBadRequest, validationErrorBody{
		Error:  "Validation failed",
		Errors: items,
	}, respHeaders{MatchedPath: matchedPath, ExampleSource: exampleSourceNone, Mode: mode})
}

type matchErrorBody struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (s *Server) writeMatchError(w http.ResponseWriter, r *http.Request, mode config.Mode, message, suggestion string) {
	s.writeBody(w, r, http.StatusNotFound, matchErrorBody{
		Error:      message,
		Suggestion: suggestion,
	}, respHeaders{MatchedPath: "", ExampleSource: exampleSourceNone, Mode: mode})
}

type serverErrorBody struct {
	Error string `json:"error"`
}

// writeServerError is the generic 500 body for the dispatcher's own
// failures: a generator error or a recovered panic (spec.md §7 "server"
// error kind).
func (s *Server) writeServerError(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	header.Set("Content-Type", "application/json")
	header.Set("X-Steady-Mock-Version", Version)
	w.WriteHeader(http.StatusInternalServerError)
	data, _ := json.Marshal(serverErrorBody{Error: "Internal mock server error"})
	_, _ = w.Write(data)
}
