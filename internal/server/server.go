// Package server implements the Mock Server / Dispatcher (C8): an HTTP
// handler that routes a request through C5, validates it through C6,
// synthesizes a body through C7, and serializes the HTTP response,
// attaching the observability headers spec.md §6 mandates. It is
// grounded on the teacher's StubServer/HandleRequest (server.go), with
// the teacher's direct regex routing table and lestrrat validator wiring
// replaced by this module's compiled-route matcher, schema registry, and
// hand-rolled validator (spec.md §4.8).
package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/dgellow/steady/internal/config"
	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/generator"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/pathmatch"
	"github.com/dgellow/steady/internal/registry"
	"go.uber.org/zap"
)

// Version is the build-time version string surfaced via the
// X-Steady-Mock-Version response header and the health endpoint,
// parallel to the teacher's "version" package variable and
// Telnyx-Mock-Version header.
var Version = "dev"

// Server is the stateful dispatcher: it owns the compiled route table,
// the registry, and the diagnostic collector for one running instance,
// the way the teacher's StubServer owns fixtures/routes/spec (spec.md
// §3 "The Server owns the Registry, the Matcher's compiled routes, and
// the Diagnostic Collector").
type Server struct {
	doc    *openapi.Document
	reg    *registry.Registry
	config config.Config
	gen    *generator.Generator
	coll   *diagnostics.Collector
	logger *zap.Logger

	matchersByMethod    map[string]*pathmatch.Matcher
	operationsByPattern map[string]map[string]*openapi.Operation
	allPatterns         []string
	componentParams     map[string]*openapi.Parameter
}

// New builds a Server over doc/reg, using cfg for default strictness and
// generator bounds, coll to accumulate per-request diagnostics, and
// logger for structured request logging (spec.md §4.8/§9).
func New(doc *openapi.Document, reg *registry.Registry, cfg config.Config, coll *diagnostics.Collector, logger *zap.Logger) *Server {
	s := &Server{
		doc:                 doc,
		reg:                 reg,
		config:              cfg,
		gen:                 generator.New(reg, cfg.GeneratorConfig()),
		coll:                coll,
		logger:              logger,
		matchersByMethod:    map[string]*pathmatch.Matcher{},
		operationsByPattern: map[string]map[string]*openapi.Operation{},
		componentParams:     doc.Components.Parameters,
	}
	s.buildRoutes()
	return s
}

// buildRoutes compiles every (path, method) pair in doc.Paths into the
// per-method matcher table, mirroring the teacher's initializeRouter:
// one routing table per HTTP verb, so a path miss and a method miss are
// distinguishable (spec.md §4.8 step 3).
func (s *Server) buildRoutes() {
	compiledByMethod := map[string][]pathmatch.CompiledPath{}

	for path, verbs := range s.doc.Paths {
		pattern := string(path)
		compiled := pathmatch.Compile(pattern)

		s.allPatterns = append(s.allPatterns, pattern)
		s.operationsByPattern[pattern] = map[string]*openapi.Operation{}

		for verb, op := range verbs {
			method := strings.ToUpper(string(verb))
			compiledByMethod[method] = append(compiledByMethod[method], compiled)
			s.operationsByPattern[pattern][method] = op
		}
	}

	for method, compiled := range compiledByMethod {
		s.matchersByMethod[method] = pathmatch.NewMatcher(compiled)
	}

	sort.Strings(s.allPatterns)
}

// route is the result of a successful lookup: the matched pattern, its
// captured parameters, and the operation declared for (pattern, method).
type route struct {
	Pattern string
	Params  map[string]string
	Op      *openapi.Operation
}

// findRoute looks up method+path against the compiled table. ok is false
// on a path miss; callers distinguish a path miss from a method miss via
// allowedMethods.
func (s *Server) findRoute(method, path string) (route, bool) {
	matcher, exists := s.matchersByMethod[method]
	if !exists {
		return route{}, false
	}

	res, ok := matcher.Find(path)
	if !ok {
		return route{}, false
	}

	return route{
		Pattern: res.Path.Pattern,
		Params:  res.Params,
		Op:      s.operationsByPattern[res.Path.Pattern][method],
	}, true
}

// allowedMethods returns every HTTP method whose matcher matches path,
// sorted, for the "Method Not Allowed"-flavored 404 and its suggestion
// (spec.md §4.8 step 3).
func (s *Server) allowedMethods(path string) []string {
	var methods []string
	for method, matcher := range s.matchersByMethod {
		if _, ok := matcher.Find(path); ok {
			methods = append(methods, method)
		}
	}
	sort.Strings(methods)
	return methods
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/_x-steady/health" {
		s.handleHealth(w, r)
		return
	}
	if r.URL.Path == "/_x-steady/spec" {
		s.handleSpec(w, r)
		return
	}

	defer s.recoverPanic(w, r)
	s.dispatch(w, r)
}

// recoverPanic converts an unexpected panic anywhere in the pipeline
// into an HTTP 500, per spec.md §4.8 "Failure semantics" and §7 "the
// dispatcher catches any residual exception and maps it to HTTP 500".
func (s *Server) recoverPanic(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		s.logger.Error("panic recovered in request handler",
			zap.Any("panic", rec), zap.String("method", r.Method), zap.String("path", r.URL.Path))
		s.writeServerError(w, r)
		s.coll.Add([]diagnostics.Diagnostic{{
			Code:     "dispatcher-panic",
			Severity: diagnostics.SeverityError,
			Message:  "request handling panicked",
			Attribution: diagnostics.Attribution{
				Type:       diagnostics.AttributionServer,
				Confidence: 1.0,
				Reasoning:  "an unrecovered panic during request handling is a server defect",
			},
		}}, false)
	}
}
