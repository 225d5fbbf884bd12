package server

import (
	"sort"
	"time"

	"github.com/dgellow/steady/internal/config"
	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/generator"
	"github.com/dgellow/steady/internal/openapi"
	"github.com/dgellow/steady/internal/validator"
	"go.uber.org/zap"

	"net/http"
)

// dispatch runs the per-request pipeline described by spec.md §4.8 steps
// 2-11, grounded on the teacher's HandleRequest: determine effective
// mode, route, validate, pick a response, generate or reflect a body,
// serialize, attach headers, log, and record into the collector.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	mode := s.effectiveMode(r)

	rt, ok := s.findRoute(r.Method, r.URL.Path)
	if !ok {
		s.dispatchMatchError(w, r, mode, start)
		return
	}

	vcfg := s.requestValidatorConfig(r)
	val := validator.New(s.reg, vcfg)

	contentLengthIssues := checkContentLength(r, vcfg.MaxBodyBytes)
	body, readErr := validator.ReadBody(r, vcfg.MaxBodyBytes)
	if readErr != nil {
		contentLengthIssues = append(contentLengthIssues, diagnostics.ValidationIssue{
			Path: "body", Message: readErr.Error(),
		})
	}

	vreq := validator.Request{
		Method:      r.Method,
		RawQuery:    r.URL.RawQuery,
		Header:      r.Header,
		Cookies:     r.Cookies(),
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		PathParams:  rt.Params,
	}
	result := val.Validate(vreq, rt.Op, s.componentParams)
	issues := append(contentLengthIssues, result.Errors...)
	valid := len(issues) == 0

	if mode == config.ModeStrict && !valid {
		s.writeValidationError(w, r, rt.Pattern, mode, issues)
		s.logRequest(r, rt.Pattern, mode, http.StatusBadRequest, start, len(issues))
		s.coll.Add(s.toDiagnostics(issues), false)
		return
	}

	status, resp, ok := s.selectResponse(rt.Op)
	if !ok {
		s.writeMatchError(w, r, mode, "no resolvable response is declared for this operation", "")
		s.logRequest(r, rt.Pattern, mode, http.StatusNotFound, start, len(issues))
		s.coll.Add(s.toDiagnostics(issues), false)
		return
	}

	mediaType, mt, hasBody := s.selectMediaType(resp)

	var bodyVal interface{}
	source := exampleSourceNone
	if hasBody {
		var requestData map[string]interface{}
		if m, ok := result.DecodedBody.(map[string]interface{}); ok {
			requestData = m
		}

		var err error
		bodyVal, source, err = s.buildBody(mt, rt, r, requestData)
		if err != nil {
			s.writeServerError(w, r)
			s.logRequest(r, rt.Pattern, mode, http.StatusInternalServerError, start, len(issues))
			s.coll.Add(s.toDiagnostics(issues), false)
			return
		}
	}

	statusCode := statusCodeFromString(status)
	s.writeBody(w, r, statusCode, bodyVal, respHeaders{
		ContentType:   mediaType,
		MatchedPath:   rt.Pattern,
		ExampleSource: source,
		Mode:          mode,
	})

	s.logRequest(r, rt.Pattern, mode, statusCode, start, len(issues))
	s.coll.Add(s.toDiagnostics(issues), valid)
}

// buildBody implements spec.md §4.7's "generateFromMediaType" priority:
// explicit example, then the first entry of an examples map (picked by
// sorted key for determinism), else generate from the schema via C7.
func (s *Server) buildBody(mt *openapi.MediaType, rt route, r *http.Request, requestData map[string]interface{}) (interface{}, exampleSource, error) {
	if len(mt.Example) > 0 {
		var v interface{}
		if err := jsonUnmarshal(mt.Example, &v); err == nil {
			return v, exampleSourceProvided, nil
		}
	}

	if len(mt.Examples) > 0 {
		keys := make([]string, 0, len(mt.Examples))
		for k := range mt.Examples {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		first := mt.Examples[keys[0]]
		if len(first.Value) > 0 {
			var v interface{}
			if err := jsonUnmarshal(first.Value, &v); err == nil {
				return v, exampleSourceProvided, nil
			}
		}
	}

	if mt.Schema == nil {
		return nil, exampleSourceNone, nil
	}

	arrayMin, arrayMax := s.arraySizeOverrides(r)
	seed := s.seedOverride(r)

	v, err := s.gen.Generate(generator.Params{
		Schema:        mt.Schema,
		RequestMethod: r.Method,
		RequestPath:   r.URL.Path,
		PathParams:    buildPathParamsMap(rt.Pattern, rt.Params),
		ArrayMin:      arrayMin,
		ArrayMax:      arrayMax,
		Seed:          seed,
		RequestData:   requestData,
	})
	if err != nil {
		return nil, exampleSourceNone, err
	}
	return v, exampleSourceGenerated, nil
}

// selectResponse picks the response status preferring 200, 201, 204,
// else the first declared (sorted for determinism), resolving a $ref
// response through the registry (spec.md §4.8 step 6).
func (s *Server) selectResponse(op *openapi.Operation) (string, *openapi.Response, bool) {
	for _, code := range []string{"200", "201", "204"} {
		if resp, ok := op.Responses[openapi.StatusCode(code)]; ok {
			resolved, ok := s.resolveResponse(resp)
			return code, resolved, ok
		}
	}

	codes := make([]string, 0, len(op.Responses))
	for c := range op.Responses {
		codes = append(codes, string(c))
	}
	sort.Strings(codes)
	if len(codes) == 0 {
		return "", nil, false
	}

	resolved, ok := s.resolveResponse(op.Responses[openapi.StatusCode(codes[0])])
	return codes[0], resolved, ok
}

// resolveResponse follows a Response's $ref through the registry's raw
// resolver; an unresolved response ref is a 404-class match error
// (spec.md §4.8 step 6).
func (s *Server) resolveResponse(resp *openapi.Response) (*openapi.Response, bool) {
	if resp == nil {
		return nil, false
	}
	if resp.Ref == "" {
		return resp, true
	}
	return resolveRef(s.reg, resp.Ref, &openapi.Response{})
}

// selectMediaType prefers application/json, else the first declared
// media type sorted for determinism, else no body (spec.md §4.8 step 7).
func (s *Server) selectMediaType(resp *openapi.Response) (string, *openapi.MediaType, bool) {
	if resp == nil || len(resp.Content) == 0 {
		return "", nil, false
	}
	if mt, ok := resp.Content["application/json"]; ok {
		return "application/json", &mt, true
	}

	keys := make([]string, 0, len(resp.Content))
	for k := range resp.Content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	mt := resp.Content[keys[0]]
	return keys[0], &mt, true
}

func statusCodeFromString(s string) int {
	switch s {
	case "200":
		return http.StatusOK
	case "201":
		return http.StatusCreated
	case "202":
		return http.StatusAccepted
	case "204":
		return http.StatusNoContent
	}
	code := 200
	if n, err := parseInt(s); err == nil {
		code = n
	}
	return code
}

func (s *Server) toDiagnostics(issues []diagnostics.ValidationIssue) []diagnostics.Diagnostic {
	if len(issues) == 0 {
		return nil
	}
	out := make([]diagnostics.Diagnostic, 0, len(issues))
	for _, issue := range issues {
		out = append(out, diagnostics.Diagnostic{
			Code:     "request-validation-issue",
			Severity: diagnostics.SeverityWarning,
			Pointer:  issue.Path,
			Message:  issue.Message,
			Attribution: diagnostics.Attribution{
				Type:       diagnostics.AttributionSDK,
				Confidence: 0.8,
				Reasoning:  "a request failed validation against the operation's declared parameters or body",
			},
		})
	}
	return out
}

func (s *Server) logRequest(r *http.Request, pattern string, mode config.Mode, status int, start time.Time, issueCount int) {
	s.logger.Info("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("matched_path", pattern),
		zap.String("mode", string(mode)),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("issues", issueCount),
	)
}
