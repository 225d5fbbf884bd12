package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dgellow/steady/internal/diagnostics"
	"github.com/dgellow/steady/internal/validator/formparser"
	"github.com/pkg/errors"
)

// ErrBodyTooLarge is returned by ReadBody when the request body exceeds
// Config.MaxBodyBytes (spec.md §4.6/§5).
var ErrBodyTooLarge = errors.New("request body exceeds the maximum allowed size")

// ReadBody reads r's body up to maxBytes+1, so a body exactly at the
// limit is accepted and anything larger is rejected without buffering
// unbounded attacker-controlled input (spec.md §4.6/§5). The server
// calls this before handing the raw bytes to Validator.Validate.
func ReadBody(r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()

	limited := io.LimitReader(r.Body, maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.Wrap(err, "reading request body")
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// decodedBody is the parsed form of a request or response body, ready to
// be run through the schema engine.
type decodedBody struct {
	Value interface{}
	// Files lists field names that were file uploads, represented as the
	// literal placeholder string "[File]" in Value (spec.md §4.6).
	Files []string
}

// decodeBody parses raw against the declared media type, choosing a
// strategy the way the teacher's request handling picks apart
// Content-Type (spec.md §4.6: JSON bodies parse directly; form bodies go
// through the nested-path form parser).
func decodeBody(raw []byte, contentType string) (*decodedBody, []diagnostics.ValidationIssue, error) {
	if len(raw) == 0 {
		return &decodedBody{}, nil, nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, []diagnostics.ValidationIssue{{Path: "$", Message: fmt.Sprintf("body is not valid JSON: %v", err)}}, nil
		}
		return &decodedBody{Value: v}, nil, nil

	case mediaType == "application/x-www-form-urlencoded":
		parsed, files, err := formparser.ParseURLEncoded(string(raw))
		if err != nil {
			return nil, nil, errors.Wrap(err, "parsing form body")
		}
		return &decodedBody{Value: parsed, Files: files}, nil, nil

	case mediaType == "multipart/form-data":
		parsed, files, err := formparser.ParseMultipart(raw, params["boundary"])
		if err != nil {
			return nil, nil, errors.Wrap(err, "parsing multipart body")
		}
		return &decodedBody{Value: parsed, Files: files}, nil, nil

	case mediaType == "text/plain" || mediaType == "":
		return &decodedBody{Value: string(raw)}, nil, nil

	default:
		// Unknown media types are passed through as opaque strings; the
		// generator and validator degrade gracefully rather than reject
		// a body this module doesn't need to understand.
		return &decodedBody{Value: string(raw)}, nil, nil
	}
}
