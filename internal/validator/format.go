package validator

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// checkFormat validates v against the named JSON Schema "format" keyword.
// Unknown format names are accepted (spec.md §4.6: format validation is
// best-effort and never blocks on formats this module doesn't know).
func checkFormat(format, v string) (string, bool) {
	switch format {
	case "uuid":
		if _, err := uuid.Parse(v); err != nil {
			return "value is not a valid uuid", false
		}
	case "date":
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return "value is not a valid date (RFC 3339 full-date)", false
		}
	case "date-time":
		if _, err := time.Parse(time.RFC3339, v); err != nil {
			return "value is not a valid date-time (RFC 3339)", false
		}
	case "time":
		if _, err := time.Parse("15:04:05", v); err != nil {
			return "value is not a valid time", false
		}
	case "email":
		if _, err := mail.ParseAddress(v); err != nil {
			return "value is not a valid email address", false
		}
	case "uri", "uri-reference":
		if _, err := url.Parse(v); err != nil {
			return fmt.Sprintf("value is not a valid %s", format), false
		}
	case "hostname":
		if !hostnamePattern.MatchString(v) {
			return "value is not a valid hostname", false
		}
	case "ipv4":
		if !ipv4Pattern.MatchString(v) {
			return "value is not a valid ipv4 address", false
		}
	}
	return "", true
}

var (
	hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	ipv4Pattern     = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
)
