package pipeline

import (
	"fmt"
	"strings"
)

// Sanitizer cleans raw request parameters before anything else touches them.
// Returning an error rejects the whole request.
type Sanitizer interface {
	Clean(params map[string]interface{}) (map[string]interface{}, error)
}

// SecurityError names the parameter that carried active content.
type SecurityError struct {
	Field string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("parameter %s carries active content", e.Field)
}

// DefaultSanitizer trims string parameters and rejects any that embed script
// markers. Values it does not understand pass through untouched.
type DefaultSanitizer struct{}

var _ Sanitizer = DefaultSanitizer{}

func (DefaultSanitizer) Clean(params map[string]interface{}) (map[string]interface{}, error) {
	cleaned := make(map[string]interface{}, len(params))
	for name, value := range params {
		switch v := value.(type) {
		case string:
			if suspicious(v) {
				return nil, &SecurityError{Field: name}
			}
			cleaned[name] = strings.TrimSpace(v)
		case []string:
			out := make([]string, len(v))
			for i, s := range v {
				if suspicious(s) {
					return nil, &SecurityError{Field: name}
				}
				out[i] = strings.TrimSpace(s)
			}
			cleaned[name] = out
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && suspicious(s) {
					return nil, &SecurityError{Field: name}
				}
			}
			cleaned[name] = v
		default:
			cleaned[name] = value
		}
	}
	return cleaned, nil
}

func suspicious(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<script") ||
		strings.Contains(lower, "javascript:") ||
		strings.Contains(lower, "onerror=")
}
