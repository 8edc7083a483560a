// Package validation runs the declarative required/optional field check a
// pipeline operation declares for its target entity kind. Per-field
// constraint evaluation is delegated to a rule provider; this package only
// owns the partitioning and aggregation logic.
package validation

import (
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/request"
)

// RuleProvider evaluates the constraint set declared for (kind, field)
// against a candidate value. A nil error means the value passes. Rule
// definitions themselves are external to this module.
type RuleProvider interface {
	Check(kind, field string, value interface{}) error
}

// RuleFunc adapts a function to a RuleProvider.
type RuleFunc func(kind, field string, value interface{}) error

// Check calls f.
func (f RuleFunc) Check(kind, field string, value interface{}) error {
	return f(kind, field, value)
}

// NopRules accepts every value. Used when no rule set is configured.
var NopRules = RuleFunc(func(string, string, interface{}) error { return nil })

// Gate aggregates field violations for one payload.
type Gate struct {
	rules RuleProvider
}

// New builds a gate over the given rule provider; nil falls back to NopRules.
func New(rules RuleProvider) *Gate {
	if rules == nil {
		rules = NopRules
	}
	return &Gate{rules: rules}
}

// Validate checks the payload against the declared field sets for a kind.
// Required fields missing from the payload are violations. Present required
// and optional fields run through the rule provider. Fields outside
// required union optional are ignored entirely. A nil return means valid.
func (g *Gate) Validate(payload map[string]interface{}, required, optional []string, kind string) []request.Violation {
	var violations []request.Violation

	for _, field := range required {
		value, ok := payload[field]
		if !ok {
			violations = append(violations, request.Violation{
				Field:   field,
				Message: "the " + field + " is required",
			})
			continue
		}
		if err := g.rules.Check(kind, field, value); err != nil {
			violations = append(violations, request.Violation{Field: field, Message: err.Error()})
		}
	}

	for _, field := range optional {
		value, ok := payload[field]
		if !ok {
			continue
		}
		if err := g.rules.Check(kind, field, value); err != nil {
			violations = append(violations, request.Violation{Field: field, Message: err.Error()})
		}
	}

	return violations
}
