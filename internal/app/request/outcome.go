package request

import (
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// Kind enumerates the terminal outcomes a request can reach.
type Kind int

const (
	// OutcomeSuccess carries a payload of serialized entities; an empty
	// payload is reported to clients as the DATA_NOT_FOUND sentinel.
	OutcomeSuccess Kind = iota + 1
	// OutcomeNotFound marks an unresolvable lookup, e.g. a linked-entity id
	// that matched nothing. Kept distinct from a validation failure.
	OutcomeNotFound
	// OutcomeInvalid carries field violations from the validation gate.
	OutcomeInvalid
	// OutcomeMissingParam names a declared filter parameter absent from the
	// request.
	OutcomeMissingParam
	// OutcomeForbidden marks a sanitization rejection.
	OutcomeForbidden
	// OutcomeUnsupportedMedia marks an upload whose MIME type is not allowed.
	OutcomeUnsupportedMedia
	// OutcomeServerError is the opaque terminal state for unexpected
	// persistence or I/O failures. Detail goes to the log, never the wire.
	OutcomeServerError
)

// Violation is one failed field check.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Outcome is the terminal state of a request. At most one outcome exists per
// request; whichever step writes first wins.
type Outcome struct {
	Kind       Kind
	Payload    []entity.Serializable
	Violations []Violation
	Param      string
	Media      string
}

// Success builds a success outcome with the given payload.
func Success(payload ...entity.Serializable) Outcome {
	return Outcome{Kind: OutcomeSuccess, Payload: payload}
}

// NotFound builds a not-found outcome.
func NotFound() Outcome { return Outcome{Kind: OutcomeNotFound} }

// Invalid builds a validation-failure outcome.
func Invalid(violations []Violation) Outcome {
	return Outcome{Kind: OutcomeInvalid, Violations: violations}
}

// MissingParam builds a missing-parameter outcome.
func MissingParam(name string) Outcome {
	return Outcome{Kind: OutcomeMissingParam, Param: name}
}

// Forbidden builds a sanitization-rejection outcome.
func Forbidden() Outcome { return Outcome{Kind: OutcomeForbidden} }

// UnsupportedMedia builds an outcome for a rejected MIME type.
func UnsupportedMedia(mime string) Outcome {
	return Outcome{Kind: OutcomeUnsupportedMedia, Media: mime}
}

// ServerError builds the opaque server-error outcome.
func ServerError() Outcome { return Outcome{Kind: OutcomeServerError} }
