// Package request models the per-call state threaded through the pipeline:
// the extracted parameters, the accumulated step trail, and the single
// terminal outcome. The outcome is first-writer-wins; once set, later steps
// must observe Done and skip their mutating logic.
package request

import (
	"strings"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
)

// Event describes the audit entry recorded alongside a successful mutation.
type Event struct {
	Type        string
	Description string
}

// Context carries one request through the pipeline. It replaces shared
// controller state: steps receive it explicitly and communicate only through
// its outcome.
type Context struct {
	params  map[string]interface{}
	actor   *model.User
	payload []entity.Serializable
	outcome *Outcome
	event   *Event
	trail   []string
}

// New builds a context from the extracted request parameters. A nil map is
// treated as empty. The actor is the authenticated caller, nil for anonymous.
func New(params map[string]interface{}, actor *model.User) *Context {
	if params == nil {
		params = map[string]interface{}{}
	}
	return &Context{params: params, actor: actor}
}

// Actor returns the authenticated caller, or nil.
func (c *Context) Actor() *model.User { return c.actor }

// Param returns a request parameter by name.
func (c *Context) Param(name string) (interface{}, bool) {
	v, ok := c.params[name]
	return v, ok
}

// Params returns the live parameter map. Steps that resolve linked entities
// replace id parameters with loaded entities here.
func (c *Context) Params() map[string]interface{} { return c.params }

// SetParam stores or replaces a parameter value.
func (c *Context) SetParam(name string, value interface{}) { c.params[name] = value }

// DropParam removes a parameter, typically the raw id after resolution.
func (c *Context) DropParam(name string) { delete(c.params, name) }

// ReplaceParams swaps the whole parameter map, used by the sanitize step.
func (c *Context) ReplaceParams(params map[string]interface{}) {
	if params == nil {
		params = map[string]interface{}{}
	}
	c.params = params
}

// SetPayload stages the entities a successful response will carry. Each
// write replaces the previous staging; the terminal success outcome is built
// from it exactly once, by the response builder.
func (c *Context) SetPayload(entities ...entity.Serializable) { c.payload = entities }

// Payload returns the staged response entities.
func (c *Context) Payload() []entity.Serializable { return c.payload }

// Terminate records the outcome unless one is already set, and reports
// whether the context is now terminal. The first writer always wins.
func (c *Context) Terminate(o Outcome) bool {
	if c.outcome == nil {
		c.outcome = &o
	}
	return true
}

// Done reports whether a terminal outcome has been written.
func (c *Context) Done() bool { return c.outcome != nil }

// Outcome returns the terminal outcome, or nil while the request is live.
func (c *Context) Outcome() *Outcome { return c.outcome }

// SetEvent records the audit descriptor for a successful mutation. Like the
// outcome, the first writer wins.
func (c *Context) SetEvent(eventType, description string) {
	if c.event == nil {
		c.event = &Event{Type: eventType, Description: description}
	}
}

// Event returns the audit descriptor, or nil when the request recorded none.
func (c *Context) Event() *Event { return c.event }

// Push appends a step marker to the trail logged on failures.
func (c *Context) Push(step string) { c.trail = append(c.trail, step) }

// Trail returns the accumulated step markers joined for logging.
func (c *Context) Trail() string { return strings.Join(c.trail, " | ") }
