// Package response turns a request's terminal outcome into the wire reply.
// The body shapes are part of the public contract and must not drift: clients
// match on the DATA_NOT_FOUND sentinel and the exact error strings.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/audit"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/request"
	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

// Sentinel body for reads that matched nothing. Historically delivered with
// status 200, and clients depend on that.
const notFoundSentinel = "DATA_NOT_FOUND"

// Builder writes outcomes to the HTTP response and records the audit event of
// successful mutations.
type Builder struct {
	recorder audit.Recorder
	log      *logger.Logger
}

// New builds a Builder. A nil recorder disables audit recording.
func New(recorder audit.Recorder, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.NewDefault("response")
	}
	return &Builder{recorder: recorder, log: log}
}

// Write finishes the request: a context with no terminal outcome yet is
// completed as a success carrying its staged payload, then the outcome is
// serialized. Every reply is application/json.
func (b *Builder) Write(w http.ResponseWriter, r *http.Request, rc *request.Context) {
	if !rc.Done() {
		rc.Terminate(request.Success(rc.Payload()...))
	}
	out := rc.Outcome()

	switch out.Kind {
	case request.OutcomeSuccess:
		if len(out.Payload) == 0 {
			b.reply(w, http.StatusOK, []string{notFoundSentinel})
			return
		}
		b.record(r, rc, out)
		b.reply(w, http.StatusOK, serialize(out.Payload))
	case request.OutcomeNotFound:
		b.reply(w, http.StatusOK, []string{notFoundSentinel})
	case request.OutcomeInvalid:
		b.reply(w, http.StatusBadRequest, map[string]interface{}{"error": out.Violations})
	case request.OutcomeMissingParam:
		b.reply(w, http.StatusBadRequest, map[string]interface{}{
			"error": "missing parameter : " + out.Param + " is required ",
		})
	case request.OutcomeForbidden:
		b.reply(w, http.StatusForbidden, map[string]interface{}{"error": "ACCESS_FORBIDDEN"})
	case request.OutcomeUnsupportedMedia:
		b.reply(w, http.StatusUnsupportedMediaType, map[string]interface{}{"error": out.Media + " not allowed"})
	default:
		b.reply(w, http.StatusInternalServerError, map[string]interface{}{"error": "ERROR_SERVER"})
	}
}

func serialize(payload []entity.Serializable) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(payload))
	for _, e := range payload {
		out = append(out, e.Payload(entity.Guard{}))
	}
	return out
}

// record forwards the mutation's audit descriptor. Failures are logged, never
// surfaced: the mutation already succeeded.
func (b *Builder) record(r *http.Request, rc *request.Context, out *request.Outcome) {
	ev := rc.Event()
	if ev == nil || b.recorder == nil {
		return
	}
	entry := audit.Event{Type: ev.Type, Description: ev.Description}
	if actor := rc.Actor(); actor != nil {
		entry.Actor = actor.ID
	}
	if len(out.Payload) > 0 {
		entry.SubjectID = out.Payload[0].EntityID()
	}
	if err := b.recorder.Record(r.Context(), entry); err != nil {
		b.log.WithError(err).Warn("audit event not recorded")
	}
}

func (b *Builder) reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		b.log.WithError(err).Error("response not written")
	}
}
