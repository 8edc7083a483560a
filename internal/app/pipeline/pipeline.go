// Package pipeline chains the steps a write or read operation runs through:
// sanitize, validate, resolve links, apply fields, persist, respond. Every
// step observes the request context's terminal outcome before doing anything,
// so the first failure wins and everything after it degrades to a no-op.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/assets"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/request"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/validation"
	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

// Pipeline bundles the collaborators every operation needs. Handlers compose
// its steps; the steps never talk to each other except through the request
// context.
type Pipeline struct {
	store     storage.EntityStore
	gate      *validation.Gate
	assets    *assets.Store
	sanitizer Sanitizer
	log       *logger.Logger
}

// New wires a pipeline. A nil sanitizer falls back to the default one, a nil
// gate accepts everything.
func New(store storage.EntityStore, gate *validation.Gate, assetStore *assets.Store, sanitizer Sanitizer, log *logger.Logger) *Pipeline {
	if gate == nil {
		gate = validation.New(nil)
	}
	if sanitizer == nil {
		sanitizer = DefaultSanitizer{}
	}
	if log == nil {
		log = logger.NewDefault("pipeline")
	}
	return &Pipeline{store: store, gate: gate, assets: assetStore, sanitizer: sanitizer, log: log}
}

// Sanitize cleans the request parameters. A rejected payload terminates the
// request as forbidden.
func (p *Pipeline) Sanitize(rc *request.Context) bool {
	if rc.Done() {
		return true
	}
	cleaned, err := p.sanitizer.Clean(rc.Params())
	if err != nil {
		p.log.WithError(err).Warn("request rejected by sanitizer")
		return rc.Terminate(request.Forbidden())
	}
	rc.ReplaceParams(cleaned)
	rc.Push("SANITIZED")
	return rc.Done()
}

// Validate runs the declared field sets through the gate. Any violation
// terminates the request as invalid.
func (p *Pipeline) Validate(rc *request.Context, required, optional []string, kind string) bool {
	if rc.Done() {
		return true
	}
	if violations := p.gate.Validate(rc.Params(), required, optional, kind); len(violations) > 0 {
		return rc.Terminate(request.Invalid(violations))
	}
	rc.Push("VALIDATED | " + kind)
	return rc.Done()
}

// ResolveLink swaps an id parameter for the entity it names: the value under
// idKey is looked up as a kind id, and on success the loaded entity replaces
// it under attr. An absent idKey is a no-op so optional links can share the
// step; an id that matches nothing terminates the request as not found.
func (p *Pipeline) ResolveLink(ctx context.Context, rc *request.Context, kind, attr, idKey string) bool {
	if rc.Done() {
		return true
	}
	raw, ok := rc.Param(idKey)
	if !ok {
		return rc.Done()
	}

	found, err := p.store.FindByCriteria(ctx, kind, storage.Criteria{"id": raw})
	if err != nil {
		return p.fail(rc, err)
	}
	if len(found) == 0 {
		return rc.Terminate(request.NotFound())
	}

	rc.DropParam(idKey)
	rc.SetParam(attr, found[0])
	rc.Push("LINKED | " + kind)
	return rc.Done()
}

// Apply writes the declared fields from the request onto the entity through
// its field table. Parameters outside the declared set never reach the
// entity. A value the applier cannot coerce terminates the request as
// invalid.
func (p *Pipeline) Apply(rc *request.Context, e entity.Entity, fields []string) bool {
	if rc.Done() {
		return true
	}
	table := model.Appliers(e.EntityKind())
	for _, field := range fields {
		value, ok := rc.Param(field)
		if !ok {
			continue
		}
		applier, ok := table[field]
		if !ok {
			continue
		}
		if err := applier(e, value); err != nil {
			return rc.Terminate(request.Invalid([]request.Violation{
				{Field: field, Message: err.Error()},
			}))
		}
	}
	return rc.Done()
}

// Persist saves a new entity, minting its id when absent, and stages it as
// the response payload. Storage failures terminate the request as a server
// error.
func (p *Pipeline) Persist(ctx context.Context, rc *request.Context, e entity.Serializable) bool {
	if rc.Done() {
		return true
	}
	if e.EntityID() == "" {
		if err := model.AssignID(e, uuid.NewString()); err != nil {
			return p.fail(rc, err)
		}
	}
	if err := p.store.Save(ctx, e); err != nil {
		return p.fail(rc, err)
	}
	if err := p.store.Flush(ctx); err != nil {
		return p.fail(rc, err)
	}

	rc.Push("REGISTERED | " + e.EntityKind() + "/" + e.EntityID())
	rc.SetPayload(e)
	rc.SetEvent(e.EntityKind(), "new registration")
	return rc.Done()
}

// Update applies the declared fields onto the loaded entity and flushes it,
// staging the updated entity as the response payload.
func (p *Pipeline) Update(ctx context.Context, rc *request.Context, e entity.Serializable, fields []string) bool {
	if p.Apply(rc, e, fields) {
		return true
	}
	if err := p.store.Save(ctx, e); err != nil {
		return p.fail(rc, err)
	}
	if err := p.store.Flush(ctx); err != nil {
		return p.fail(rc, err)
	}

	rc.Push("UPDATED | " + e.EntityKind() + "/" + e.EntityID())
	rc.SetPayload(e)
	rc.SetEvent(e.EntityKind(), "update")
	return rc.Done()
}

// Collect loads entities of a kind and stages them as the response payload.
// With no parameters at all, every record of the kind is returned. Otherwise
// each declared filter must be present, and only declared filters reach the
// store; anything else in the request is ignored.
func (p *Pipeline) Collect(ctx context.Context, rc *request.Context, kind string, filters []string) bool {
	if rc.Done() {
		return true
	}

	var found []entity.Entity
	var err error
	if len(rc.Params()) == 0 {
		found, err = p.store.FindAll(ctx, kind)
	} else {
		for _, f := range filters {
			if _, ok := rc.Param(f); !ok {
				return rc.Terminate(request.MissingParam(f))
			}
		}
		if p.Validate(rc, filters, nil, kind) {
			return true
		}
		criteria := storage.Criteria{}
		for _, f := range filters {
			v, _ := rc.Param(f)
			criteria[f] = v
		}
		found, err = p.store.FindByCriteria(ctx, kind, criteria)
	}
	if err != nil {
		return p.fail(rc, err)
	}

	payload := make([]entity.Serializable, 0, len(found))
	for _, e := range found {
		s, ok := e.(entity.Serializable)
		if !ok {
			return p.fail(rc, errors.New("stored "+kind+" is not serializable"))
		}
		payload = append(payload, s)
	}

	rc.Push("COLLECTED | " + kind)
	rc.SetPayload(payload...)
	return rc.Done()
}

// WithPictures attaches the stored picture bytes, base64 encoded, to each
// staged entity that references one. A record pointing at a file that has
// gone missing is logged and skipped; reads never fail over a lost picture.
func (p *Pipeline) WithPictures(rc *request.Context) bool {
	if rc.Done() {
		return true
	}
	for _, e := range rc.Payload() {
		bearer, ok := e.(entity.PictureBearer)
		if !ok || bearer.GetPicturePath() == "" {
			continue
		}
		data, err := p.assets.Fetch(e.EntityKind(), bearer.GetPicturePath())
		if err != nil {
			if errors.Is(err, assets.ErrNotFound) {
				p.log.WithField("kind", e.EntityKind()).
					WithField("path", bearer.GetPicturePath()).
					Warn("picture file missing")
				continue
			}
			return p.fail(rc, err)
		}
		bearer.AttachPicture(base64.StdEncoding.EncodeToString(data))
	}
	return rc.Done()
}

// StorePicture checks the upload against the MIME allow-list, stores it under
// the entity's kind, and stages the stored name under the picturePath
// parameter for a later Apply or Update. The previous file, if any, is
// removed best-effort once the new one is on disk.
func (p *Pipeline) StorePicture(rc *request.Context, e entity.PictureBearer, up assets.Upload) bool {
	if rc.Done() {
		return true
	}
	if err := p.assets.AllowMime(up); err != nil {
		var unsupported *assets.UnsupportedMediaError
		if errors.As(err, &unsupported) {
			return rc.Terminate(request.UnsupportedMedia(unsupported.Mime))
		}
		return p.fail(rc, err)
	}

	previous := e.GetPicturePath()
	name, err := p.assets.Upload(e.EntityKind(), up)
	if err != nil {
		return p.fail(rc, err)
	}
	rc.SetParam("picturePath", name)
	rc.Push("PICTURE_STORED | " + name)

	if previous != "" && previous != name {
		if err := p.assets.Remove(e.EntityKind(), previous); err != nil {
			p.log.WithError(err).WithField("path", previous).Warn("previous picture not removed")
		}
	}
	return rc.Done()
}

// fail logs the unexpected error with the accumulated trail and terminates
// the request as a server error.
func (p *Pipeline) fail(rc *request.Context, err error) bool {
	p.log.WithError(err).WithField("trail", rc.Trail()).Error("request failed")
	return rc.Terminate(request.ServerError())
}
