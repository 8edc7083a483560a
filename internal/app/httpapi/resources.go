package httpapi

import (
	"context"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
)

// link names a request parameter carrying an entity id and the attribute the
// resolved entity is applied under.
type link struct {
	kind  string
	attr  string
	idKey string
}

// resource is the declarative description of one entity kind's endpoints:
// the field sets its operations accept, the criteria its search route
// declares, and the rule deciding who may modify a record. The tables below
// are the only source of field names; nothing applies request data by
// reflection.
type resource struct {
	kind     string
	required []string
	optional []string
	filters  []string
	fields   []string
	links    []link
	actorAs  string
	self     bool
	make     func() entity.Serializable
	canEdit  func(h *Handler, ctx context.Context, actor *model.User, e entity.Entity) bool
}

// updatable is every declared field, all optional on update.
func (r resource) updatable() []string {
	return append(append([]string{}, r.required...), r.optional...)
}

func (h *Handler) userResource() resource {
	return resource{
		kind:     model.KindUser,
		required: []string{"email", "firstname", "lastname", "password"},
		optional: []string{"phone", "mobile"},
		filters:  []string{"email"},
		fields:   []string{"email", "firstname", "lastname", "password", "phone", "mobile"},
		self:     true,
		make:     func() entity.Serializable { return &model.User{} },
	}
}

func (h *Handler) organizationResource() resource {
	return resource{
		kind:     model.KindOrganization,
		required: []string{"name", "email"},
		optional: []string{"type", "phone", "description"},
		filters:  []string{"referentId"},
		fields:   []string{"name", "type", "email", "phone", "description", "referent"},
		actorAs:  "referent",
		make:     func() entity.Serializable { return &model.Organization{} },
		canEdit: func(_ *Handler, _ context.Context, actor *model.User, e entity.Entity) bool {
			org := e.(*model.Organization)
			return org.ReferentID == actor.ID
		},
	}
}

func (h *Handler) projectResource() resource {
	return resource{
		kind:     model.KindProject,
		required: []string{"title", "description", "startDate"},
		optional: []string{"endDate", "organizationId"},
		filters:  []string{"organizationId"},
		fields:   []string{"title", "description", "startDate", "endDate", "creator", "organization"},
		links:    []link{{kind: model.KindOrganization, attr: "organization", idKey: "organizationId"}},
		actorAs:  "creator",
		make:     func() entity.Serializable { return &model.Project{} },
		canEdit: func(h *Handler, _ context.Context, actor *model.User, e entity.Entity) bool {
			return h.ledger.IsAssigned(e.(*model.Project), actor)
		},
	}
}

func (h *Handler) activityResource() resource {
	return resource{
		kind:     model.KindActivity,
		required: []string{"title", "summary", "postDate"},
		optional: []string{"isPublic", "projectId", "organizationId"},
		filters:  []string{"projectId"},
		fields:   []string{"title", "summary", "postDate", "isPublic", "creator", "project", "organization"},
		links: []link{
			{kind: model.KindProject, attr: "project", idKey: "projectId"},
			{kind: model.KindOrganization, attr: "organization", idKey: "organizationId"},
		},
		actorAs: "creator",
		make:    func() entity.Serializable { return &model.Activity{} },
		canEdit: func(_ *Handler, _ context.Context, actor *model.User, e entity.Entity) bool {
			return e.(*model.Activity).CreatorID == actor.ID
		},
	}
}
