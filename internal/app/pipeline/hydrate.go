package pipeline

import (
	"context"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/request"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
)

// Hydrate resolves the transient links of a loaded entity: creator, referent,
// organization, and for trackable subjects the relationship records with
// their followers. Stored records only carry ids; responses and the
// follow/assign operations need the live graph.
func (p *Pipeline) Hydrate(ctx context.Context, rc *request.Context, e entity.Entity) bool {
	if rc.Done() {
		return true
	}
	if err := p.hydrate(ctx, e); err != nil {
		return p.fail(rc, err)
	}
	return rc.Done()
}

// HydratePayload hydrates every staged entity.
func (p *Pipeline) HydratePayload(ctx context.Context, rc *request.Context) bool {
	if rc.Done() {
		return true
	}
	for _, e := range rc.Payload() {
		if err := p.hydrate(ctx, e); err != nil {
			return p.fail(rc, err)
		}
	}
	return rc.Done()
}

func (p *Pipeline) hydrate(ctx context.Context, e entity.Entity) error {
	switch v := e.(type) {
	case *model.Project:
		if v.Creator == nil && v.CreatorID != "" {
			u, err := p.loadUser(ctx, v.CreatorID)
			if err != nil {
				return err
			}
			v.Creator = u
		}
		if v.Organization == nil && v.OrganizationID != "" {
			found, err := p.store.FindByCriteria(ctx, model.KindOrganization, storage.Criteria{"id": v.OrganizationID})
			if err != nil {
				return err
			}
			if len(found) > 0 {
				v.Organization = found[0].(*model.Organization)
			}
		}
		if v.Followings == nil {
			if err := p.trackRelationships(ctx, v); err != nil {
				return err
			}
		}
	case *model.Organization:
		if v.Referent == nil && v.ReferentID != "" {
			u, err := p.loadUser(ctx, v.ReferentID)
			if err != nil {
				return err
			}
			v.Referent = u
		}
		if v.Projects == nil {
			found, err := p.store.FindByCriteria(ctx, model.KindProject, storage.Criteria{"organizationId": v.ID})
			if err != nil {
				return err
			}
			for _, e := range found {
				project := e.(*model.Project)
				// Nested projects carry their creator but stop there; the
				// serialization guard keeps the graph from re-opening anyway.
				if project.Creator == nil && project.CreatorID != "" {
					u, err := p.loadUser(ctx, project.CreatorID)
					if err != nil {
						return err
					}
					project.Creator = u
				}
				v.Projects = append(v.Projects, project)
			}
		}
	case *model.Activity:
		if v.Creator == nil && v.CreatorID != "" {
			u, err := p.loadUser(ctx, v.CreatorID)
			if err != nil {
				return err
			}
			v.Creator = u
		}
		if v.Project == nil && v.ProjectID != "" {
			found, err := p.store.FindByCriteria(ctx, model.KindProject, storage.Criteria{"id": v.ProjectID})
			if err != nil {
				return err
			}
			if len(found) > 0 {
				v.Project = found[0].(*model.Project)
			}
		}
		if v.Organization == nil && v.OrganizationID != "" {
			found, err := p.store.FindByCriteria(ctx, model.KindOrganization, storage.Criteria{"id": v.OrganizationID})
			if err != nil {
				return err
			}
			if len(found) > 0 {
				v.Organization = found[0].(*model.Organization)
			}
		}
		if v.Followings == nil {
			if err := p.trackRelationships(ctx, v); err != nil {
				return err
			}
		}
	case *model.Relationship:
		if v.Follower == nil && v.FollowerID != "" {
			u, err := p.loadUser(ctx, v.FollowerID)
			if err != nil {
				return err
			}
			v.Follower = u
		}
	}
	return nil
}

func (p *Pipeline) trackRelationships(ctx context.Context, subject model.Trackable) error {
	found, err := p.store.FindByCriteria(ctx, model.KindFollowing, storage.Criteria{
		"subjectKind": subject.EntityKind(),
		"subjectId":   subject.EntityID(),
	})
	if err != nil {
		return err
	}
	for _, e := range found {
		rel := e.(*model.Relationship)
		if rel.Follower == nil {
			u, err := p.loadUser(ctx, rel.FollowerID)
			if err != nil {
				return err
			}
			rel.Follower = u
		}
		subject.Track(rel)
	}
	return nil
}

func (p *Pipeline) loadUser(ctx context.Context, id string) (*model.User, error) {
	found, err := p.store.FindByCriteria(ctx, model.KindUser, storage.Criteria{"id": id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0].(*model.User), nil
}
