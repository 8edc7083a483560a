package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/request"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
	"github.com/antoinealex/eureka-empowerment-environment/internal/middleware"
)

// follow sets the caller as a follower of the project; DELETE clears the
// flag again. Both ways the record is pruned once neither flag is live.
func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(project *model.Project, actor *model.User) *model.Relationship {
		if r.Method == http.MethodDelete {
			rel := h.relationshipFor(project, actor)
			if rel == nil {
				return nil
			}
			h.ledger.RmvFollower(rel)
			return rel
		}
		return h.ledger.AddFollower(project, actor)
	})
}

// assign flips the caller's assignment on the project. The flip is the
// documented behavior: assigning twice cancels the assignment. DELETE clears
// the flag unconditionally.
func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(project *model.Project, actor *model.User) *model.Relationship {
		if r.Method == http.MethodDelete {
			rel := h.relationshipFor(project, actor)
			if rel == nil {
				return nil
			}
			h.ledger.RmvAssigned(rel)
			return rel
		}
		return h.ledger.AddAssigned(project, actor)
	})
}

// team lists the project's assigned users, creator first.
func (h *Handler) team(w http.ResponseWriter, r *http.Request) {
	h.withProject(w, r, func(rc *request.Context, project *model.Project) {
		team := h.ledger.AssignedTeam(project)
		payload := make([]entity.Serializable, 0, len(team))
		for _, member := range team {
			if member != nil {
				payload = append(payload, member)
			}
		}
		rc.SetPayload(payload...)
	})
}

// followers lists the live following relationships of the project.
func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	h.withProject(w, r, func(rc *request.Context, project *model.Project) {
		rels := h.ledger.Followers(project)
		payload := make([]entity.Serializable, 0, len(rels))
		for _, rel := range rels {
			payload = append(payload, rel)
		}
		rc.SetPayload(payload...)
	})
}

// transition runs one ledger mutation for the (project, actor) pair and
// persists or prunes the touched relationship record.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, mutate func(*model.Project, *model.User) *model.Relationship) {
	h.withProject(w, r, func(rc *request.Context, project *model.Project) {
		actor := rc.Actor()
		rel := mutate(project, actor)
		if rel == nil {
			rc.Terminate(request.NotFound())
			return
		}

		ctx := r.Context()
		if h.ledger.IsStillValid(rel) {
			if err := h.store.Save(ctx, rel); err != nil {
				// A racing create for the same pair lost; the winning record
				// is the one to mutate, so report the conflict upstream.
				if errors.Is(err, storage.ErrDuplicate) {
					h.log.WithField("subject", rel.SubjectKind+"/"+rel.SubjectID).
						WithField("follower", rel.FollowerID).
						Warn("concurrent relationship create")
				}
				h.log.WithError(err).WithField("trail", rc.Trail()).Error("request failed")
				rc.Terminate(request.ServerError())
				return
			}
		} else {
			if err := h.store.Delete(ctx, rel); err != nil {
				h.log.WithError(err).WithField("trail", rc.Trail()).Error("request failed")
				rc.Terminate(request.ServerError())
				return
			}
		}
		if err := h.store.Flush(ctx); err != nil {
			h.log.WithError(err).WithField("trail", rc.Trail()).Error("request failed")
			rc.Terminate(request.ServerError())
			return
		}

		rc.SetPayload(rel)
		rc.SetEvent(model.KindFollowing, "update")
	})
}

// withProject loads and hydrates the project named in the route, then hands
// it to the endpoint body.
func (h *Handler) withProject(w http.ResponseWriter, r *http.Request, serve func(*request.Context, *model.Project)) {
	rc := request.New(nil, middleware.Actor(r.Context()))

	id := mux.Vars(r)["id"]
	found, err := h.store.FindByCriteria(r.Context(), model.KindProject, storage.Criteria{"id": id})
	if err != nil {
		h.log.WithError(err).WithField("trail", rc.Trail()).Error("request failed")
		rc.Terminate(request.ServerError())
		h.builder.Write(w, r, rc)
		return
	}
	if len(found) == 0 {
		rc.Terminate(request.NotFound())
		h.builder.Write(w, r, rc)
		return
	}
	project := found[0].(*model.Project)

	if !h.pipe.Hydrate(r.Context(), rc, project) {
		serve(rc, project)
	}
	h.builder.Write(w, r, rc)
}

func (h *Handler) relationshipFor(project *model.Project, actor *model.User) *model.Relationship {
	var found *model.Relationship
	for _, rel := range project.Relationships() {
		if rel.FollowerID == actor.ID {
			found = rel
		}
	}
	return found
}
