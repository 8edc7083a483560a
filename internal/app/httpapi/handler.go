// Package httpapi exposes the REST endpoints. Handlers only translate HTTP
// into pipeline steps: body and query parameters go in, the terminal outcome
// of the request context comes out.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/assets"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/following"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/pipeline"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/request"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/response"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
	"github.com/antoinealex/eureka-empowerment-environment/internal/middleware"
	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

const maxUploadBytes = 10 << 20

// Handler bundles the REST endpoints over the pipeline.
type Handler struct {
	pipe    *pipeline.Pipeline
	ledger  *following.Ledger
	store   storage.EntityStore
	auth    *middleware.Authenticator
	builder *response.Builder
	log     *logger.Logger
}

// New builds the handler.
func New(pipe *pipeline.Pipeline, ledger *following.Ledger, store storage.EntityStore, auth *middleware.Authenticator, builder *response.Builder, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Handler{pipe: pipe, ledger: ledger, store: store, auth: auth, builder: builder, log: log}
}

// Router assembles the route table. Public reads carry the actor when a
// token is present; mutations require one.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.Handle("/auth/login", http.HandlerFunc(h.login)).Methods(http.MethodPost)
	r.Handle("/user/register", http.HandlerFunc(h.register(h.userResource()))).Methods(http.MethodPost)

	for _, res := range []resource{h.userResource(), h.organizationResource(), h.projectResource(), h.activityResource()} {
		res := res
		r.Handle("/"+res.kind+"/public", h.auth.Optional(http.HandlerFunc(h.read(res, nil)))).Methods(http.MethodGet)
		r.Handle("/"+res.kind+"/public/{id}", h.auth.Optional(http.HandlerFunc(h.readByID(res)))).Methods(http.MethodGet)
		r.Handle("/"+res.kind+"/search", h.auth.Optional(http.HandlerFunc(h.read(res, res.filters)))).Methods(http.MethodGet)
		r.Handle("/"+res.kind+"/update", h.auth.Required(http.HandlerFunc(h.update(res)))).Methods(http.MethodPost)
		r.Handle("/"+res.kind+"/picture", h.auth.Required(http.HandlerFunc(h.picture(res)))).Methods(http.MethodPost)
		if res.actorAs != "" {
			r.Handle("/"+res.kind+"/register", h.auth.Required(http.HandlerFunc(h.register(res)))).Methods(http.MethodPost)
		}
	}

	r.Handle("/project/{id}/follow", h.auth.Required(http.HandlerFunc(h.follow))).Methods(http.MethodPut, http.MethodDelete)
	r.Handle("/project/{id}/assign", h.auth.Required(http.HandlerFunc(h.assign))).Methods(http.MethodPut, http.MethodDelete)
	r.Handle("/project/{id}/team", h.auth.Optional(http.HandlerFunc(h.team))).Methods(http.MethodGet)
	r.Handle("/project/{id}/followers", h.auth.Optional(http.HandlerFunc(h.followers))).Methods(http.MethodGet)

	return r
}

// register creates a new entity of the resource kind.
func (h *Handler) register(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.Actor(r.Context())
		params, err := bodyParams(r.Body)
		if err != nil {
			h.reject(w, r, actor, "body", err)
			return
		}
		rc := request.New(params, actor)

		h.pipe.Sanitize(rc)
		if res.kind == model.KindUser {
			h.hashPasswordParam(rc)
		}
		h.pipe.Validate(rc, res.required, res.optional, res.kind)
		for _, l := range res.links {
			h.pipe.ResolveLink(r.Context(), rc, l.kind, l.attr, l.idKey)
		}
		if res.actorAs != "" && actor != nil {
			rc.SetParam(res.actorAs, actor)
		}
		e := res.make()
		h.pipe.Apply(rc, e, res.fields)
		h.pipe.Persist(r.Context(), rc, e)
		h.pipe.Hydrate(r.Context(), rc, e)
		h.builder.Write(w, r, rc)
	}
}

// read lists entities of the kind. Each route declares its exact criteria
// set: every declared key must be supplied, anything else in the query is
// ignored.
func (h *Handler) read(res resource, filters []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := request.New(queryParams(r), middleware.Actor(r.Context()))
		h.serveRead(w, r, rc, res, filters)
	}
}

// readByID reads one entity by the id in the route.
func (h *Handler) readByID(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := map[string]interface{}{"id": mux.Vars(r)["id"]}
		rc := request.New(params, middleware.Actor(r.Context()))
		h.serveRead(w, r, rc, res, []string{"id"})
	}
}

func (h *Handler) serveRead(w http.ResponseWriter, r *http.Request, rc *request.Context, res resource, filters []string) {
	h.pipe.Sanitize(rc)
	h.pipe.Collect(r.Context(), rc, res.kind, filters)
	h.pipe.HydratePayload(r.Context(), rc)
	h.pipe.WithPictures(rc)
	h.builder.Write(w, r, rc)
}

// update modifies the declared fields of an existing entity.
func (h *Handler) update(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.Actor(r.Context())
		params, err := bodyParams(r.Body)
		if err != nil {
			h.reject(w, r, actor, "body", err)
			return
		}
		rc := request.New(params, actor)

		h.pipe.Sanitize(rc)
		if res.kind == model.KindUser {
			h.hashPasswordParam(rc)
		}
		target := h.target(r, rc, res)
		if target != nil {
			h.pipe.Validate(rc, nil, res.updatable(), res.kind)
			for _, l := range res.links {
				h.pipe.ResolveLink(r.Context(), rc, l.kind, l.attr, l.idKey)
			}
			h.pipe.Update(r.Context(), rc, target, res.fields)
			h.pipe.Hydrate(r.Context(), rc, target)
		}
		h.builder.Write(w, r, rc)
	}
}

// picture uploads a new picture for an existing entity and swaps the stored
// path.
func (h *Handler) picture(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.Actor(r.Context())
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			h.reject(w, r, actor, "picture", err)
			return
		}
		params := map[string]interface{}{}
		if id := r.FormValue("id"); id != "" {
			params["id"] = id
		}
		rc := request.New(params, actor)

		h.pipe.Sanitize(rc)
		target := h.target(r, rc, res)
		if target != nil {
			up, err := formUpload(r)
			if err != nil {
				rc.Terminate(request.MissingParam("picture"))
			} else {
				h.pipe.StorePicture(rc, target.(entity.PictureBearer), up)
				h.pipe.Update(r.Context(), rc, target, []string{"picturePath"})
				h.pipe.Hydrate(r.Context(), rc, target)
			}
		}
		h.builder.Write(w, r, rc)
	}
}

// target resolves the entity a mutation addresses and checks the caller may
// touch it. Self resources always address the actor; everything else needs
// an id parameter. A nil return means the context is terminal.
func (h *Handler) target(r *http.Request, rc *request.Context, res resource) entity.Serializable {
	if rc.Done() {
		return nil
	}
	actor := rc.Actor()
	if res.self {
		rc.DropParam("id")
		return actor
	}

	raw, ok := rc.Param("id")
	if !ok {
		rc.Terminate(request.MissingParam("id"))
		return nil
	}
	found, err := h.store.FindByCriteria(r.Context(), res.kind, storage.Criteria{"id": raw})
	if err != nil {
		h.log.WithError(err).WithField("trail", rc.Trail()).Error("request failed")
		rc.Terminate(request.ServerError())
		return nil
	}
	if len(found) == 0 {
		rc.Terminate(request.NotFound())
		return nil
	}
	target := found[0].(entity.Serializable)
	rc.DropParam("id")

	if h.pipe.Hydrate(r.Context(), rc, target) {
		return nil
	}
	if res.canEdit != nil && !res.canEdit(h, r.Context(), actor, target) {
		rc.Terminate(request.Forbidden())
		return nil
	}
	return target
}

// reject handles transport-level decoding failures before a pipeline exists
// for the request.
func (h *Handler) reject(w http.ResponseWriter, r *http.Request, actor *model.User, field string, err error) {
	h.log.WithError(err).Debug("undecodable request")
	rc := request.New(nil, actor)
	rc.Terminate(request.Invalid([]request.Violation{
		{Field: field, Message: "the request could not be decoded"},
	}))
	h.builder.Write(w, r, rc)
}

func bodyParams(body io.Reader) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	decoder := json.NewDecoder(io.LimitReader(body, maxUploadBytes))
	if err := decoder.Decode(&params); err != nil && err != io.EOF {
		return nil, err
	}
	return params, nil
}

func queryParams(r *http.Request) map[string]interface{} {
	params := map[string]interface{}{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	return params
}

func formUpload(r *http.Request) (assets.Upload, error) {
	file, header, err := r.FormFile("picture")
	if err != nil {
		return assets.Upload{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return assets.Upload{}, err
	}
	return assets.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
