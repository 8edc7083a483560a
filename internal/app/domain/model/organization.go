package model

import (
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// Organization groups projects under a referent user.
type Organization struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Description []string `json:"description,omitempty"`
	ReferentID  string   `json:"referent_id,omitempty"`
	PicturePath string   `json:"picture_path,omitempty"`

	Referent    *User      `json:"-"`
	Projects    []*Project `json:"-"`
	PictureFile string     `json:"-"`
}

var _ entity.Serializable = (*Organization)(nil)
var _ entity.PictureBearer = (*Organization)(nil)

func (o *Organization) EntityID() string   { return o.ID }
func (o *Organization) EntityKind() string { return KindOrganization }

func (o *Organization) Attribute(name string) (interface{}, bool) {
	switch name {
	case "id":
		return o.ID, true
	case "name":
		return o.Name, true
	case "type":
		return o.Type, true
	case "email":
		return o.Email, true
	case "phone":
		return o.Phone, true
	case "referentId":
		return o.ReferentID, true
	case "picturePath":
		return o.PicturePath, true
	}
	return nil, false
}

func (o *Organization) GetPicturePath() string       { return o.PicturePath }
func (o *Organization) SetPicturePath(path string)   { o.PicturePath = path }
func (o *Organization) AttachPicture(encoded string) { o.PictureFile = encoded }

// Payload serializes the organization. Nested projects are serialized with
// the project -> organization edge marked walked, so they do not re-embed
// this organization.
func (o *Organization) Payload(guard entity.Guard) map[string]interface{} {
	data := map[string]interface{}{
		"id":    o.ID,
		"name":  o.Name,
		"email": o.Email,
	}
	if o.Type != "" {
		data["type"] = o.Type
	}
	if o.Phone != "" {
		data["phone"] = o.Phone
	}
	if len(o.Description) > 0 {
		data["description"] = o.Description
	}
	if o.Referent != nil {
		data["referent"] = o.Referent.Payload(guard)
	}
	if o.PictureFile != "" {
		data["picture"] = o.PictureFile
	}
	if len(o.Projects) > 0 {
		nested := guard.With(KindProject, KindOrganization)
		projects := make([]map[string]interface{}, 0, len(o.Projects))
		for _, p := range o.Projects {
			projects = append(projects, p.Payload(nested))
		}
		data["projects"] = projects
	}
	return data
}
