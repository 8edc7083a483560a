package model

import (
	"time"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// DateLayout is the wire format for project and activity dates.
const DateLayout = "2006-01-02"

// Project is a trackable subject: users follow it and get assigned to it.
type Project struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    []string   `json:"description,omitempty"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	CreatorID      string     `json:"creator_id"`
	OrganizationID string     `json:"organization_id,omitempty"`
	PicturePath    string     `json:"picture_path,omitempty"`

	Creator      *User           `json:"-"`
	Organization *Organization   `json:"-"`
	Followings   []*Relationship `json:"-"`
	PictureFile  string          `json:"-"`
}

var _ entity.Serializable = (*Project)(nil)
var _ entity.PictureBearer = (*Project)(nil)
var _ Trackable = (*Project)(nil)

func (p *Project) EntityID() string   { return p.ID }
func (p *Project) EntityKind() string { return KindProject }

func (p *Project) Attribute(name string) (interface{}, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "title":
		return p.Title, true
	case "creatorId":
		return p.CreatorID, true
	case "organizationId":
		return p.OrganizationID, true
	case "picturePath":
		return p.PicturePath, true
	}
	return nil, false
}

func (p *Project) GetPicturePath() string       { return p.PicturePath }
func (p *Project) SetPicturePath(path string)   { p.PicturePath = path }
func (p *Project) AttachPicture(encoded string) { p.PictureFile = encoded }

func (p *Project) Owner() *User                    { return p.Creator }
func (p *Project) Relationships() []*Relationship  { return p.Followings }
func (p *Project) Track(rel *Relationship)         { p.Followings = append(p.Followings, rel) }

// Payload serializes the project. The organization is embedded unless the
// project -> organization edge was already walked, which is the case when
// this project is itself nested under that organization.
func (p *Project) Payload(guard entity.Guard) map[string]interface{} {
	data := map[string]interface{}{
		"id":        p.ID,
		"title":     p.Title,
		"startDate": p.StartDate.Format(DateLayout),
	}
	if len(p.Description) > 0 {
		data["description"] = p.Description
	}
	if p.Creator != nil {
		data["creator"] = p.Creator.Payload(guard)
	} else if p.CreatorID != "" {
		data["creator"] = p.CreatorID
	}
	if p.EndDate != nil {
		data["endDate"] = p.EndDate.Format(DateLayout)
	}
	if p.PictureFile != "" {
		data["picture"] = p.PictureFile
	}
	if p.Organization != nil && !guard.Visited(KindProject, KindOrganization) {
		data["organization"] = p.Organization.Payload(guard)
	}
	return data
}
