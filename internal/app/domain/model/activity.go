package model

import (
	"time"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// Activity is a dated post attached to a project or organization. Activities
// are trackable like projects.
type Activity struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary,omitempty"`
	PostDate       time.Time `json:"post_date"`
	IsPublic       bool      `json:"is_public"`
	CreatorID      string    `json:"creator_id"`
	ProjectID      string    `json:"project_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	PicturePath    string    `json:"picture_path,omitempty"`

	Creator      *User           `json:"-"`
	Project      *Project        `json:"-"`
	Organization *Organization   `json:"-"`
	Followings   []*Relationship `json:"-"`
	PictureFile  string          `json:"-"`
}

var _ entity.Serializable = (*Activity)(nil)
var _ entity.PictureBearer = (*Activity)(nil)
var _ Trackable = (*Activity)(nil)

func (a *Activity) EntityID() string   { return a.ID }
func (a *Activity) EntityKind() string { return KindActivity }

func (a *Activity) Attribute(name string) (interface{}, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "title":
		return a.Title, true
	case "creatorId":
		return a.CreatorID, true
	case "projectId":
		return a.ProjectID, true
	case "organizationId":
		return a.OrganizationID, true
	case "isPublic":
		return a.IsPublic, true
	case "picturePath":
		return a.PicturePath, true
	}
	return nil, false
}

func (a *Activity) GetPicturePath() string       { return a.PicturePath }
func (a *Activity) SetPicturePath(path string)   { a.PicturePath = path }
func (a *Activity) AttachPicture(encoded string) { a.PictureFile = encoded }

func (a *Activity) Owner() *User                   { return a.Creator }
func (a *Activity) Relationships() []*Relationship { return a.Followings }
func (a *Activity) Track(rel *Relationship)        { a.Followings = append(a.Followings, rel) }

// Payload serializes the activity. Parent entities appear as summaries only,
// so an activity never re-opens the project/organization graphs.
func (a *Activity) Payload(guard entity.Guard) map[string]interface{} {
	data := map[string]interface{}{
		"id":       a.ID,
		"title":    a.Title,
		"postDate": a.PostDate.Format(DateLayout),
		"isPublic": a.IsPublic,
	}
	if a.Summary != "" {
		data["summary"] = a.Summary
	}
	if a.Creator != nil {
		data["creator"] = a.Creator.Payload(guard)
	} else if a.CreatorID != "" {
		data["creator"] = a.CreatorID
	}
	if a.Project != nil {
		data["project"] = map[string]interface{}{"id": a.Project.ID, "title": a.Project.Title}
	}
	if a.Organization != nil {
		data["organization"] = map[string]interface{}{"id": a.Organization.ID, "name": a.Organization.Name}
	}
	if a.PictureFile != "" {
		data["picture"] = a.PictureFile
	}
	return data
}
