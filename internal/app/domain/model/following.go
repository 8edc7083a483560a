package model

import (
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// Relationship is the per (subject, follower) record holding the independent
// follow and assign flags. Exactly one record exists per pair; a record with
// both flags false is logically dead and must be pruned by the caller.
type Relationship struct {
	ID          string `json:"id"`
	SubjectKind string `json:"subject_kind"`
	SubjectID   string `json:"subject_id"`
	FollowerID  string `json:"follower_id"`
	IsFollowing bool   `json:"is_following"`
	IsAssigning bool   `json:"is_assigning"`

	// Follower is the resolved user, attached transiently for serialization.
	Follower *User `json:"-"`
}

var _ entity.Serializable = (*Relationship)(nil)

func (r *Relationship) EntityID() string   { return r.ID }
func (r *Relationship) EntityKind() string { return KindFollowing }

func (r *Relationship) Attribute(name string) (interface{}, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "subjectKind":
		return r.SubjectKind, true
	case "subjectId":
		return r.SubjectID, true
	case "followerId":
		return r.FollowerID, true
	}
	return nil, false
}

func (r *Relationship) Payload(guard entity.Guard) map[string]interface{} {
	data := map[string]interface{}{
		"id":          r.ID,
		"isFollowing": r.IsFollowing,
		"isAssigning": r.IsAssigning,
	}
	if r.Follower != nil {
		data["follower"] = r.Follower.Payload(guard)
	} else {
		data["follower"] = r.FollowerID
	}
	return data
}
