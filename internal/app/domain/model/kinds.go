// Package model holds the concrete domain entities: users, organizations,
// projects, activities and the following relationship records that tie users
// to trackable subjects. Entities reference each other by ID in their
// persisted form; resolved pointers are transient request state.
package model

import (
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// Entity kind names. They double as storage keys and asset directories.
const (
	KindUser         = "user"
	KindOrganization = "organization"
	KindProject      = "project"
	KindActivity     = "activity"
	KindFollowing    = "following"
)

// Trackable is an entity that accumulates follower/assignment relationships.
type Trackable interface {
	entity.Entity

	// Owner returns the creating user. The owner is implicitly assigned and
	// always leads the assigned team.
	Owner() *User

	// Relationships returns the relationship records currently attached to
	// the subject, in attachment order.
	Relationships() []*Relationship

	// Track attaches a freshly created relationship record to the subject.
	Track(rel *Relationship)
}
