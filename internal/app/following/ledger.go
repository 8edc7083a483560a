// Package following maintains the follow/assign state machine over
// (trackable subject, user) pairs. The ledger mutates relationship records
// in place; creating, persisting and pruning them is the caller's job, and
// the store layer is expected to enforce uniqueness on the pair.
package following

import (
	"github.com/google/uuid"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

// Ledger owns every transition of the follow/assign flags. Nothing else may
// mutate a relationship record.
type Ledger struct {
	log *logger.Logger
}

// NewLedger builds a ledger.
func NewLedger(log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.NewDefault("following")
	}
	return &Ledger{log: log}
}

// AddFollower sets the following flag for the pair, creating the
// relationship lazily. Calling it twice leaves isFollowing true and never
// creates a second record for the pair.
func (l *Ledger) AddFollower(subject model.Trackable, follower *model.User) *model.Relationship {
	rel := l.relationshipFor(subject, follower.ID)
	if rel == nil {
		rel = l.newRelationship(subject, follower)
	}
	rel.IsFollowing = true
	return rel
}

// AddAssigned toggles the assigning flag for the pair, creating the
// relationship lazily. The flip is deliberate: invoking the same action
// again cancels the assignment.
func (l *Ledger) AddAssigned(subject model.Trackable, follower *model.User) *model.Relationship {
	rel := l.relationshipFor(subject, follower.ID)
	if rel == nil {
		rel = l.newRelationship(subject, follower)
	}
	rel.IsAssigning = !rel.IsAssigning
	return rel
}

// RmvFollower clears the following flag.
func (l *Ledger) RmvFollower(rel *model.Relationship) {
	rel.IsFollowing = false
}

// RmvAssigned clears the assigning flag.
func (l *Ledger) RmvAssigned(rel *model.Relationship) {
	rel.IsAssigning = false
}

// IsStillValid reports whether the record is live. Callers must delete
// records for which this is false; the ledger never deletes.
func (l *Ledger) IsStillValid(rel *model.Relationship) bool {
	return rel.IsAssigning || rel.IsFollowing
}

// IsAssigned reports whether the user is on the subject's team: the creator
// always is, otherwise a live assigning relationship decides.
func (l *Ledger) IsAssigned(subject model.Trackable, follower *model.User) bool {
	if owner := subject.Owner(); owner != nil && owner.ID == follower.ID {
		return true
	}
	rel := l.relationshipFor(subject, follower.ID)
	return rel != nil && rel.IsAssigning
}

// IsFollowed reports whether the user has a live following flag on the
// subject.
func (l *Ledger) IsFollowed(subject model.Trackable, follower *model.User) bool {
	rel := l.relationshipFor(subject, follower.ID)
	return rel != nil && rel.IsFollowing
}

// AssignedTeam returns the subject's team: the creator first, then every
// follower whose relationship is assigning, in relationship order.
func (l *Ledger) AssignedTeam(subject model.Trackable) []*model.User {
	team := []*model.User{subject.Owner()}
	for _, rel := range subject.Relationships() {
		if rel.IsAssigning {
			team = append(team, rel.Follower)
		}
	}
	return team
}

// Followers returns the relationships with a live following flag.
func (l *Ledger) Followers(subject model.Trackable) []*model.Relationship {
	var followers []*model.Relationship
	for _, rel := range subject.Relationships() {
		if rel.IsFollowing {
			followers = append(followers, rel)
		}
	}
	return followers
}

func (l *Ledger) relationshipFor(subject model.Trackable, followerID string) *model.Relationship {
	var found *model.Relationship
	for _, rel := range subject.Relationships() {
		if rel.FollowerID == followerID {
			found = rel
		}
	}
	return found
}

func (l *Ledger) newRelationship(subject model.Trackable, follower *model.User) *model.Relationship {
	rel := &model.Relationship{
		ID:          uuid.NewString(),
		SubjectKind: subject.EntityKind(),
		SubjectID:   subject.EntityID(),
		FollowerID:  follower.ID,
		Follower:    follower,
	}
	subject.Track(rel)
	l.log.WithField("subject", rel.SubjectKind+"/"+rel.SubjectID).
		WithField("follower", follower.ID).
		Debug("relationship created")
	return rel
}
