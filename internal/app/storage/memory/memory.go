// Package memory is the in-memory EntityStore. It is safe for concurrent
// use and is primarily intended for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
)

// Store keeps entities in kind-scoped maps with insertion order preserved.
type Store struct {
	mu    sync.RWMutex
	kinds map[string]map[string]entity.Entity
	order map[string][]string
}

var _ storage.EntityStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		kinds: make(map[string]map[string]entity.Entity),
		order: make(map[string][]string),
	}
}

func (s *Store) FindByCriteria(_ context.Context, kind string, criteria storage.Criteria) ([]entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.Entity
	for _, id := range s.order[kind] {
		e := s.kinds[kind][id]
		if matches(e, criteria) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) FindAll(_ context.Context, kind string) ([]entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Entity, 0, len(s.order[kind]))
	for _, id := range s.order[kind] {
		out = append(out, s.kinds[kind][id])
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, e entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := e.EntityKind()
	if s.kinds[kind] == nil {
		s.kinds[kind] = make(map[string]entity.Entity)
	}

	id := e.EntityID()
	if id == "" {
		id = uuid.NewString()
		if err := model.AssignID(e, id); err != nil {
			return err
		}
	}

	if kind == model.KindFollowing {
		if err := s.checkPairLocked(e, id); err != nil {
			return err
		}
	}

	if _, exists := s.kinds[kind][id]; !exists {
		s.order[kind] = append(s.order[kind], id)
	}
	s.kinds[kind][id] = e
	return nil
}

func (s *Store) Delete(_ context.Context, e entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind, id := e.EntityKind(), e.EntityID()
	if _, exists := s.kinds[kind][id]; !exists {
		return nil
	}
	delete(s.kinds[kind], id)
	for i, stored := range s.order[kind] {
		if stored == id {
			s.order[kind] = append(s.order[kind][:i], s.order[kind][i+1:]...)
			break
		}
	}
	return nil
}

// Flush is a no-op: saves are immediately durable here.
func (s *Store) Flush(context.Context) error { return nil }

// checkPairLocked enforces the one-record-per-pair constraint the database
// schema provides in the postgres store.
func (s *Store) checkPairLocked(e entity.Entity, id string) error {
	rel, ok := e.(*model.Relationship)
	if !ok {
		return nil
	}
	for _, storedID := range s.order[model.KindFollowing] {
		if storedID == id {
			continue
		}
		other, ok := s.kinds[model.KindFollowing][storedID].(*model.Relationship)
		if !ok {
			continue
		}
		if other.SubjectKind == rel.SubjectKind && other.SubjectID == rel.SubjectID && other.FollowerID == rel.FollowerID {
			return fmt.Errorf("relationship for %s/%s and %s: %w",
				rel.SubjectKind, rel.SubjectID, rel.FollowerID, storage.ErrDuplicate)
		}
	}
	return nil
}

func matches(e entity.Entity, criteria storage.Criteria) bool {
	for name, want := range criteria {
		got, ok := e.Attribute(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}
