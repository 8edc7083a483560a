// Package storage declares the persistence port the pipeline consumes.
// Implementations live in the memory and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// ErrDuplicate is returned when a uniqueness constraint rejects a save, e.g.
// a second relationship record for the same (subject, follower) pair.
var ErrDuplicate = errors.New("duplicate record")

// Criteria is an exact-match filter over flat entity attributes.
type Criteria map[string]interface{}

// EntityStore is the generic persistence port: criteria lookups, saves and
// an explicit flush. Failures surface as generic persistence errors; the
// pipeline converts them into its opaque server-error outcome.
type EntityStore interface {
	FindByCriteria(ctx context.Context, kind string, criteria Criteria) ([]entity.Entity, error)
	FindAll(ctx context.Context, kind string) ([]entity.Entity, error)
	Save(ctx context.Context, e entity.Entity) error
	Delete(ctx context.Context, e entity.Entity) error
	Flush(ctx context.Context) error
}
