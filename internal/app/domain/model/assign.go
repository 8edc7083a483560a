package model

import (
	"fmt"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// AssignID writes a generated identifier onto an entity that has none yet.
func AssignID(e entity.Entity, id string) error {
	switch v := e.(type) {
	case *User:
		v.ID = id
	case *Organization:
		v.ID = id
	case *Project:
		v.ID = id
	case *Activity:
		v.ID = id
	case *Relationship:
		v.ID = id
	default:
		return fmt.Errorf("cannot assign id to kind %s", e.EntityKind())
	}
	return nil
}
