package model

import (
	"encoding/json"
	"fmt"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/entity"
)

// NewByKind instantiates an empty entity of the given kind.
func NewByKind(kind string) (entity.Entity, error) {
	switch kind {
	case KindUser:
		return &User{}, nil
	case KindOrganization:
		return &Organization{}, nil
	case KindProject:
		return &Project{}, nil
	case KindActivity:
		return &Activity{}, nil
	case KindFollowing:
		return &Relationship{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

// Decode rebuilds an entity of the given kind from its persisted JSON
// document.
func Decode(kind string, doc []byte) (entity.Entity, error) {
	e, err := NewByKind(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return e, nil
}
