// Package entity defines the capability interfaces shared by every domain
// entity: identity, wire serialization with cycle breaking, and picture
// attachment. Concrete types live in domain/model.
package entity

// Entity is anything with a stable identity and a kind name. Kind names are
// lower-case singular ("user", "project") and double as storage table keys
// and asset directory names.
type Entity interface {
	EntityID() string
	EntityKind() string

	// Attribute returns a flat persisted attribute by name. Stores use it to
	// match find-by-criteria filters without reflection.
	Attribute(name string) (interface{}, bool)
}

// Serializable produces the wire payload for an entity. The guard carries the
// relation edges already walked so nested entities can suppress the edge
// pointing back at their parent.
type Serializable interface {
	Entity
	Payload(guard Guard) map[string]interface{}
}

// PictureBearer is an entity owning at most one picture. The attached data is
// transient response state and is never persisted; only the path is.
type PictureBearer interface {
	Entity
	GetPicturePath() string
	SetPicturePath(path string)
	AttachPicture(encoded string)
}
