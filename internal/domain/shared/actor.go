package shared

import "github.com/google/uuid"

// Actor identifies who performed a mutating operation. It is passed
// explicitly to every lifecycle call; the zero value is the system actor.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SystemActor is used by background jobs and migrations.
func SystemActor() Actor {
	return Actor{Name: "system"}
}

// NewActor creates an actor for a known user
func NewActor(id uuid.UUID, name string) Actor {
	return Actor{ID: id, Name: name}
}

// IsSystem reports whether no user is attached
func (a Actor) IsSystem() bool {
	return a.ID == uuid.Nil
}

// IDPtr returns the actor id for nullable columns, nil for the system actor.
func (a Actor) IDPtr() *uuid.UUID {
	if a.IsSystem() {
		return nil
	}
	id := a.ID
	return &id
}

// Label returns a human readable name for logs and audit rows
func (a Actor) Label() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.IsSystem():
		return "system"
	default:
		return a.ID.String()
	}
}
