package ports

import (
	"context"

	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
)

// PeopleBackend is the consumed contract with the remote
// people/relationships/updates service. All four calls are fallible and
// asynchronous from the caller's point of view; the graph core never assumes
// a wire format.
type PeopleBackend interface {
	// CreatePerson persists a locally-created person and returns the
	// authoritative record, including the backend-assigned permanent ID.
	CreatePerson(ctx context.Context, person *entities.Person, actorID string) (*entities.Person, error)

	// CreateRelationship persists one symmetric edge and returns its
	// backend identifier.
	CreateRelationship(ctx context.Context, actorID string, rel entities.RelationshipRecord) (string, error)

	// GetAllPeople fetches the full person set visible to the actor.
	GetAllPeople(ctx context.Context, actorID string) ([]*entities.Person, error)

	// GetAllUpdates fetches the full timeline-update set visible to the actor.
	GetAllUpdates(ctx context.Context, actorID string) ([]*entities.Update, error)
}

// GraphReader is the read surface the layout projector depends on. It is
// satisfied by the entity store.
type GraphReader interface {
	GetPerson(id valueobjects.PersonID) (*entities.Person, bool)
	Len() int
	Signature() uint64
}
