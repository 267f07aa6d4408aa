package persistence

import (
	"context"

	"kintree/application/ports"
	"kintree/domain/core/entities"
	pkgerrors "kintree/pkg/errors"
)

// OfflineBackend stands in when no backend project is configured. Every call
// reports the backend unavailable; the graph core already degrades such
// failures to local-only state.
type OfflineBackend struct{}

var _ ports.PeopleBackend = OfflineBackend{}

// NewOfflineBackend creates the stand-in backend.
func NewOfflineBackend() OfflineBackend {
	return OfflineBackend{}
}

func (OfflineBackend) CreatePerson(ctx context.Context, person *entities.Person, actorID string) (*entities.Person, error) {
	return nil, pkgerrors.NewUnavailableError("people backend")
}

func (OfflineBackend) CreateRelationship(ctx context.Context, actorID string, rel entities.RelationshipRecord) (string, error) {
	return "", pkgerrors.NewUnavailableError("people backend")
}

func (OfflineBackend) GetAllPeople(ctx context.Context, actorID string) ([]*entities.Person, error) {
	return nil, pkgerrors.NewUnavailableError("people backend")
}

func (OfflineBackend) GetAllUpdates(ctx context.Context, actorID string) ([]*entities.Update, error) {
	return nil, pkgerrors.NewUnavailableError("people backend")
}
