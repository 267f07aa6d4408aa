package fakes

import (
	"context"
	"fmt"
	"sync"

	"kintree/application/ports"
	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
)

// Backend is an in-memory ports.PeopleBackend with scriptable failures,
// used by service tests and by local development without a configured
// backend project.
type Backend struct {
	mu      sync.Mutex
	people  []*entities.Person
	updates []*entities.Update
	errs    map[string]error
	calls   map[string]int
	nextID  int

	// BeforeFetch, when set, runs at the start of every GetAllPeople call,
	// outside the fake's lock. Tests use it to hold a fetch in flight.
	BeforeFetch func()
}

var _ ports.PeopleBackend = (*Backend)(nil)

// NewBackend creates an empty fake backend.
func NewBackend() *Backend {
	return &Backend{
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// SetError scripts the named operation to fail with err until cleared.
func (b *Backend) SetError(operation string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errs, operation)
		return
	}
	b.errs[operation] = err
}

// Calls returns how many times the named operation was invoked.
func (b *Backend) Calls(operation string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[operation]
}

// SeedPeople replaces the person set returned by GetAllPeople.
func (b *Backend) SeedPeople(people []*entities.Person) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.people = people
}

// SeedUpdates replaces the update set returned by GetAllUpdates.
func (b *Backend) SeedUpdates(updates []*entities.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = updates
}

func (b *Backend) begin(operation string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[operation]++
	return b.errs[operation]
}

// CreatePerson assigns a permanent ID and returns the stored record.
func (b *Backend) CreatePerson(ctx context.Context, person *entities.Person, actorID string) (*entities.Person, error) {
	if err := b.begin("CreatePerson"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	stored := person.Clone()
	stored.ID = valueobjects.PersonID(fmt.Sprintf("person-%d", b.nextID))
	b.people = append(b.people, stored)
	return stored.Clone(), nil
}

// CreateRelationship records the edge and returns a backend identifier.
func (b *Backend) CreateRelationship(ctx context.Context, actorID string, rel entities.RelationshipRecord) (string, error) {
	if err := b.begin("CreateRelationship"); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return fmt.Sprintf("rel-%d", b.nextID), nil
}

// GetAllPeople returns clones of the seeded person set.
func (b *Backend) GetAllPeople(ctx context.Context, actorID string) ([]*entities.Person, error) {
	if hook := b.BeforeFetch; hook != nil {
		hook()
	}
	if err := b.begin("GetAllPeople"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*entities.Person, 0, len(b.people))
	for _, p := range b.people {
		out = append(out, p.Clone())
	}
	return out, nil
}

// GetAllUpdates returns the seeded update set.
func (b *Backend) GetAllUpdates(ctx context.Context, actorID string) ([]*entities.Update, error) {
	if err := b.begin("GetAllUpdates"); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*entities.Update, len(b.updates))
	copy(out, b.updates)
	return out, nil
}
