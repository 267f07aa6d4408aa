package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kintree/application/ports/fakes"
	domaincfg "kintree/domain/config"
	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
	pkgerrors "kintree/pkg/errors"
	"kintree/pkg/observability"
)

func newTestStore(t *testing.T) (*fakes.Backend, *EntityStore) {
	t.Helper()
	backend := fakes.NewBackend()
	store := NewEntityStore(backend, zap.NewNop(), observability.NewMetrics(), nil)
	return backend, store
}

// testPerson builds a person with a known permanent ID, as if loaded from the
// backend.
func testPerson(id valueobjects.PersonID, name string) *entities.Person {
	now := time.Now()
	return &entities.Person{
		ID:         id,
		Name:       name,
		ParentIDs:  []valueobjects.PersonID{},
		ChildIDs:   []valueobjects.PersonID{},
		SpouseIDs:  []valueobjects.PersonID{},
		SiblingIDs: []valueobjects.PersonID{},
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    1,
	}
}

func TestAddPerson(t *testing.T) {
	t.Run("optimistic insert is visible before persistence settles", func(t *testing.T) {
		backend, store := newTestStore(t)

		id, err := store.AddPerson(context.Background(), entities.PersonData{Name: "Maya"}, "acct-1")
		require.NoError(t, err)
		require.True(t, id.IsTemp())

		p, ok := store.GetPerson(id)
		require.True(t, ok)
		assert.Equal(t, "Maya", p.Name)

		store.Wait()

		// The temporary ID still resolves after reconciliation, but the
		// canonical record carries the backend-assigned ID.
		p, ok = store.GetPerson(id)
		require.True(t, ok)
		assert.False(t, p.ID.IsTemp())
		assert.Equal(t, 1, backend.Calls("CreatePerson"))
		assert.Equal(t, 1, store.Len())
	})

	t.Run("persistence failure keeps the local record under its temp ID", func(t *testing.T) {
		backend, store := newTestStore(t)
		backend.SetError("CreatePerson", pkgerrors.NewUnavailableError("backend"))

		id, err := store.AddPerson(context.Background(), entities.PersonData{Name: "Maya"}, "acct-1")
		require.NoError(t, err)
		store.Wait()

		p, ok := store.GetPerson(id)
		require.True(t, ok)
		assert.True(t, p.ID.IsTemp())
		assert.Equal(t, 1, backend.Calls("CreatePerson"))
	})

	t.Run("no actor identity degrades to local-only", func(t *testing.T) {
		backend, store := newTestStore(t)

		id, err := store.AddPerson(context.Background(), entities.PersonData{Name: "Maya"}, "")
		require.NoError(t, err)
		store.Wait()

		_, ok := store.GetPerson(id)
		assert.True(t, ok)
		assert.Equal(t, 0, backend.Calls("CreatePerson"))
	})

	t.Run("shadow profiles can be disabled", func(t *testing.T) {
		backend := fakes.NewBackend()
		store := NewEntityStore(backend, zap.NewNop(), observability.NewMetrics(), func() *domaincfg.DomainConfig {
			return &domaincfg.DomainConfig{MaxRelativesPerPerson: 50, AllowShadowProfiles: false}
		})

		_, err := store.AddPerson(context.Background(), entities.PersonData{Name: "Grandpa Joe"}, "acct-1")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))

		_, err = store.AddPerson(context.Background(), entities.PersonData{Name: "Maya", LinkedAccountID: "acct-1"}, "acct-1")
		assert.NoError(t, err)
		store.Wait()
	})
}

func TestReconcileTempID(t *testing.T) {
	_, store := newTestStore(t)

	tempID := valueobjects.NewTempPersonID()
	parent := testPerson("person-1", "Bob")
	child := testPerson(tempID, "Alice")
	parent.AddRelative(entities.RelationChild, tempID)
	child.AddRelative(entities.RelationParent, "person-1")
	store.SetPeople([]*entities.Person{parent, child})
	store.SetUpdates([]*entities.Update{
		{ID: "u1", PersonID: "person-1", TaggedPersonIDs: []valueobjects.PersonID{tempID}},
	})

	store.ReconcileTempID(tempID, "person-2")

	t.Run("the record moves to its permanent ID", func(t *testing.T) {
		p, ok := store.GetPerson("person-2")
		require.True(t, ok)
		assert.Equal(t, "Alice", p.Name)

		// The old temp ID still resolves for callers holding it.
		p, ok = store.GetPerson(tempID)
		require.True(t, ok)
		assert.Equal(t, valueobjects.PersonID("person-2"), p.ID)
		assert.Equal(t, 2, store.Len())
	})

	t.Run("references in other records are rewritten", func(t *testing.T) {
		p, ok := store.GetPerson("person-1")
		require.True(t, ok)
		assert.True(t, p.HasRelative(entities.RelationChild, "person-2"))
		assert.False(t, p.HasRelative(entities.RelationChild, tempID))
	})

	t.Run("timeline updates are rewritten", func(t *testing.T) {
		updates := store.UpdatesForPerson("person-2")
		require.Len(t, updates, 1)
		assert.Equal(t, "u1", updates[0].ID)
	})

	t.Run("reconciling an unknown temp ID is a no-op", func(t *testing.T) {
		store.ReconcileTempID("tmp-nope", "person-3")
		_, ok := store.GetPerson("person-3")
		assert.False(t, ok)
	})
}

func TestSubscribeNotifiesOnMutation(t *testing.T) {
	_, store := newTestStore(t)

	notified := 0
	store.Subscribe(func() { notified++ })

	store.SetPeople([]*entities.Person{testPerson("person-1", "Bob")})
	assert.Equal(t, 1, notified)

	store.RemovePerson("person-1")
	assert.Equal(t, 2, notified)
}

func TestSignature(t *testing.T) {
	_, store := newTestStore(t)

	a := testPerson("person-1", "Bob")
	b := testPerson("person-2", "Alice")
	store.SetPeople([]*entities.Person{a, b})
	before := store.Signature()

	t.Run("changes when an edge is added at constant node count", func(t *testing.T) {
		edited := a.Clone()
		edited.AddRelative(entities.RelationChild, "person-2")
		store.UpdatePerson(edited)

		assert.Equal(t, 2, store.Len())
		assert.NotEqual(t, before, store.Signature())
	})

	t.Run("changes when a placeholder flag flips", func(t *testing.T) {
		sig := store.Signature()
		store.SetPlaceholder("person-2", true)
		assert.NotEqual(t, sig, store.Signature())
	})

	t.Run("stable across reads", func(t *testing.T) {
		assert.Equal(t, store.Signature(), store.Signature())
	})
}

func TestUpdateProfile(t *testing.T) {
	_, store := newTestStore(t)
	store.SetPeople([]*entities.Person{testPerson("person-1", "Bob")})

	require.NoError(t, store.UpdateProfile("person-1", entities.PersonData{Name: "Robert", Bio: "patriarch"}, "acct-1"))

	p, ok := store.GetPerson("person-1")
	require.True(t, ok)
	assert.Equal(t, "Robert", p.Name)
	assert.Equal(t, 2, p.Version)

	t.Run("unknown person is a logged no-op", func(t *testing.T) {
		assert.NoError(t, store.UpdateProfile("person-404", entities.PersonData{Name: "X"}, "acct-1"))
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		assert.Error(t, store.UpdateProfile("person-1", entities.PersonData{}, "acct-1"))
	})
}

func TestRemovePeopleByLinkedAccount(t *testing.T) {
	_, store := newTestStore(t)

	claimed := testPerson("person-1", "Maya")
	claimed.LinkedAccountID = "acct-9"
	store.SetPeople([]*entities.Person{claimed, testPerson("person-2", "Bob")})

	assert.Equal(t, 1, store.RemovePeopleByLinkedAccount("acct-9"))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, store.RemovePeopleByLinkedAccount(""))
}

func TestSnapshotRestore(t *testing.T) {
	_, store := newTestStore(t)

	a := testPerson("person-1", "Bob")
	store.SetPeople([]*entities.Person{a, testPerson("person-2", "Alice")})

	snap := store.snapshot("person-1")
	require.Len(t, snap, 1)

	edited := a.Clone()
	edited.AddRelative(entities.RelationSpouse, "person-2")
	store.UpdatePerson(edited)

	store.restore(snap)

	p, ok := store.GetPerson("person-1")
	require.True(t, ok)
	assert.False(t, p.HasRelative(entities.RelationSpouse, "person-2"))

	// Records the snapshot never covered are untouched.
	_, ok = store.GetPerson("person-2")
	assert.True(t, ok)
}
