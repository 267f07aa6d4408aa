package services

import (
	"context"
	"testing"

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

func newTestRels(t *testing.T, people ...*entities.Person) (*fakes.Backend, *EntityStore, *RelationshipService) {
	t.Helper()
	backend := fakes.NewBackend()
	store := NewEntityStore(backend, zap.NewNop(), observability.NewMetrics(), nil)
	store.SetPeople(people)
	rels := NewRelationshipService(store, backend, zap.NewNop(), observability.NewMetrics(), nil)
	return backend, store, rels
}

func TestAddRelationSymmetry(t *testing.T) {
	ctx := context.Background()

	t.Run("parent edge mirrors as child edge", func(t *testing.T) {
		backend, store, rels := newTestRels(t,
			testPerson("alice", "Alice"),
			testPerson("bob", "Bob"),
		)

		require.NoError(t, rels.AddParent(ctx, "alice", "bob", "acct-1"))

		alice, _ := store.GetPerson("alice")
		bob, _ := store.GetPerson("bob")
		assert.True(t, alice.HasRelative(entities.RelationParent, "bob"))
		assert.True(t, bob.HasRelative(entities.RelationChild, "alice"))
		assert.Equal(t, 2, alice.Version)
		assert.Equal(t, 2, bob.Version)
		assert.Equal(t, 1, backend.Calls("CreateRelationship"))
	})

	t.Run("spouse edge is its own mirror", func(t *testing.T) {
		_, store, rels := newTestRels(t,
			testPerson("alice", "Alice"),
			testPerson("bob", "Bob"),
		)

		require.NoError(t, rels.AddSpouse(ctx, "alice", "bob", "acct-1"))

		alice, _ := store.GetPerson("alice")
		bob, _ := store.GetPerson("bob")
		assert.True(t, alice.HasRelative(entities.RelationSpouse, "bob"))
		assert.True(t, bob.HasRelative(entities.RelationSpouse, "alice"))
	})
}

func TestAddRelationNoOps(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown person", func(t *testing.T) {
		backend, store, rels := newTestRels(t, testPerson("alice", "Alice"))

		require.NoError(t, rels.AddParent(ctx, "alice", "ghost", "acct-1"))
		require.NoError(t, rels.AddParent(ctx, "ghost", "alice", "acct-1"))

		alice, _ := store.GetPerson("alice")
		assert.Empty(t, alice.ParentIDs)
		assert.Equal(t, 0, backend.Calls("CreateRelationship"))
	})

	t.Run("self-relation", func(t *testing.T) {
		backend, store, rels := newTestRels(t, testPerson("alice", "Alice"))

		require.NoError(t, rels.AddSpouse(ctx, "alice", "alice", "acct-1"))

		alice, _ := store.GetPerson("alice")
		assert.Empty(t, alice.SpouseIDs)
		assert.Equal(t, 0, backend.Calls("CreateRelationship"))
	})

	t.Run("duplicate edge", func(t *testing.T) {
		backend, store, rels := newTestRels(t,
			testPerson("alice", "Alice"),
			testPerson("bob", "Bob"),
		)

		require.NoError(t, rels.AddParent(ctx, "alice", "bob", "acct-1"))
		require.NoError(t, rels.AddParent(ctx, "alice", "bob", "acct-1"))

		alice, _ := store.GetPerson("alice")
		assert.Len(t, alice.ParentIDs, 1)
		assert.Equal(t, 2, alice.Version)
		assert.Equal(t, 1, backend.Calls("CreateRelationship"))
	})

	t.Run("relative limit reached", func(t *testing.T) {
		backend := fakes.NewBackend()
		store := NewEntityStore(backend, zap.NewNop(), observability.NewMetrics(), nil)
		store.SetPeople([]*entities.Person{
			testPerson("alice", "Alice"),
			testPerson("bob", "Bob"),
			testPerson("carol", "Carol"),
		})
		rels := NewRelationshipService(store, backend, zap.NewNop(), observability.NewMetrics(), func() *domaincfg.DomainConfig {
			return &domaincfg.DomainConfig{MaxRelativesPerPerson: 1, AllowShadowProfiles: true}
		})

		require.NoError(t, rels.AddChild(ctx, "alice", "bob", "acct-1"))
		require.NoError(t, rels.AddChild(ctx, "alice", "carol", "acct-1"))

		alice, _ := store.GetPerson("alice")
		assert.Len(t, alice.ChildIDs, 1)
		assert.Equal(t, 1, backend.Calls("CreateRelationship"))
	})
}

func TestAddSiblingBackfillsSharedParents(t *testing.T) {
	ctx := context.Background()

	dad := testPerson("dad", "Bob")
	alice := testPerson("alice", "Alice")
	dad.AddRelative(entities.RelationChild, "alice")
	alice.AddRelative(entities.RelationParent, "dad")

	_, store, rels := newTestRels(t, dad, alice, testPerson("carol", "Carol"))

	require.NoError(t, rels.AddSibling(ctx, "alice", "carol", "acct-1"))

	alice, _ = store.GetPerson("alice")
	carol, _ := store.GetPerson("carol")
	dad, _ = store.GetPerson("dad")

	assert.True(t, alice.HasRelative(entities.RelationSibling, "carol"))
	assert.True(t, carol.HasRelative(entities.RelationSibling, "alice"))
	assert.True(t, carol.HasRelative(entities.RelationParent, "dad"))
	assert.True(t, dad.HasRelative(entities.RelationChild, "carol"))
}

func TestAddRelationRollbackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	backend, store, rels := newTestRels(t,
		testPerson("alice", "Alice"),
		testPerson("bob", "Bob"),
	)
	backend.SetError("CreateRelationship", pkgerrors.NewUnavailableError("backend"))

	err := rels.AddSpouse(ctx, "alice", "bob", "acct-1")
	require.Error(t, err)

	alice, _ := store.GetPerson("alice")
	bob, _ := store.GetPerson("bob")
	assert.Empty(t, alice.SpouseIDs)
	assert.Empty(t, bob.SpouseIDs)
	assert.Equal(t, 1, alice.Version)
}

func TestAddRelationWithoutActorStaysLocal(t *testing.T) {
	ctx := context.Background()
	backend, store, rels := newTestRels(t,
		testPerson("alice", "Alice"),
		testPerson("bob", "Bob"),
	)

	require.NoError(t, rels.AddSpouse(ctx, "alice", "bob", ""))

	alice, _ := store.GetPerson("alice")
	assert.True(t, alice.HasRelative(entities.RelationSpouse, "bob"))
	assert.Equal(t, 0, backend.Calls("CreateRelationship"))
}

func TestGetSiblings(t *testing.T) {
	dad := testPerson("dad", "Bob")
	alice := testPerson("alice", "Alice")
	ben := testPerson("ben", "Ben")
	carol := testPerson("carol", "Carol")

	// Ben shares a parent with Alice; Carol is a direct sibling with no
	// recorded parents. Both count.
	dad.AddRelative(entities.RelationChild, "alice")
	dad.AddRelative(entities.RelationChild, "ben")
	alice.AddRelative(entities.RelationParent, "dad")
	ben.AddRelative(entities.RelationParent, "dad")
	alice.AddRelative(entities.RelationSibling, "carol")
	carol.AddRelative(entities.RelationSibling, "alice")

	_, _, rels := newTestRels(t, dad, alice, ben, carol)

	siblings := rels.GetSiblings("alice")
	ids := make([]valueobjects.PersonID, 0, len(siblings))
	for _, s := range siblings {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []valueobjects.PersonID{"carol", "ben"}, ids)

	t.Run("unknown person yields nil", func(t *testing.T) {
		assert.Nil(t, rels.GetSiblings("ghost"))
	})

	t.Run("a person is never their own sibling", func(t *testing.T) {
		for _, s := range rels.GetSiblings("ben") {
			assert.NotEqual(t, valueobjects.PersonID("ben"), s.ID)
		}
	})
}

func TestCounts(t *testing.T) {
	t.Run("ancestors include siblings of each ancestor", func(t *testing.T) {
		alice := testPerson("alice", "Alice")
		bob := testPerson("bob", "Bob")
		carol := testPerson("carol", "Carol")
		alice.AddRelative(entities.RelationParent, "bob")
		bob.AddRelative(entities.RelationChild, "alice")
		bob.AddRelative(entities.RelationSibling, "carol")
		carol.AddRelative(entities.RelationSibling, "bob")

		_, _, rels := newTestRels(t, alice, bob, carol)

		assert.Equal(t, 2, rels.CountAncestors("alice"))
		assert.Equal(t, 1, rels.CountDescendants("bob"))
		assert.Equal(t, 0, rels.CountAncestors("bob"))
	})

	t.Run("placeholder nodes are skipped", func(t *testing.T) {
		alice := testPerson("alice", "Alice")
		bob := testPerson("bob", "Bob")
		carol := testPerson("carol", "Carol")
		carol.Placeholder = true
		alice.AddRelative(entities.RelationParent, "bob")
		bob.AddRelative(entities.RelationChild, "alice")
		bob.AddRelative(entities.RelationSibling, "carol")
		carol.AddRelative(entities.RelationSibling, "bob")

		_, _, rels := newTestRels(t, alice, bob, carol)

		assert.Equal(t, 1, rels.CountAncestors("alice"))
	})

	t.Run("a cycle terminates", func(t *testing.T) {
		a := testPerson("a", "A")
		b := testPerson("b", "B")
		a.AddRelative(entities.RelationParent, "b")
		b.AddRelative(entities.RelationParent, "a")
		a.AddRelative(entities.RelationChild, "b")
		b.AddRelative(entities.RelationChild, "a")

		_, _, rels := newTestRels(t, a, b)

		assert.Equal(t, 1, rels.CountAncestors("a"))
	})

	t.Run("unknown person counts zero", func(t *testing.T) {
		_, _, rels := newTestRels(t)
		assert.Equal(t, 0, rels.CountAncestors("ghost"))
	})
}
