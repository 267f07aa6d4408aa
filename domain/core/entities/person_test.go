package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kintree/domain/core/valueobjects"
	pkgerrors "kintree/pkg/errors"
)

func TestNewPerson(t *testing.T) {
	t.Run("assigns a temporary ID and empty adjacency lists", func(t *testing.T) {
		p, err := NewPerson(PersonData{Name: "Maya"}, "acct-1")
		require.NoError(t, err)

		assert.True(t, p.ID.IsTemp())
		assert.Equal(t, "Maya", p.Name)
		assert.Equal(t, 1, p.Version)
		assert.Empty(t, p.ParentIDs)
		assert.Empty(t, p.ChildIDs)
		assert.Empty(t, p.SpouseIDs)
		assert.Empty(t, p.SiblingIDs)
		assert.Equal(t, "acct-1", p.CreatedBy)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := NewPerson(PersonData{}, "acct-1")
		require.Error(t, err)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("shadow profile has no linked account", func(t *testing.T) {
		shadow, err := NewPerson(PersonData{Name: "Grandpa Joe"}, "acct-1")
		require.NoError(t, err)
		assert.True(t, shadow.IsShadow())

		claimed, err := NewPerson(PersonData{Name: "Maya", LinkedAccountID: "acct-1"}, "acct-1")
		require.NoError(t, err)
		assert.False(t, claimed.IsShadow())
	})
}

func TestAddRelative(t *testing.T) {
	p, err := NewPerson(PersonData{Name: "Maya"}, "")
	require.NoError(t, err)
	other := valueobjects.PersonID("person-2")

	assert.True(t, p.AddRelative(RelationParent, other))
	assert.True(t, p.HasRelative(RelationParent, other))

	t.Run("duplicate is rejected", func(t *testing.T) {
		assert.False(t, p.AddRelative(RelationParent, other))
		assert.Len(t, p.ParentIDs, 1)
	})

	t.Run("self-loop is rejected", func(t *testing.T) {
		assert.False(t, p.AddRelative(RelationSpouse, p.ID))
		assert.Empty(t, p.SpouseIDs)
	})

	t.Run("kinds are independent lists", func(t *testing.T) {
		assert.True(t, p.AddRelative(RelationSibling, other))
		assert.Len(t, p.ParentIDs, 1)
		assert.Len(t, p.SiblingIDs, 1)
	})
}

func TestReplaceRelativeID(t *testing.T) {
	p, err := NewPerson(PersonData{Name: "Maya"}, "")
	require.NoError(t, err)

	tempID := valueobjects.NewTempPersonID()
	realID := valueobjects.PersonID("person-9")
	p.AddRelative(RelationChild, tempID)
	p.AddRelative(RelationSibling, tempID)

	assert.True(t, p.ReplaceRelativeID(tempID, realID))
	assert.True(t, p.HasRelative(RelationChild, realID))
	assert.True(t, p.HasRelative(RelationSibling, realID))
	assert.False(t, p.HasRelative(RelationChild, tempID))

	assert.False(t, p.ReplaceRelativeID(tempID, realID))
}

func TestApplyProfile(t *testing.T) {
	p, err := NewPerson(PersonData{Name: "Maya"}, "acct-1")
	require.NoError(t, err)

	require.NoError(t, p.ApplyProfile(PersonData{Name: "Maya R.", Bio: "matriarch"}, "acct-2"))
	assert.Equal(t, "Maya R.", p.Name)
	assert.Equal(t, "matriarch", p.Bio)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, "acct-2", p.UpdatedBy)

	err = p.ApplyProfile(PersonData{}, "acct-2")
	require.Error(t, err)
	assert.Equal(t, 2, p.Version)
}

func TestClone(t *testing.T) {
	p, err := NewPerson(PersonData{Name: "Maya"}, "")
	require.NoError(t, err)
	p.AddRelative(RelationChild, "person-2")

	clone := p.Clone()
	clone.Name = "changed"
	clone.ChildIDs[0] = "person-3"

	assert.Equal(t, "Maya", p.Name)
	assert.Equal(t, valueobjects.PersonID("person-2"), p.ChildIDs[0])
}
