package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationKindReciprocal(t *testing.T) {
	assert.Equal(t, RelationChild, RelationParent.Reciprocal())
	assert.Equal(t, RelationParent, RelationChild.Reciprocal())
	assert.Equal(t, RelationSpouse, RelationSpouse.Reciprocal())
	assert.Equal(t, RelationSibling, RelationSibling.Reciprocal())
}

func TestParseRelationKind(t *testing.T) {
	for _, name := range []string{"parent", "child", "spouse", "sibling"} {
		kind, err := ParseRelationKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, kind.String())
	}

	_, err := ParseRelationKind("cousin")
	assert.Error(t, err)
}

func TestRelationKindJSON(t *testing.T) {
	data, err := RelationSibling.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"sibling"`, string(data))

	var kind RelationKind
	require.NoError(t, kind.UnmarshalJSON([]byte(`"spouse"`)))
	assert.Equal(t, RelationSpouse, kind)

	assert.Error(t, kind.UnmarshalJSON([]byte(`"cousin"`)))
	assert.Error(t, kind.UnmarshalJSON([]byte(`3`)))
}
