package entities

import (
	"fmt"

	"kintree/domain/core/valueobjects"
)

// RelationKind enumerates the four relation types of the family graph.
// Using a closed enum instead of free-form strings means every dispatch on a
// relation kind is checked at compile time.
type RelationKind int

const (
	RelationParent RelationKind = iota
	RelationChild
	RelationSpouse
	RelationSibling
)

// String returns the wire/display name of the kind.
func (k RelationKind) String() string {
	switch k {
	case RelationParent:
		return "parent"
	case RelationChild:
		return "child"
	case RelationSpouse:
		return "spouse"
	case RelationSibling:
		return "sibling"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseRelationKind converts a wire name into a RelationKind.
func ParseRelationKind(s string) (RelationKind, error) {
	switch s {
	case "parent":
		return RelationParent, nil
	case "child":
		return RelationChild, nil
	case "spouse":
		return RelationSpouse, nil
	case "sibling":
		return RelationSibling, nil
	default:
		return 0, fmt.Errorf("unknown relation kind: %q", s)
	}
}

// MarshalJSON encodes the kind as its wire name.
func (k RelationKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON decodes the kind from its wire name.
func (k *RelationKind) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("relation kind must be a string")
	}
	kind, err := ParseRelationKind(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Reciprocal returns the kind stored on the other side of a symmetric edge.
// Parent/child mirror each other; spouse and sibling are their own mirror.
func (k RelationKind) Reciprocal() RelationKind {
	switch k {
	case RelationParent:
		return RelationChild
	case RelationChild:
		return RelationParent
	default:
		return k
	}
}

// RelationshipRecord is the persisted form of one symmetric edge, as sent to
// the backend relationships API.
type RelationshipRecord struct {
	PersonOneID valueobjects.PersonID `json:"person_one_id"`
	PersonTwoID valueobjects.PersonID `json:"person_two_id"`
	Type        RelationKind          `json:"relationship_type"`
}
