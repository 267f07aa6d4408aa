package valueobjects

import (
	"strings"

	"github.com/google/uuid"
)

// tempIDPrefix marks identifiers minted locally before the backend has
// assigned a permanent one.
const tempIDPrefix = "tmp-"

// PersonID identifies a person node in the family graph.
// A temporary ID is assigned at creation time and later reconciled to the
// backend-assigned permanent ID.
type PersonID string

// NewTempPersonID creates a new locally-generated temporary PersonID.
func NewTempPersonID() PersonID {
	return PersonID(tempIDPrefix + uuid.New().String())
}

// String returns the string representation.
func (id PersonID) String() string {
	return string(id)
}

// IsTemp reports whether the ID is a local placeholder awaiting
// backend reconciliation.
func (id PersonID) IsTemp() bool {
	return strings.HasPrefix(string(id), tempIDPrefix)
}

// IsZero reports whether the ID is unset.
func (id PersonID) IsZero() bool {
	return id == ""
}
