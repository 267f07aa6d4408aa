package entities

import (
	"time"

	"kintree/domain/core/valueobjects"
	pkgerrors "kintree/pkg/errors"
)

// Person is a node in the family graph. Relationships are stored as adjacency
// lists of person IDs; there is no separate edge entity. Every edge is
// symmetric: if A lists B as parent, B lists A as child, and likewise for
// spouse and sibling edges.
type Person struct {
	ID        valueobjects.PersonID `json:"id"`
	Name      string                `json:"name"`
	BirthDate string                `json:"birth_date,omitempty"`
	DeathDate string                `json:"death_date,omitempty"`
	Gender    string                `json:"gender,omitempty"`
	PhotoURL  string                `json:"photo_url,omitempty"`
	Bio       string                `json:"bio,omitempty"`
	Phone     string                `json:"phone,omitempty"`

	ParentIDs  []valueobjects.PersonID `json:"parent_ids"`
	ChildIDs   []valueobjects.PersonID `json:"child_ids"`
	SpouseIDs  []valueobjects.PersonID `json:"spouse_ids"`
	SiblingIDs []valueobjects.PersonID `json:"sibling_ids"`

	// LinkedAccountID distinguishes a claimed profile from a shadow profile
	// maintained collaboratively by other users.
	LinkedAccountID string `json:"linked_account_id,omitempty"`

	// Placeholder hides the node from traversal without removing it,
	// e.g. while a block flow is pending.
	Placeholder bool `json:"placeholder,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// PersonData carries the profile fields supplied when creating or editing a
// person; identity, relationships and bookkeeping are managed by the store.
type PersonData struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	BirthDate       string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DeathDate       string `json:"death_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender,omitempty" validate:"omitempty,max=30"`
	PhotoURL        string `json:"photo_url,omitempty" validate:"omitempty,url"`
	Bio             string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=30"`
	LinkedAccountID string `json:"linked_account_id,omitempty"`
}

// NewPerson creates a person with a fresh temporary ID and empty adjacency
// lists, visible to callers before any network round trip completes.
func NewPerson(data PersonData, actorID string) (*Person, error) {
	if data.Name == "" {
		return nil, pkgerrors.NewValidationError("name cannot be empty")
	}

	now := time.Now()
	return &Person{
		ID:              valueobjects.NewTempPersonID(),
		Name:            data.Name,
		BirthDate:       data.BirthDate,
		DeathDate:       data.DeathDate,
		Gender:          data.Gender,
		PhotoURL:        data.PhotoURL,
		Bio:             data.Bio,
		Phone:           data.Phone,
		LinkedAccountID: data.LinkedAccountID,
		ParentIDs:       []valueobjects.PersonID{},
		ChildIDs:        []valueobjects.PersonID{},
		SpouseIDs:       []valueobjects.PersonID{},
		SiblingIDs:      []valueobjects.PersonID{},
		CreatedBy:       actorID,
		UpdatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}, nil
}

// IsShadow reports whether the profile has no linked authenticated account.
func (p *Person) IsShadow() bool {
	return p.LinkedAccountID == ""
}

// RelativeIDs returns the adjacency list for the given relation kind.
// The returned slice is the backing array; callers that hold a shared
// instance must not mutate it.
func (p *Person) RelativeIDs(kind RelationKind) []valueobjects.PersonID {
	switch kind {
	case RelationParent:
		return p.ParentIDs
	case RelationChild:
		return p.ChildIDs
	case RelationSpouse:
		return p.SpouseIDs
	case RelationSibling:
		return p.SiblingIDs
	default:
		return nil
	}
}

// HasRelative reports whether id is already listed under the given kind.
func (p *Person) HasRelative(kind RelationKind, id valueobjects.PersonID) bool {
	for _, existing := range p.RelativeIDs(kind) {
		if existing == id {
			return true
		}
	}
	return false
}

// AddRelative appends id to the adjacency list for kind, preserving set
// semantics. Self-loops and duplicates are rejected; the return value reports
// whether the list changed.
func (p *Person) AddRelative(kind RelationKind, id valueobjects.PersonID) bool {
	if id == p.ID || p.HasRelative(kind, id) {
		return false
	}
	switch kind {
	case RelationParent:
		p.ParentIDs = append(p.ParentIDs, id)
	case RelationChild:
		p.ChildIDs = append(p.ChildIDs, id)
	case RelationSpouse:
		p.SpouseIDs = append(p.SpouseIDs, id)
	case RelationSibling:
		p.SiblingIDs = append(p.SiblingIDs, id)
	default:
		return false
	}
	return true
}

// ReplaceRelativeID rewrites every occurrence of old across all four
// adjacency lists, returning true if anything changed. Used when a temporary
// ID is reconciled to its backend-assigned permanent ID.
func (p *Person) ReplaceRelativeID(old, replacement valueobjects.PersonID) bool {
	changed := false
	for _, ids := range [][]valueobjects.PersonID{p.ParentIDs, p.ChildIDs, p.SpouseIDs, p.SiblingIDs} {
		for i, id := range ids {
			if id == old {
				ids[i] = replacement
				changed = true
			}
		}
	}
	return changed
}

// ApplyProfile overwrites the editable profile fields from data and bumps the
// optimistic-concurrency version.
func (p *Person) ApplyProfile(data PersonData, actorID string) error {
	if data.Name == "" {
		return pkgerrors.NewValidationError("name cannot be empty")
	}
	p.Name = data.Name
	p.BirthDate = data.BirthDate
	p.DeathDate = data.DeathDate
	p.Gender = data.Gender
	p.PhotoURL = data.PhotoURL
	p.Bio = data.Bio
	p.Phone = data.Phone
	p.Touch(actorID)
	return nil
}

// Touch records a mutation: bumps the version counter and update timestamp.
func (p *Person) Touch(actorID string) {
	p.Version++
	p.UpdatedAt = time.Now()
	if actorID != "" {
		p.UpdatedBy = actorID
	}
}

// Clone returns a deep copy. The store hands out and snapshots clones so that
// no caller can mutate canonical state in place.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	clone := *p
	clone.ParentIDs = cloneIDs(p.ParentIDs)
	clone.ChildIDs = cloneIDs(p.ChildIDs)
	clone.SpouseIDs = cloneIDs(p.SpouseIDs)
	clone.SiblingIDs = cloneIDs(p.SiblingIDs)
	return &clone
}

func cloneIDs(ids []valueobjects.PersonID) []valueobjects.PersonID {
	out := make([]valueobjects.PersonID, len(ids))
	copy(out, ids)
	return out
}
