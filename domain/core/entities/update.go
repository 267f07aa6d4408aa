package entities

import (
	"time"

	"kintree/domain/core/valueobjects"
)

// UpdateType classifies a timeline entry.
type UpdateType string

const (
	UpdatePhoto UpdateType = "photo"
	UpdateStory UpdateType = "story"
)

// Update is a timeline entry (photo or story) attached to a person. It is not
// part of the graph proper; it references people by ID and can tag others.
type Update struct {
	ID              string                  `json:"id"`
	PersonID        valueobjects.PersonID   `json:"person_id"`
	AuthorID        string                  `json:"author_id,omitempty"`
	Type            UpdateType              `json:"type"`
	Caption         string                  `json:"caption,omitempty"`
	Body            string                  `json:"body,omitempty"`
	PhotoURL        string                  `json:"photo_url,omitempty"`
	TaggedPersonIDs []valueobjects.PersonID `json:"tagged_person_ids,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// Mentions reports whether the update is attached to or tags the given person.
func (u *Update) Mentions(id valueobjects.PersonID) bool {
	if u.PersonID == id {
		return true
	}
	for _, tagged := range u.TaggedPersonIDs {
		if tagged == id {
			return true
		}
	}
	return false
}

// RewriteID replaces every occurrence of old with replacement, for temp-ID
// reconciliation. Returns true if anything changed.
func (u *Update) RewriteID(old, replacement valueobjects.PersonID) bool {
	changed := false
	if u.PersonID == old {
		u.PersonID = replacement
		changed = true
	}
	for i, tagged := range u.TaggedPersonIDs {
		if tagged == old {
			u.TaggedPersonIDs[i] = replacement
			changed = true
		}
	}
	return changed
}
