package supabase

import (
	"context"
	"time"

	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"kintree/application/ports"
	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
	pkgerrors "kintree/pkg/errors"
)

const (
	peopleTable        = "people"
	relationshipsTable = "relationships"
	updatesTable       = "updates"
)

// PeopleBackend implements ports.PeopleBackend over a Supabase project.
// Row visibility is scoped by the project's row-level-security policies; the
// actor identity is recorded on writes and used for audit columns.
type PeopleBackend struct {
	client *supa.Client
	logger *zap.Logger
}

var _ ports.PeopleBackend = (*PeopleBackend)(nil)

// NewPeopleBackend creates the backend client.
func NewPeopleBackend(url, apiKey string, logger *zap.Logger) (*PeopleBackend, error) {
	client, err := supa.NewClient(url, apiKey, &supa.ClientOptions{})
	if err != nil {
		return nil, pkgerrors.NewExternalError("supabase", err)
	}
	return &PeopleBackend{client: client, logger: logger}, nil
}

// personRow is the wire shape of a people-table row.
type personRow struct {
	ID              string    `json:"id,omitempty"`
	Name            string    `json:"name"`
	BirthDate       string    `json:"birth_date,omitempty"`
	DeathDate       string    `json:"death_date,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	ParentIDs       []string  `json:"parent_ids"`
	ChildIDs        []string  `json:"child_ids"`
	SpouseIDs       []string  `json:"spouse_ids"`
	SiblingIDs      []string  `json:"sibling_ids"`
	LinkedAccountID string    `json:"linked_account_id,omitempty"`
	Placeholder     bool      `json:"placeholder"`
	CreatedBy       string    `json:"created_by,omitempty"`
	UpdatedBy       string    `json:"updated_by,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
	Version         int       `json:"version"`
}

// relationshipRow is the wire shape of a relationships-table row.
type relationshipRow struct {
	ID               string `json:"id,omitempty"`
	PersonOneID      string `json:"person_one_id"`
	PersonTwoID      string `json:"person_two_id"`
	RelationshipType string `json:"relationship_type"`
	CreatedBy        string `json:"created_by,omitempty"`
}

// updateRow is the wire shape of an updates-table row.
type updateRow struct {
	ID              string    `json:"id"`
	PersonID        string    `json:"person_id"`
	AuthorID        string    `json:"author_id,omitempty"`
	Type            string    `json:"type"`
	Caption         string    `json:"caption,omitempty"`
	Body            string    `json:"body,omitempty"`
	PhotoURL        string    `json:"photo_url,omitempty"`
	TaggedPersonIDs []string  `json:"tagged_person_ids"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// CreatePerson inserts the person and returns the stored row, including the
// backend-assigned permanent ID. The caller's temporary ID is never sent.
func (b *PeopleBackend) CreatePerson(ctx context.Context, person *entities.Person, actorID string) (*entities.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := toPersonRow(person)
	row.ID = "" // server assigns
	row.CreatedBy = actorID
	row.UpdatedBy = actorID

	var inserted []personRow
	_, err := b.client.From(peopleTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return nil, pkgerrors.NewExternalError("people backend", err)
	}
	if len(inserted) == 0 {
		return nil, pkgerrors.NewExternalError("people backend", nil).WithCode("EMPTY_INSERT_RESULT")
	}

	b.logger.Debug("person persisted",
		zap.String("personID", inserted[0].ID),
		zap.String("name", person.Name),
	)
	return fromPersonRow(inserted[0]), nil
}

// CreateRelationship inserts one symmetric edge and returns its row ID.
func (b *PeopleBackend) CreateRelationship(ctx context.Context, actorID string, rel entities.RelationshipRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	row := relationshipRow{
		PersonOneID:      rel.PersonOneID.String(),
		PersonTwoID:      rel.PersonTwoID.String(),
		RelationshipType: rel.Type.String(),
		CreatedBy:        actorID,
	}

	var inserted []relationshipRow
	_, err := b.client.From(relationshipsTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return "", pkgerrors.NewExternalError("people backend", err)
	}
	if len(inserted) == 0 {
		return "", pkgerrors.NewExternalError("people backend", nil).WithCode("EMPTY_INSERT_RESULT")
	}
	return inserted[0].ID, nil
}

// GetAllPeople fetches every person row visible to the actor.
func (b *PeopleBackend) GetAllPeople(ctx context.Context, actorID string) ([]*entities.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []personRow
	_, err := b.client.From(peopleTable).
		Select("*", "", false).
		ExecuteTo(&rows)
	if err != nil {
		return nil, pkgerrors.NewExternalError("people backend", err)
	}

	people := make([]*entities.Person, 0, len(rows))
	for _, row := range rows {
		people = append(people, fromPersonRow(row))
	}
	return people, nil
}

// GetAllUpdates fetches every timeline update visible to the actor.
func (b *PeopleBackend) GetAllUpdates(ctx context.Context, actorID string) ([]*entities.Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []updateRow
	_, err := b.client.From(updatesTable).
		Select("*", "", false).
		ExecuteTo(&rows)
	if err != nil {
		return nil, pkgerrors.NewExternalError("people backend", err)
	}

	updates := make([]*entities.Update, 0, len(rows))
	for _, row := range rows {
		updates = append(updates, fromUpdateRow(row))
	}
	return updates, nil
}

func toPersonRow(p *entities.Person) personRow {
	return personRow{
		ID:              p.ID.String(),
		Name:            p.Name,
		BirthDate:       p.BirthDate,
		DeathDate:       p.DeathDate,
		Gender:          p.Gender,
		PhotoURL:        p.PhotoURL,
		Bio:             p.Bio,
		Phone:           p.Phone,
		ParentIDs:       idsToStrings(p.ParentIDs),
		ChildIDs:        idsToStrings(p.ChildIDs),
		SpouseIDs:       idsToStrings(p.SpouseIDs),
		SiblingIDs:      idsToStrings(p.SiblingIDs),
		LinkedAccountID: p.LinkedAccountID,
		Placeholder:     p.Placeholder,
		CreatedBy:       p.CreatedBy,
		UpdatedBy:       p.UpdatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Version:         p.Version,
	}
}

func fromPersonRow(row personRow) *entities.Person {
	return &entities.Person{
		ID:              valueobjects.PersonID(row.ID),
		Name:            row.Name,
		BirthDate:       row.BirthDate,
		DeathDate:       row.DeathDate,
		Gender:          row.Gender,
		PhotoURL:        row.PhotoURL,
		Bio:             row.Bio,
		Phone:           row.Phone,
		ParentIDs:       stringsToIDs(row.ParentIDs),
		ChildIDs:        stringsToIDs(row.ChildIDs),
		SpouseIDs:       stringsToIDs(row.SpouseIDs),
		SiblingIDs:      stringsToIDs(row.SiblingIDs),
		LinkedAccountID: row.LinkedAccountID,
		Placeholder:     row.Placeholder,
		CreatedBy:       row.CreatedBy,
		UpdatedBy:       row.UpdatedBy,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		Version:         row.Version,
	}
}

func fromUpdateRow(row updateRow) *entities.Update {
	return &entities.Update{
		ID:              row.ID,
		PersonID:        valueobjects.PersonID(row.PersonID),
		AuthorID:        row.AuthorID,
		Type:            entities.UpdateType(row.Type),
		Caption:         row.Caption,
		Body:            row.Body,
		PhotoURL:        row.PhotoURL,
		TaggedPersonIDs: stringsToIDs(row.TaggedPersonIDs),
		CreatedAt:       row.CreatedAt,
	}
}

func idsToStrings(ids []valueobjects.PersonID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToIDs(ids []string) []valueobjects.PersonID {
	out := make([]valueobjects.PersonID, len(ids))
	for i, id := range ids {
		out[i] = valueobjects.PersonID(id)
	}
	return out
}
