package services

import (
	"context"

	"go.uber.org/zap"

	"kintree/application/ports"
	domaincfg "kintree/domain/config"
	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
	"kintree/pkg/errors"
	"kintree/pkg/observability"
)

// RelationshipService creates and queries the four relation types while
// preserving bidirectional consistency: both sides of an edge are written in
// one store transaction, and a failed backend persist rolls back exactly the
// records the mutation touched.
type RelationshipService struct {
	store   *EntityStore
	backend ports.PeopleBackend
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     func() *domaincfg.DomainConfig
}

// NewRelationshipService creates a relationship service over the given store.
// cfg may be nil, in which case the default business rules apply.
func NewRelationshipService(store *EntityStore, backend ports.PeopleBackend, logger *zap.Logger, metrics *observability.Metrics, cfg func() *domaincfg.DomainConfig) *RelationshipService {
	if cfg == nil {
		cfg = domaincfg.DefaultDomainConfig
	}
	return &RelationshipService{
		store:   store,
		backend: backend,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// AddParent records that parentID is a parent of childID.
func (s *RelationshipService) AddParent(ctx context.Context, childID, parentID valueobjects.PersonID, actorID string) error {
	return s.AddRelation(ctx, entities.RelationParent, childID, parentID, actorID)
}

// AddChild records that childID is a child of parentID.
func (s *RelationshipService) AddChild(ctx context.Context, parentID, childID valueobjects.PersonID, actorID string) error {
	return s.AddRelation(ctx, entities.RelationChild, parentID, childID, actorID)
}

// AddSpouse records a spouse edge between the two people.
func (s *RelationshipService) AddSpouse(ctx context.Context, personID, spouseID valueobjects.PersonID, actorID string) error {
	return s.AddRelation(ctx, entities.RelationSpouse, personID, spouseID, actorID)
}

// AddSibling records a direct sibling edge between the two people. If either
// party already has recorded parents, the other is retroactively linked as a
// child of those parents, keeping "siblings share parents" consistent with
// the direct edge.
func (s *RelationshipService) AddSibling(ctx context.Context, personID, siblingID valueobjects.PersonID, actorID string) error {
	return s.AddRelation(ctx, entities.RelationSibling, personID, siblingID, actorID)
}

// AddRelation applies one symmetric edge of the given kind from fromID to
// toID. Unknown IDs, self-relations, and duplicate edges are logged no-ops;
// only a backend persistence failure rolls back the optimistic local
// mutation and surfaces an error.
func (s *RelationshipService) AddRelation(ctx context.Context, kind entities.RelationKind, fromID, toID valueobjects.PersonID, actorID string) error {
	from, ok := s.store.GetPerson(fromID)
	if !ok {
		s.logger.Warn("relation rejected, person not found",
			zap.String("personID", fromID.String()),
			zap.String("kind", kind.String()),
		)
		return nil
	}
	to, ok := s.store.GetPerson(toID)
	if !ok {
		s.logger.Warn("relation rejected, person not found",
			zap.String("personID", toID.String()),
			zap.String("kind", kind.String()),
		)
		return nil
	}

	if from.ID == to.ID {
		s.logger.Warn("self-relation rejected",
			zap.String("personID", from.ID.String()),
			zap.String("kind", kind.String()),
		)
		return nil
	}

	if from.HasRelative(kind, to.ID) {
		s.logger.Debug("relation already exists",
			zap.String("from", from.ID.String()),
			zap.String("to", to.ID.String()),
			zap.String("kind", kind.String()),
		)
		return nil
	}

	if limit := s.cfg().MaxRelativesPerPerson; len(from.RelativeIDs(kind)) >= limit {
		s.logger.Warn("relation rejected, relative limit reached",
			zap.String("personID", from.ID.String()),
			zap.String("kind", kind.String()),
			zap.Int("limit", limit),
		)
		return nil
	}

	// Working copies of every record this mutation will touch. For sibling
	// edges that includes the recorded parents of both parties.
	working := map[valueobjects.PersonID]*entities.Person{
		from.ID: from,
		to.ID:   to,
	}
	touched := []valueobjects.PersonID{from.ID, to.ID}
	if kind == entities.RelationSibling {
		for _, parentID := range append(append([]valueobjects.PersonID(nil), from.ParentIDs...), to.ParentIDs...) {
			if _, seen := working[parentID]; seen {
				continue
			}
			if parent, ok := s.store.GetPerson(parentID); ok {
				working[parent.ID] = parent
				touched = append(touched, parent.ID)
			}
		}
	}

	snapshot := s.store.snapshot(touched...)

	from.AddRelative(kind, to.ID)
	to.AddRelative(kind.Reciprocal(), from.ID)
	from.Touch(actorID)
	to.Touch(actorID)

	if kind == entities.RelationSibling {
		s.backfillSharedParents(working, from, to, actorID)
		s.backfillSharedParents(working, to, from, actorID)
	}

	s.store.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		for id, p := range working {
			people[id] = p
		}
	})
	s.metrics.RecordMutation("add_" + kind.String())

	if actorID == "" {
		s.logger.Warn("no actor identity, relation kept local-only",
			zap.String("from", from.ID.String()),
			zap.String("to", to.ID.String()),
			zap.String("kind", kind.String()),
		)
		return nil
	}

	record := entities.RelationshipRecord{
		PersonOneID: from.ID,
		PersonTwoID: to.ID,
		Type:        kind,
	}
	if _, err := s.backend.CreateRelationship(ctx, actorID, record); err != nil {
		s.store.restore(snapshot)
		s.metrics.RecordPersistFailure("create_relationship")
		s.logger.Error("relation persistence failed, rolled back",
			zap.String("from", from.ID.String()),
			zap.String("to", to.ID.String()),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		return errors.Wrap(err, "persist relationship")
	}

	return nil
}

// backfillSharedParents links other as a child of every recorded parent of
// person, so derived sibling queries stay consistent with the direct edge.
func (s *RelationshipService) backfillSharedParents(working map[valueobjects.PersonID]*entities.Person, person, other *entities.Person, actorID string) {
	for _, parentID := range person.ParentIDs {
		parent, ok := working[parentID]
		if !ok {
			continue
		}
		added := parent.AddRelative(entities.RelationChild, other.ID)
		if other.AddRelative(entities.RelationParent, parent.ID) {
			added = true
		}
		if added {
			parent.Touch(actorID)
		}
	}
}

// GetSiblings returns the union of people directly listed as siblings and,
// for every recorded parent, that parent's other children. The model keeps
// both mechanisms: a direct edge records known siblings with absent parents,
// shared parentage implies the rest. De-duplicated by ID, self excluded.
func (s *RelationshipService) GetSiblings(id valueobjects.PersonID) []*entities.Person {
	person, ok := s.store.GetPerson(id)
	if !ok {
		return nil
	}

	seen := map[valueobjects.PersonID]bool{person.ID: true}
	siblings := []*entities.Person{}

	appendSibling := func(sibID valueobjects.PersonID) {
		if seen[sibID] {
			return
		}
		if sib, ok := s.store.GetPerson(sibID); ok {
			// GetPerson resolves temp IDs, so mark the resolved ID too.
			if seen[sib.ID] {
				return
			}
			seen[sibID] = true
			seen[sib.ID] = true
			siblings = append(siblings, sib)
		}
	}

	for _, sibID := range person.SiblingIDs {
		appendSibling(sibID)
	}
	for _, parentID := range person.ParentIDs {
		parent, ok := s.store.GetPerson(parentID)
		if !ok {
			continue
		}
		for _, childID := range parent.ChildIDs {
			appendSibling(childID)
		}
	}

	return siblings
}

// CountAncestors returns the number of unique people reachable by following
// parent edges upward from the given person, self excluded.
func (s *RelationshipService) CountAncestors(id valueobjects.PersonID) int {
	return s.countReachable(id, entities.RelationParent)
}

// CountDescendants returns the number of unique people reachable by
// following child edges downward from the given person, self excluded.
func (s *RelationshipService) CountDescendants(id valueobjects.PersonID) int {
	return s.countReachable(id, entities.RelationChild)
}

// countReachable is a direction-parameterized breadth-first traversal
// following the given adjacency, with each visited person expanded to
// include their siblings, matching what the generation projection emits.
// The visited set both de-duplicates and defends against cycles: the data
// model is meant to be acyclic, but the traversal must not loop if it is
// not. Placeholder (hidden) nodes are skipped.
func (s *RelationshipService) countReachable(id valueobjects.PersonID, kind entities.RelationKind) int {
	start, ok := s.store.GetPerson(id)
	if !ok {
		return 0
	}

	visited := map[valueobjects.PersonID]bool{start.ID: true}
	queue := append([]valueobjects.PersonID(nil), start.RelativeIDs(kind)...)
	count := 0

	for len(queue) > 0 {
		nextID := queue[0]
		queue = queue[1:]

		person, ok := s.store.GetPerson(nextID)
		if !ok || visited[person.ID] {
			continue
		}
		visited[person.ID] = true
		if person.Placeholder {
			continue
		}
		count++
		queue = append(queue, person.RelativeIDs(kind)...)
		for _, sibling := range s.GetSiblings(person.ID) {
			queue = append(queue, sibling.ID)
		}
	}

	return count
}
