package queries

import (
	"sync"

	"go.uber.org/zap"

	"kintree/application/ports"
	"kintree/application/services"
	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
)

// TreeProjector derives, from the current graph and a chosen ego, the ordered
// ancestor and descendant generations used to lay out the tree. It owns no
// graph state: the projection is a pure function of the store's contents plus
// the ego ID, memoized against a content signature of the graph.
type TreeProjector struct {
	store  ports.GraphReader
	rels   *services.RelationshipService
	logger *zap.Logger

	mu   sync.Mutex
	memo *projection
}

// projection caches one computed layout together with the graph state it was
// derived from. A node count alone is not a sufficient staleness check, so
// the store's content signature is recorded as well.
type projection struct {
	egoID       valueobjects.PersonID
	count       int
	signature   uint64
	ancestors   [][]*entities.Person
	descendants [][]*entities.Person
}

// NewTreeProjector creates a projector over the given store.
func NewTreeProjector(store ports.GraphReader, rels *services.RelationshipService, logger *zap.Logger) *TreeProjector {
	return &TreeProjector{
		store:  store,
		rels:   rels,
		logger: logger,
	}
}

// AncestorGenerations returns the ancestor generations of ego, oldest first.
// An absent ego yields an empty slice: that is the not-yet-loaded state, not
// an error.
func (p *TreeProjector) AncestorGenerations(egoID valueobjects.PersonID) [][]*entities.Person {
	ancestors, _ := p.Generations(egoID)
	return ancestors
}

// DescendantGenerations returns the descendant generations of ego, youngest
// (closest to ego) first.
func (p *TreeProjector) DescendantGenerations(egoID valueobjects.PersonID) [][]*entities.Person {
	_, descendants := p.Generations(egoID)
	return descendants
}

// Generations returns both projections, recomputing only when the ego, the
// node count, or the graph's content signature has changed since the last
// call.
func (p *TreeProjector) Generations(egoID valueobjects.PersonID) (ancestors, descendants [][]*entities.Person) {
	count := p.store.Len()
	signature := p.store.Signature()

	p.mu.Lock()
	defer p.mu.Unlock()

	if m := p.memo; m != nil && m.egoID == egoID && m.count == count && m.signature == signature {
		return m.ancestors, m.descendants
	}

	ancestors = [][]*entities.Person{}
	descendants = [][]*entities.Person{}

	if ego, ok := p.store.GetPerson(egoID); ok {
		ancestors = p.generations(ego, entities.RelationParent)
		// The traversal yields ancestors youngest-first; display order is
		// oldest-first. Descendants stay in traversal order.
		reverseGenerations(ancestors)
		descendants = p.generations(ego, entities.RelationChild)
	} else if !egoID.IsZero() {
		p.logger.Debug("projection requested for unknown ego", zap.String("egoID", egoID.String()))
	}

	p.memo = &projection{
		egoID:       egoID,
		count:       count,
		signature:   signature,
		ancestors:   ancestors,
		descendants: descendants,
	}
	return ancestors, descendants
}

// generations walks the graph away from ego along the given adjacency, one
// generation at a time. Each generation is sibling-expanded, and a visited
// set accumulated across the whole traversal guarantees termination and
// keeps a person out of more than one generation under remarriage-driven
// graph shapes.
func (p *TreeProjector) generations(ego *entities.Person, kind entities.RelationKind) [][]*entities.Person {
	visited := map[valueobjects.PersonID]bool{ego.ID: true}
	result := [][]*entities.Person{}

	current := p.expand(p.collect(ego.RelativeIDs(kind), visited), visited)
	for len(current) > 0 {
		result = append(result, current)

		var rawNext []valueobjects.PersonID
		for _, member := range current {
			rawNext = append(rawNext, member.RelativeIDs(kind)...)
		}
		current = p.expand(p.collect(rawNext, visited), visited)
	}

	return result
}

// collect resolves IDs into generation members in insertion order, skipping
// unknown IDs, hidden placeholder nodes, and anything already visited.
func (p *TreeProjector) collect(ids []valueobjects.PersonID, visited map[valueobjects.PersonID]bool) []*entities.Person {
	members := []*entities.Person{}
	for _, id := range ids {
		person, ok := p.store.GetPerson(id)
		if !ok || visited[person.ID] {
			continue
		}
		visited[person.ID] = true
		if person.Placeholder {
			continue
		}
		members = append(members, person)
	}
	return members
}

// expand grows a generation to its sibling closure: base members first, then
// their siblings, then siblings of those, until a fixed point. Order within
// the generation is insertion order, which is an implementation convenience
// rather than a product guarantee.
func (p *TreeProjector) expand(base []*entities.Person, visited map[valueobjects.PersonID]bool) []*entities.Person {
	generation := append([]*entities.Person(nil), base...)

	for i := 0; i < len(generation); i++ {
		for _, sibling := range p.rels.GetSiblings(generation[i].ID) {
			if visited[sibling.ID] {
				continue
			}
			visited[sibling.ID] = true
			if sibling.Placeholder {
				continue
			}
			generation = append(generation, sibling)
		}
	}

	return generation
}

func reverseGenerations(generations [][]*entities.Person) {
	for i, j := 0, len(generations)-1; i < j; i, j = i+1, j-1 {
		generations[i], generations[j] = generations[j], generations[i]
	}
}
