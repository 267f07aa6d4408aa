package services

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"kintree/application/ports"
	domaincfg "kintree/domain/config"
	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
	pkgerrors "kintree/pkg/errors"
	"kintree/pkg/observability"
)

// persistTimeout bounds the background backend call for an optimistic create.
const persistTimeout = 30 * time.Second

// EntityStore is the single source of truth for all person records during a
// session. Every mutation installs a brand-new map instance so subscribers
// can detect change by reference, and all state is guarded by one mutex so
// no reader ever observes a half-applied edge.
type EntityStore struct {
	mu         sync.RWMutex
	people     map[valueobjects.PersonID]*entities.Person
	tempToReal map[valueobjects.PersonID]valueobjects.PersonID
	updates    []*entities.Update

	backend ports.PeopleBackend
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     func() *domaincfg.DomainConfig

	subMu       sync.Mutex
	subscribers []func()

	pending sync.WaitGroup
}

var _ ports.GraphReader = (*EntityStore)(nil)

// NewEntityStore creates an empty store backed by the given persistence
// port. cfg may be nil, in which case the default business rules apply.
func NewEntityStore(backend ports.PeopleBackend, logger *zap.Logger, metrics *observability.Metrics, cfg func() *domaincfg.DomainConfig) *EntityStore {
	if cfg == nil {
		cfg = domaincfg.DefaultDomainConfig
	}
	return &EntityStore{
		people:     make(map[valueobjects.PersonID]*entities.Person),
		tempToReal: make(map[valueobjects.PersonID]valueobjects.PersonID),
		backend:    backend,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// Subscribe registers a callback invoked after every committed mutation.
// Callbacks run outside the store lock and must not block.
func (s *EntityStore) Subscribe(fn func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *EntityStore) notify() {
	s.subMu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// mutate copies the current map, applies fn to the copy, and installs the
// copy as the new canonical map. Subscribers are notified after the lock is
// released.
func (s *EntityStore) mutate(fn func(people map[valueobjects.PersonID]*entities.Person)) {
	s.mu.Lock()
	next := make(map[valueobjects.PersonID]*entities.Person, len(s.people)+1)
	for id, p := range s.people {
		next[id] = p
	}
	fn(next)
	s.people = next
	s.mu.Unlock()

	s.notify()
}

// resolveID maps a temporary ID to its permanent ID when a mapping exists.
// Caller must hold at least a read lock.
func (s *EntityStore) resolveID(id valueobjects.PersonID) valueobjects.PersonID {
	if real, ok := s.tempToReal[id]; ok {
		return real
	}
	return id
}

// GetPerson resolves a temporary ID to its permanent ID first, then looks the
// person up. It never fails; a false result means "not found". The returned
// record is a clone, so callers cannot mutate canonical state.
func (s *EntityStore) GetPerson(id valueobjects.PersonID) (*entities.Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[s.resolveID(id)]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// AddPerson constructs a person with a fresh temporary ID and inserts it
// immediately, so callers see it before any network round trip. With an actor
// identity the record is persisted in the background and its temporary ID
// reconciled to the backend-assigned one; without an actor the write degrades
// to local-only state.
func (s *EntityStore) AddPerson(ctx context.Context, data entities.PersonData, actorID string) (valueobjects.PersonID, error) {
	if data.LinkedAccountID == "" && !s.cfg().AllowShadowProfiles {
		return "", pkgerrors.NewValidationError("shadow profiles are disabled")
	}

	person, err := entities.NewPerson(data, actorID)
	if err != nil {
		return "", err
	}

	s.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		people[person.ID] = person
	})
	s.metrics.RecordMutation("add_person")

	if actorID == "" {
		s.logger.Warn("no actor identity, person kept local-only",
			zap.String("personID", person.ID.String()),
			zap.String("name", person.Name),
		)
		return person.ID, nil
	}

	s.pending.Add(1)
	go s.persistNewPerson(context.WithoutCancel(ctx), person.ID, actorID)

	return person.ID, nil
}

func (s *EntityStore) persistNewPerson(ctx context.Context, tempID valueobjects.PersonID, actorID string) {
	defer s.pending.Done()

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	local, ok := s.GetPerson(tempID)
	if !ok {
		return
	}

	created, err := s.backend.CreatePerson(ctx, local, actorID)
	if err != nil {
		// The temporary record stays visible but unsynced; no temp-to-real
		// mapping is recorded.
		s.metrics.RecordPersistFailure("create_person")
		s.logger.Warn("person persistence failed, keeping local record",
			zap.String("personID", tempID.String()),
			zap.Error(err),
		)
		return
	}

	s.ReconcileTempID(tempID, created.ID)
}

// ReconcileTempID remaps a temporary ID to the backend-assigned permanent ID
// everywhere it appears: the record itself, every other person's relationship
// arrays, and timeline updates. Relationships created while the create was
// still in flight must not end up pointing at a dead ID.
func (s *EntityStore) ReconcileTempID(tempID, realID valueobjects.PersonID) {
	s.mu.Lock()
	record, ok := s.people[tempID]
	if !ok || tempID == realID {
		s.mu.Unlock()
		return
	}

	next := make(map[valueobjects.PersonID]*entities.Person, len(s.people))
	for id, p := range s.people {
		if id == tempID {
			continue
		}
		if p.HasRelative(entities.RelationParent, tempID) ||
			p.HasRelative(entities.RelationChild, tempID) ||
			p.HasRelative(entities.RelationSpouse, tempID) ||
			p.HasRelative(entities.RelationSibling, tempID) {
			rewritten := p.Clone()
			rewritten.ReplaceRelativeID(tempID, realID)
			next[id] = rewritten
			continue
		}
		next[id] = p
	}

	reconciled := record.Clone()
	reconciled.ID = realID
	next[realID] = reconciled

	for i, u := range s.updates {
		if u.Mentions(tempID) {
			rewritten := *u
			rewritten.TaggedPersonIDs = append([]valueobjects.PersonID(nil), u.TaggedPersonIDs...)
			rewritten.RewriteID(tempID, realID)
			s.updates[i] = &rewritten
		}
	}

	s.people = next
	s.tempToReal[tempID] = realID
	s.mu.Unlock()

	s.metrics.Reconciliations.Inc()
	s.logger.Debug("temporary ID reconciled",
		zap.String("tempID", tempID.String()),
		zap.String("realID", realID.String()),
	)
	s.notify()
}

// SetPeople bulk-replaces the entire map, used by full sync. A new map
// instance is produced on every call even when the contents are similar.
func (s *EntityStore) SetPeople(people []*entities.Person) {
	next := make(map[valueobjects.PersonID]*entities.Person, len(people))
	for _, p := range people {
		if p == nil || p.ID.IsZero() {
			continue
		}
		next[p.ID] = p.Clone()
	}

	s.mu.Lock()
	s.people = next
	s.mu.Unlock()

	s.metrics.RecordMutation("set_people")
	s.notify()
}

// SetUpdates replaces the timeline-update set, used by full sync.
func (s *EntityStore) SetUpdates(updates []*entities.Update) {
	s.mu.Lock()
	s.updates = append([]*entities.Update(nil), updates...)
	s.mu.Unlock()

	s.notify()
}

// UpdatePerson replaces a record wholesale, used when reconciling
// server-authoritative data. Unknown IDs are logged and ignored.
func (s *EntityStore) UpdatePerson(person *entities.Person) {
	if person == nil {
		return
	}

	s.mu.RLock()
	id := s.resolveID(person.ID)
	_, exists := s.people[id]
	s.mu.RUnlock()

	if !exists {
		s.logger.Warn("updatePerson for unknown record", zap.String("personID", person.ID.String()))
		return
	}

	replacement := person.Clone()
	replacement.ID = id
	s.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		people[id] = replacement
	})
	s.metrics.RecordMutation("update_person")
}

// UpdateProfile applies editable profile fields to an existing person,
// bumping its version and update timestamp.
func (s *EntityStore) UpdateProfile(id valueobjects.PersonID, data entities.PersonData, actorID string) error {
	current, ok := s.GetPerson(id)
	if !ok {
		s.logger.Warn("updateProfile for unknown person", zap.String("personID", id.String()))
		return nil
	}

	if err := current.ApplyProfile(data, actorID); err != nil {
		return err
	}

	s.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		people[current.ID] = current
	})
	s.metrics.RecordMutation("update_profile")
	return nil
}

// RemovePerson purges a node entirely. Dangling references in other records
// are the caller's responsibility.
func (s *EntityStore) RemovePerson(id valueobjects.PersonID) {
	s.mu.RLock()
	resolved := s.resolveID(id)
	s.mu.RUnlock()

	s.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		delete(people, resolved)
	})
	s.metrics.RecordMutation("remove_person")
}

// RemovePeopleByLinkedAccount purges every record claimed by the given
// account, returning how many were removed. Used by block/unlink flows.
func (s *EntityStore) RemovePeopleByLinkedAccount(accountID string) int {
	if accountID == "" {
		return 0
	}

	removed := 0
	s.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		for id, p := range people {
			if p.LinkedAccountID == accountID {
				delete(people, id)
				removed++
			}
		}
	})
	if removed > 0 {
		s.metrics.RecordMutation("remove_by_account")
	}
	return removed
}

// SetPlaceholder marks or unmarks a node as hidden without removing it. The
// flag feeds the graph signature, so layout consumers recompute even though
// cardinality is unchanged.
func (s *EntityStore) SetPlaceholder(id valueobjects.PersonID, hidden bool) {
	current, ok := s.GetPerson(id)
	if !ok {
		s.logger.Warn("setPlaceholder for unknown person", zap.String("personID", id.String()))
		return
	}
	if current.Placeholder == hidden {
		return
	}

	current.Placeholder = hidden
	s.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		people[current.ID] = current
	})
	s.metrics.RecordMutation("set_placeholder")
}

// People returns clones of every record, in no particular order.
func (s *EntityStore) People() []*entities.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Person, 0, len(s.people))
	for _, p := range s.people {
		out = append(out, p.Clone())
	}
	return out
}

// UpdatesForPerson returns every timeline update attached to or tagging the
// given person.
func (s *EntityStore) UpdatesForPerson(id valueobjects.PersonID) []*entities.Update {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resolved := s.resolveID(id)
	out := []*entities.Update{}
	for _, u := range s.updates {
		if u.Mentions(resolved) {
			out = append(out, u)
		}
	}
	return out
}

// Len returns the number of person records.
func (s *EntityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people)
}

// Signature returns a content hash over every record's identity, relationship
// arrays, and placeholder flag. A plain node count is not enough to detect
// change: adding an edge between two known nodes leaves the count untouched.
func (s *EntityStore) Signature() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.people))
	for id := range s.people {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)

	h := fnv.New64a()
	for _, id := range ids {
		p := s.people[valueobjects.PersonID(id)]
		h.Write([]byte(id))
		h.Write([]byte{'|'})
		for _, kind := range []entities.RelationKind{
			entities.RelationParent,
			entities.RelationChild,
			entities.RelationSpouse,
			entities.RelationSibling,
		} {
			for _, rel := range p.RelativeIDs(kind) {
				h.Write([]byte(rel))
				h.Write([]byte{','})
			}
			h.Write([]byte{';'})
		}
		if p.Placeholder {
			h.Write([]byte{'#'})
		}
		h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

// Wait blocks until all background persistence calls have settled. Used by
// tests and graceful shutdown.
func (s *EntityStore) Wait() {
	s.pending.Wait()
}

// snapshot returns clones of the given records for per-mutation rollback.
// Unknown IDs are skipped.
func (s *EntityStore) snapshot(ids ...valueobjects.PersonID) []*entities.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Person, 0, len(ids))
	seen := make(map[valueobjects.PersonID]bool, len(ids))
	for _, id := range ids {
		resolved := s.resolveID(id)
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		if p, ok := s.people[resolved]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// restore reinstates previously-snapshotted records, scoped to exactly the
// records a failed mutation touched so concurrent successes elsewhere in the
// graph survive the rollback.
func (s *EntityStore) restore(snapshots []*entities.Person) {
	if len(snapshots) == 0 {
		return
	}

	s.mutate(func(people map[valueobjects.PersonID]*entities.Person) {
		for _, snap := range snapshots {
			people[snap.ID] = snap.Clone()
		}
	})
	s.metrics.RecordMutation("rollback")
}
