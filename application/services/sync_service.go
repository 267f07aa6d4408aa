package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"kintree/application/ports"
	"kintree/domain/core/entities"
	"kintree/domain/core/valueobjects"
	"kintree/pkg/errors"
	"kintree/pkg/observability"
)

// SyncStatus is the session-level sync state.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncRunning SyncStatus = "syncing"
	SyncOK      SyncStatus = "synced"
	SyncFailed  SyncStatus = "error"
)

// SyncService orchestrates one non-overlapping full-graph hydration from the
// backend per authenticated session and identifies which node is ego.
type SyncService struct {
	store   *EntityStore
	backend ports.PeopleBackend
	logger  *zap.Logger
	metrics *observability.Metrics

	syncing atomic.Bool

	mu        sync.RWMutex
	egoID     valueobjects.PersonID
	lastActor string
	synced    bool
	lastErr   error
}

// NewSyncService creates a sync coordinator over the given store.
func NewSyncService(store *EntityStore, backend ports.PeopleBackend, logger *zap.Logger, metrics *observability.Metrics) *SyncService {
	return &SyncService{
		store:   store,
		backend: backend,
		logger:  logger,
		metrics: metrics,
	}
}

// SyncFamilyTree fetches the full person and update sets in parallel,
// replaces the store's contents wholesale, and records as ego the node whose
// linked account matches the actor. Overlapping invocations collapse into a
// no-op after the first; a completed successful sync for the same actor is
// not repeated. On failure prior in-memory state is left untouched and the
// error is recorded for the caller to surface; there is no automatic retry.
func (s *SyncService) SyncFamilyTree(ctx context.Context, actorID string) error {
	if actorID == "" {
		s.logger.Warn("sync skipped, no actor identity")
		return nil
	}

	s.mu.RLock()
	alreadySynced := s.synced && s.lastActor == actorID
	s.mu.RUnlock()
	if alreadySynced {
		return nil
	}

	if !s.syncing.CompareAndSwap(false, true) {
		// A hydration is already in flight; re-entrant calls are dropped,
		// not queued.
		return nil
	}
	defer s.syncing.Store(false)

	start := time.Now()

	var (
		wg         sync.WaitGroup
		people     []*entities.Person
		updates    []*entities.Update
		peopleErr  error
		updatesErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		people, peopleErr = s.backend.GetAllPeople(ctx, actorID)
	}()
	go func() {
		defer wg.Done()
		updates, updatesErr = s.backend.GetAllUpdates(ctx, actorID)
	}()
	wg.Wait()

	if peopleErr != nil || updatesErr != nil {
		err := peopleErr
		if err == nil {
			err = updatesErr
		}
		err = errors.Wrap(err, "family tree sync")

		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		s.metrics.RecordSync(start, err)
		s.logger.Error("family tree sync failed, keeping prior state", zap.Error(err))
		return err
	}

	s.store.SetPeople(people)
	s.store.SetUpdates(updates)

	egoID := valueobjects.PersonID("")
	for _, p := range people {
		if p.LinkedAccountID == actorID {
			egoID = p.ID
			break
		}
	}

	s.mu.Lock()
	s.egoID = egoID
	s.lastActor = actorID
	s.synced = true
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.RecordSync(start, nil)
	s.logger.Info("family tree synced",
		zap.Int("people", len(people)),
		zap.Int("updates", len(updates)),
		zap.String("egoID", egoID.String()),
	)
	return nil
}

// EgoID returns the focal person's ID, or the zero ID before onboarding or
// when the actor has no claimed profile.
func (s *SyncService) EgoID() valueobjects.PersonID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.egoID
}

// Ego returns the focal person's record when one is identified.
func (s *SyncService) Ego() (*entities.Person, bool) {
	s.mu.RLock()
	egoID := s.egoID
	s.mu.RUnlock()

	if egoID.IsZero() {
		return nil, false
	}
	return s.store.GetPerson(egoID)
}

// SetEgoID records ego explicitly, used when the ego node was created locally
// during onboarding rather than located by sync.
func (s *SyncService) SetEgoID(id valueobjects.PersonID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.egoID = id
}

// InitializeEgo creates the authenticated user's own node during onboarding
// and records it as the session's ego. The node is linked to the actor's
// account, so later full syncs resolve the same person as ego.
func (s *SyncService) InitializeEgo(ctx context.Context, data entities.PersonData, actorID string) (valueobjects.PersonID, error) {
	data.LinkedAccountID = actorID
	id, err := s.store.AddPerson(ctx, data, actorID)
	if err != nil {
		return "", err
	}

	s.SetEgoID(id)
	s.logger.Info("ego initialized", zap.String("egoID", id.String()))
	return id, nil
}

// LastError returns the error recorded by the most recent failed sync, if
// the session is in the error state.
func (s *SyncService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Status reports the session-level sync state.
func (s *SyncService) Status() SyncStatus {
	if s.syncing.Load() {
		return SyncRunning
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.lastErr != nil:
		return SyncFailed
	case s.synced:
		return SyncOK
	default:
		return SyncIdle
	}
}
