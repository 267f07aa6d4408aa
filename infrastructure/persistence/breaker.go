package persistence

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"kintree/application/ports"
	"kintree/domain/core/entities"
	pkgerrors "kintree/pkg/errors"
)

// BreakerBackend decorates a ports.PeopleBackend with a circuit breaker so a
// struggling backend fails fast instead of tying up every optimistic write
// until its timeout.
type BreakerBackend struct {
	inner   ports.PeopleBackend
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.PeopleBackend = (*BreakerBackend)(nil)

// NewBreakerBackend wraps inner with a circuit breaker tuned for the people
// backend: evaluate after 5 requests, trip at an 80% failure rate, retry
// half-open after a minute.
func NewBreakerBackend(inner ports.PeopleBackend, logger *zap.Logger) *BreakerBackend {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "people-backend",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerBackend{
		inner:   inner,
		breaker: breaker,
		logger:  logger,
	}
}

func (b *BreakerBackend) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.breaker.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, pkgerrors.NewUnavailableError("people backend").WithCause(err)
	}
	return result, err
}

// CreatePerson delegates through the breaker.
func (b *BreakerBackend) CreatePerson(ctx context.Context, person *entities.Person, actorID string) (*entities.Person, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.CreatePerson(ctx, person, actorID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*entities.Person), nil
}

// CreateRelationship delegates through the breaker.
func (b *BreakerBackend) CreateRelationship(ctx context.Context, actorID string, rel entities.RelationshipRecord) (string, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.CreateRelationship(ctx, actorID, rel)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// GetAllPeople delegates through the breaker.
func (b *BreakerBackend) GetAllPeople(ctx context.Context, actorID string) ([]*entities.Person, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.GetAllPeople(ctx, actorID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*entities.Person), nil
}

// GetAllUpdates delegates through the breaker.
func (b *BreakerBackend) GetAllUpdates(ctx context.Context, actorID string) ([]*entities.Update, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.GetAllUpdates(ctx, actorID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*entities.Update), nil
}
