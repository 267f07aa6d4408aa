package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteLimiterAllow(t *testing.T) {
	t.Run("exhausted bucket rejects further writes", func(t *testing.T) {
		l := NewWriteLimiter(func() int { return 2 })
		defer l.Stop()

		assert.True(t, l.Allow("actor-1"))
		assert.True(t, l.Allow("actor-1"))
		assert.False(t, l.Allow("actor-1"))
	})

	t.Run("buckets are isolated per key", func(t *testing.T) {
		l := NewWriteLimiter(func() int { return 1 })
		defer l.Stop()

		assert.True(t, l.Allow("actor-1"))
		assert.False(t, l.Allow("actor-1"))
		assert.True(t, l.Allow("actor-2"))
	})

	t.Run("non-positive rate disables limiting", func(t *testing.T) {
		l := NewWriteLimiter(func() int { return 0 })
		defer l.Stop()

		for i := 0; i < 50; i++ {
			assert.True(t, l.Allow("actor-1"))
		}
	})
}

func TestWriteLimiterStop(t *testing.T) {
	l := NewWriteLimiter(func() int { return 1 })

	l.Stop()
	l.Stop()

	assert.True(t, l.Allow("actor-1"))
	assert.False(t, l.Allow("actor-1"))
}
