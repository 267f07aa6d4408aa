package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.ServerAddress)
		assert.Equal(t, "development", cfg.Environment)
		assert.True(t, cfg.IsDevelopment())
		assert.False(t, cfg.HasBackend())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_ADDRESS", ":9090")
		t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
		t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.ServerAddress)
		assert.True(t, cfg.HasBackend())
		assert.Equal(t, "service-key", cfg.SupabaseKey)
	})

	t.Run("anon key is the fallback", func(t *testing.T) {
		t.Setenv("SUPABASE_ANON_KEY", "anon-key")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "anon-key", cfg.SupabaseKey)
	})

	t.Run("yaml overlay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server_address: \":7070\"\nenable_cors: false\n"), 0o644))
		t.Setenv("CONFIG_FILE", path)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.ServerAddress)
		assert.False(t, cfg.EnableCORS)
	})

	t.Run("production requires backend and jwt settings", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")

		_, err := LoadConfig()
		require.Error(t, err)

		t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
		t.Setenv("SUPABASE_ANON_KEY", "anon-key")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestDynamicConfig(t *testing.T) {
	t.Run("defaults map onto domain rules", func(t *testing.T) {
		domain := DefaultDynamicConfig().ToDomain()
		assert.Equal(t, 50, domain.MaxRelativesPerPerson)
		assert.True(t, domain.AllowShadowProfiles)
	})

	t.Run("watcher loads the file and follows edits", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dynamic.yaml")
		require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_relatives_per_person: 10\n"), 0o644))

		w, err := NewWatcher(path, zap.NewNop())
		require.NoError(t, err)
		defer w.Stop()

		assert.Equal(t, 10, w.Current().ToDomain().MaxRelativesPerPerson)

		require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_relatives_per_person: 25\n"), 0o644))

		assert.Eventually(t, func() bool {
			return w.Current().ToDomain().MaxRelativesPerPerson == 25
		}, 3*time.Second, 50*time.Millisecond)
	})

	t.Run("a bad edit keeps the last good configuration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dynamic.yaml")
		require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_relatives_per_person: 10\n"), 0o644))

		w, err := NewWatcher(path, zap.NewNop())
		require.NoError(t, err)
		defer w.Stop()

		require.NoError(t, os.WriteFile(path, []byte("limits:\n  max_relatives_per_person: 0\n"), 0o644))

		// The reload is debounced; give it a moment, then confirm the last
		// good config is still current.
		time.Sleep(500 * time.Millisecond)
		assert.Equal(t, 10, w.Current().ToDomain().MaxRelativesPerPerson)
	})
}
