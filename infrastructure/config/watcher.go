package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domaincfg "kintree/domain/config"
)

// DynamicConfig holds runtime-changeable tuning, reloaded from a YAML file
// without a restart.
type DynamicConfig struct {
	Limits   Limits   `yaml:"limits"`
	Features Features `yaml:"features"`
}

// Limits holds graph-level limits.
type Limits struct {
	MaxRelativesPerPerson int `yaml:"max_relatives_per_person"`
	WritesPerMinute       int `yaml:"writes_per_minute"`
}

// Features holds runtime feature switches.
type Features struct {
	AllowShadowProfiles bool `yaml:"allow_shadow_profiles"`
}

// DefaultDynamicConfig mirrors the domain defaults.
func DefaultDynamicConfig() *DynamicConfig {
	d := domaincfg.DefaultDomainConfig()
	return &DynamicConfig{
		Limits: Limits{
			MaxRelativesPerPerson: d.MaxRelativesPerPerson,
			WritesPerMinute:       60,
		},
		Features: Features{
			AllowShadowProfiles: d.AllowShadowProfiles,
		},
	}
}

// ToDomain projects the dynamic config onto the domain's business rules.
func (d *DynamicConfig) ToDomain() *domaincfg.DomainConfig {
	return &domaincfg.DomainConfig{
		MaxRelativesPerPerson: d.Limits.MaxRelativesPerPerson,
		AllowShadowProfiles:   d.Features.AllowShadowProfiles,
	}
}

// Watcher watches a YAML file of dynamic configuration and notifies
// registered callbacks when it changes.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu       sync.RWMutex
	current  *DynamicConfig
	onChange []func(*DynamicConfig)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher loads the file and starts watching its directory. Watching the
// directory instead of the file survives editors and configmap updates that
// replace the file wholesale.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	current, err := loadDynamicConfig(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		watcher: fsWatcher,
		logger:  logger,
		current: current,
		stopCh:  make(chan struct{}),
	}

	go w.loop()
	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	// Editors fire bursts of events for one save; debounce them.
	var reloadTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(200*time.Millisecond, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	loaded, err := loadDynamicConfig(w.path)
	if err != nil {
		// Keep the last known-good configuration on a bad reload.
		w.logger.Warn("dynamic config reload failed, keeping previous",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.current = loaded
	callbacks := make([]func(*DynamicConfig), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	w.logger.Info("dynamic config reloaded",
		zap.Int("maxRelativesPerPerson", loaded.Limits.MaxRelativesPerPerson),
		zap.Int("writesPerMinute", loaded.Limits.WritesPerMinute),
	)
	for _, fn := range callbacks {
		fn(loaded)
	}
}

func loadDynamicConfig(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dynamic config %s: %w", path, err)
	}

	cfg := DefaultDynamicConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse dynamic config %s: %w", path, err)
	}
	if cfg.Limits.MaxRelativesPerPerson <= 0 {
		return nil, fmt.Errorf("max_relatives_per_person must be positive")
	}
	return cfg, nil
}
