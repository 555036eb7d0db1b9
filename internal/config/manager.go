package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// sourceProfileFile is the watched file name inside the source directory.
const sourceProfileFile = "sources.yaml"

// Manager watches the source directory and hot-reloads the source profile
// when sources.yaml changes. Editors often write via rename, so both Write
// and Create events trigger a reload; a short debounce absorbs the event
// bursts some editors produce.
type Manager struct {
	dir     string
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
}

// NewManager creates a Manager for the given directory.
func NewManager(dir string, logger *zap.Logger) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("source directory cannot be empty")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Manager{
		dir:     dir,
		logger:  logger,
		watcher: watcher,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start loads the profile once and begins watching for changes.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	profile, err := LoadSourceProfile(filepath.Join(m.dir, sourceProfileFile))
	if err != nil {
		return fmt.Errorf("load initial source profile: %w", err)
	}
	SetActiveProfile(profile)

	if err := m.watcher.Add(m.dir); err != nil {
		return fmt.Errorf("watch source directory: %w", err)
	}

	go m.watchLoop(ctx)

	m.logger.Info("Source profile manager started",
		zap.String("dir", m.dir),
		zap.Int("trust_tiers", 4),
		zap.Int("relevance_keywords", len(profile.RelevanceKeywords)),
	)
	return nil
}

// Stop ends the watch loop and closes the watcher.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	close(m.stopCh)
	return m.watcher.Close()
}

func (m *Manager) watchLoop(ctx context.Context) {
	var pending *time.Timer
	reload := func() {
		profile, err := LoadSourceProfile(filepath.Join(m.dir, sourceProfileFile))
		if err != nil {
			// Keep the previous profile on a bad edit.
			m.logger.Warn("Source profile reload failed", zap.Error(err))
			return
		}
		SetActiveProfile(profile)
		m.logger.Info("Source profile reloaded",
			zap.Int("relevance_keywords", len(profile.RelevanceKeywords)))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != sourceProfileFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(250*time.Millisecond, reload)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("Source profile watcher error", zap.Error(err))
		}
	}
}
