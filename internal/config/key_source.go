package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const localizationKey = "LOCALIZATION"

// KeySource holds the requested location key and follows changes to the env file.
// When the file does not set LOCALIZATION the fallback is used, empty means home.
type KeySource struct {
	mu       sync.RWMutex
	key      string
	fallback string
	path     string
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewKeySource(initial, fallback, envFile string, logger *zap.Logger) *KeySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeySource{
		key:      strings.TrimSpace(initial),
		fallback: strings.TrimSpace(fallback),
		path:     envFile,
		logger:   logger,
	}
}

// Key returns the current key, nil for home
func (k *KeySource) Key() *string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.key == "" {
		return nil
	}
	key := k.key
	return &key
}

// Set replaces the current key
func (k *KeySource) Set(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = strings.TrimSpace(key)
}

// Reload reads LOCALIZATION from the env file
func (k *KeySource) Reload() error {
	values, err := godotenv.Read(k.path)
	if errors.Is(err, fs.ErrNotExist) {
		values = map[string]string{}
	} else if err != nil {
		return fmt.Errorf("read %s: %w", k.path, err)
	}

	next, ok := values[localizationKey]
	if !ok {
		next = k.fallback
	}
	next = strings.TrimSpace(next)

	k.mu.Lock()
	previous := k.key
	k.key = next
	k.mu.Unlock()

	if previous != next {
		k.logger.Info("Requested location changed", zap.String("from", previous), zap.String("to", next))
	}
	return nil
}

// Start watches the env file until ctx is done or Stop is called
func (k *KeySource) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// editors replace files on save, so watch the directory
	dir := filepath.Dir(k.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	k.watcher = watcher
	k.done = make(chan struct{})
	go k.run(ctx)

	k.logger.Debug("Watching env file", zap.String("path", k.path))
	return nil
}

// Stop closes the watcher and waits for the loop to exit
func (k *KeySource) Stop() {
	if k.watcher == nil {
		return
	}
	k.watcher.Close()
	<-k.done
}

func (k *KeySource) run(ctx context.Context) {
	defer close(k.done)
	name := filepath.Clean(k.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-k.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := k.Reload(); err != nil {
				k.logger.Warn("Failed to reload env file", zap.String("path", k.path), zap.Error(err))
			}
		case err, ok := <-k.watcher.Errors:
			if !ok {
				return
			}
			k.logger.Warn("Env file watcher error", zap.Error(err))
		}
	}
}
