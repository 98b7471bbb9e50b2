package mock

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Fixture overrides the canned response for one model. ImageB64 is the
// standard-base64 image payload served for that model.
type Fixture struct {
	Model         string `json:"model"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
	ImageB64      string `json:"image_b64"`
}

// ImageBytes decodes the fixture's image payload.
func (f *Fixture) ImageBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.ImageB64)
}

// FixtureSet holds per-model fixtures loaded from a directory of JSON
// files. It is safe for concurrent reads while a watcher reloads.
type FixtureSet struct {
	dir    string
	logger logrus.FieldLogger

	mu      sync.RWMutex
	byModel map[string]*Fixture
}

// NewFixtureSet loads all fixtures from dir.
func NewFixtureSet(dir string, logger logrus.FieldLogger) (*FixtureSet, error) {
	fs := &FixtureSet{
		dir:     dir,
		logger:  logger,
		byModel: make(map[string]*Fixture),
	}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Get returns the fixture for a model, or nil.
func (fs *FixtureSet) Get(model string) *Fixture {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.byModel[model]
}

// Len returns the number of loaded fixtures.
func (fs *FixtureSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.byModel)
}

// Reload re-reads every .json file in the fixture directory. A file that
// fails to parse is skipped with a warning so one bad fixture cannot take
// the mock down.
func (fs *FixtureSet) Reload() error {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return fmt.Errorf("reading fixture directory: %w", err)
	}

	byModel := make(map[string]*Fixture)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(fs.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			fs.warnf("reading fixture %s: %v", path, err)
			continue
		}

		fixture := &Fixture{}
		if err := json.Unmarshal(data, fixture); err != nil {
			fs.warnf("parsing fixture %s: %v", path, err)
			continue
		}
		if fixture.Model == "" {
			fs.warnf("fixture %s has no model, skipping", path)
			continue
		}

		byModel[fixture.Model] = fixture
	}

	fs.mu.Lock()
	fs.byModel = byModel
	fs.mu.Unlock()
	return nil
}

// Watch reloads fixtures whenever a file in the directory changes. It blocks
// until the watcher fails and is meant to run in its own goroutine.
func (fs *FixtureSet) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fixture watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(fs.dir); err != nil {
		return fmt.Errorf("watching %s: %w", fs.dir, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if err := fs.Reload(); err != nil {
					fs.warnf("reloading fixtures: %v", err)
					continue
				}
				fs.infof("fixtures reloaded after change to %s", event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fs.warnf("fixture watcher: %v", err)
		}
	}
}

func (fs *FixtureSet) warnf(format string, args ...any) {
	if fs.logger != nil {
		fs.logger.Warnf(format, args...)
	}
}

func (fs *FixtureSet) infof(format string, args ...any) {
	if fs.logger != nil {
		fs.logger.Infof(format, args...)
	}
}
