package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/snapask/assets"
	settingsapp "github.com/doeshing/snapask/internal/application/settings"
	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/pkg/filesystem"
	"github.com/doeshing/snapask/internal/ports"
)

// FileStore keeps settings in $SNAPASK_HOME/settings.yaml (overridable via
// SNAPASK_SETTINGS). Every Save rewrites the whole object through a rename, so
// concurrent readers see either the old or the new settings.
type FileStore struct {
	overridePath string

	mu      sync.Mutex
	subs    map[int]func(domain.Settings)
	nextSub int
	modTime time.Time
}

// NewFileStore builds a new store. An empty path selects the default location.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		overridePath: path,
		subs:         make(map[int]func(domain.Settings)),
	}
}

// Load implements ports.SettingsStore. A missing file is created from the
// embedded defaults. Load advances the Watch baseline only for a file it
// created itself; external rewrites are left for Watch to report.
func (s *FileStore) Load(context.Context) (domain.Settings, error) {
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return domain.Settings{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Settings{}, err
		}
		if err := writeFileAtomic(path, assets.DefaultSettingsYAML); err != nil {
			return domain.Settings{}, err
		}
		s.rememberModTime(path)
		data = assets.DefaultSettingsYAML
	}

	var settings domain.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return settings.Normalize(), nil
}

// Save implements ports.SettingsStore.
func (s *FileStore) Save(_ context.Context, settings domain.Settings) error {
	settings = settings.Normalize()
	if err := settingsapp.Validate(settings); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}

	raw, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	if err := writeFileAtomic(path, raw); err != nil {
		return err
	}
	s.rememberModTime(path)
	s.notify(settings)
	return nil
}

// Subscribe implements ports.SettingsStore.
func (s *FileStore) Subscribe(fn func(domain.Settings)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Watch polls the settings file and notifies subscribers when another process
// rewrote it. It blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = domain.DefaultSettingsPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			modTime, changed := s.changedOnDisk()
			if !changed {
				continue
			}
			settings, err := s.Load(ctx)
			if err != nil {
				continue
			}
			s.mu.Lock()
			s.modTime = modTime
			s.mu.Unlock()
			s.notify(settings)
		}
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	if s.overridePath != "" {
		return s.overridePath
	}
	if custom := os.Getenv("SNAPASK_SETTINGS"); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.StateDir(), "settings.yaml")
}

// Backup copies the current settings file next to itself and returns the
// backup path.
func (s *FileStore) Backup() (string, error) {
	path := s.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := path + ".bak"
	if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

func (s *FileStore) notify(settings domain.Settings) {
	s.mu.Lock()
	subs := make([]func(domain.Settings), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(settings)
	}
}

func (s *FileStore) rememberModTime(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.modTime = info.ModTime()
	s.mu.Unlock()
}

// changedOnDisk compares the file mtime with the last one Save or Watch
// observed.
func (s *FileStore) changedOnDisk() (time.Time, bool) {
	info, err := os.Stat(s.Path())
	if err != nil {
		return time.Time{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return info.ModTime(), !info.ModTime().Equal(s.modTime)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(domain.SecureFilePermissions); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

var _ ports.SettingsStore = (*FileStore)(nil)
