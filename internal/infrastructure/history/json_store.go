package history

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/pkg/filesystem"
	"github.com/doeshing/snapask/internal/ports"
)

// JSONStore keeps the whole history as one JSON array, newest last. Appends
// are a read-modify-write serialized by the store mutex.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a store at path, or $SNAPASK_HOME/history.json when
// path is empty.
func NewJSONStore(path string) *JSONStore {
	if path == "" {
		path = filepath.Join(filesystem.StateDir(), "history.json")
	}
	return &JSONStore{path: path}
}

// Append implements ports.HistoryRepository.
func (j *JSONStore) Append(_ context.Context, item domain.HistoryItem) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	items, err := j.read()
	if err != nil {
		return err
	}
	return j.write(domain.AppendHistory(items, item))
}

// List implements ports.HistoryRepository.
func (j *JSONStore) List(context.Context) ([]domain.HistoryItem, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.read()
}

// Clear implements ports.HistoryRepository.
func (j *JSONStore) Clear(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.write([]domain.HistoryItem{})
}

// ExportJSON writes the history as JSON lines to dest.
func (j *JSONStore) ExportJSON(ctx context.Context, dest string) error {
	items, err := j.List(ctx)
	if err != nil {
		return err
	}
	return exportLines(dest, items)
}

// Path returns the backing file path.
func (j *JSONStore) Path() string {
	return j.path
}

func (j *JSONStore) read() ([]domain.HistoryItem, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []domain.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (j *JSONStore) write(items []domain.HistoryItem) error {
	if err := os.MkdirAll(filepath.Dir(j.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, domain.SecureFilePermissions); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}

func exportLines(dest string, items []domain.HistoryItem) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.HistoryRepository = (*JSONStore)(nil)
