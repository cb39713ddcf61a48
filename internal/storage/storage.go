// Package storage persists orchestration run results as JSON files.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/agentmux/agentmux/internal/orchestrator"
)

var ErrNotFound = errors.New("not found")

// RunStore keeps one JSON file per orchestration run under <base>/runs/.
// Run IDs are ULIDs, so lexical filename order is creation order. Writes are
// atomic (temp file plus rename) and guarded by a file lock so concurrent
// agentmux invocations sharing a data directory do not corrupt each other.
type RunStore struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*runLock
}

// NewRunStore creates a store rooted at basePath.
func NewRunStore(basePath string) *RunStore {
	return &RunStore{
		basePath: basePath,
		locks:    make(map[string]*runLock),
	}
}

func (s *RunStore) runPath(id string) string {
	return filepath.Join(s.basePath, "runs", id+".json")
}

// Save persists a run result keyed by its ID.
func (s *RunStore) Save(run *orchestrator.RunResult) error {
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}

	path := s.runPath(run.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	lock := s.getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Get loads a run by ID.
func (s *RunStore) Get(id string) (*orchestrator.RunResult, error) {
	data, err := os.ReadFile(s.runPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}

	var run orchestrator.RunResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

// List returns stored run IDs, oldest first.
func (s *RunStore) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Latest returns the most recent run, or ErrNotFound if none are stored.
func (s *RunStore) Latest() (*orchestrator.RunResult, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ids[len(ids)-1])
}

// Delete removes a stored run. Deleting a missing run is not an error.
func (s *RunStore) Delete(id string) error {
	path := s.runPath(id)

	lock := s.getLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// getLock returns the lock guarding one run file.
func (s *RunStore) getLock(path string) *runLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[path]
	if !ok {
		lock = newRunLock(path)
		s.locks[path] = lock
	}
	return lock
}
