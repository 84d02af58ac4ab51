package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/skinerbold/lifeplan/internal/model"
)

// LocalStore keeps the single anonymous snapshot in one JSON file, the
// server-side analogue of a fixed browser localStorage key. A save
// merges the snapshot over whatever is already stored; a corrupt file
// loads as "no project yet" with a warning rather than failing the
// session.
type LocalStore struct {
	path string
	mu   sync.Mutex
}

func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

// localSnapshot is the stored shape: the snapshot fields without the
// server-assigned id and timestamps.
type localSnapshot struct {
	VisionData     model.VisionData      `json:"visionData"`
	GeneratedGoals *model.GeneratedGoals `json:"generatedGoals"`
	CurrentStep    int                   `json:"currentStep"`
	Completed      bool                  `json:"completed"`
}

func (s *LocalStore) Load(ctx context.Context) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.read()
	if snapshot == nil {
		return nil, nil
	}

	return &model.Project{
		VisionData:     snapshot.VisionData,
		GeneratedGoals: snapshot.GeneratedGoals,
		CurrentStep:    snapshot.CurrentStep,
		Completed:      snapshot.Completed,
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := localSnapshot{}
	if prior := s.read(); prior != nil {
		merged = *prior
	}

	merged.VisionData = project.VisionData
	if project.GeneratedGoals != nil {
		merged.GeneratedGoals = project.GeneratedGoals
	}
	merged.CurrentStep = project.CurrentStep
	merged.Completed = project.Completed

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("failed to encode local snapshot: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(s.path), 0755)
	if err != nil {
		return fmt.Errorf("failed to create local store directory: %w", err)
	}

	err = os.WriteFile(s.path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write local snapshot: %w", err)
	}

	return nil
}

func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear local snapshot: %w", err)
	}

	return nil
}

// read returns the stored snapshot or nil when nothing usable is
// stored. Parse failures are a warning, not an error: the caller
// proceeds with a blank project.
func (s *LocalStore) read() *localSnapshot {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		slog.Warn("failed to read local snapshot, starting blank", "path", s.path, "error", err)
		return nil
	}

	snapshot := &localSnapshot{}
	err = json.Unmarshal(data, snapshot)
	if err != nil {
		slog.Warn("failed to parse local snapshot, starting blank", "path", s.path, "error", err)
		return nil
	}

	return snapshot
}
