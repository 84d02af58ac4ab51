package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/skinerbold/lifeplan/internal/repository"
	"github.com/skinerbold/lifeplan/internal/storage"
)

var (
	ErrNameRequired      = errors.New("name is required before leaving the welcome step")
	ErrVisionIncomplete  = errors.New("all six vision fields are required before generating goals")
	ErrUnknownCategory   = errors.New("unknown vision category")
	ErrGoalsNotGenerated = errors.New("goals have not been generated yet")
)

// ProjectService owns the live wizard state for every active session.
// One session exists per identity; all anonymous traffic shares the
// single local-mirror session, matching the one-snapshot-per-browser
// model of the original storage key.
type ProjectService struct {
	repo     repository.ProjectRepository
	local    *storage.LocalStore
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*ProjectSession
}

func NewProjectService(repo repository.ProjectRepository, local *storage.LocalStore, debounce time.Duration) *ProjectService {
	if debounce <= 0 {
		debounce = time.Second
	}
	return &ProjectService{
		repo:     repo,
		local:    local,
		debounce: debounce,
		sessions: make(map[string]*ProjectSession),
	}
}

// Session returns the live session for an identity ("" for anonymous),
// creating and hydrating it from the matching store on first use.
func (s *ProjectService) Session(ctx context.Context, userID string) (*ProjectSession, error) {
	s.mu.Lock()
	if session, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()

	var store storage.ProjectStore
	if userID != "" {
		store = storage.NewDatabaseStore(s.repo, userID)
	} else {
		store = s.local
	}

	session := &ProjectSession{
		store:         store,
		authenticated: userID != "",
		debounce:      s.debounce,
		project:       model.Blank(),
	}

	err := session.hydrate(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have raced us here; keep the first session so
	// all handlers observe the same live state.
	if existing, ok := s.sessions[userID]; ok {
		return existing, nil
	}
	s.sessions[userID] = session
	return session, nil
}

// Drop flushes and forgets a session, e.g. on logout.
func (s *ProjectService) Drop(ctx context.Context, userID string) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if ok {
		session.Flush(ctx)
	}
}

// Close flushes every pending debounced save, for shutdown.
func (s *ProjectService) Close(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*ProjectSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Flush(ctx)
	}
}

// ProjectSession is the in-memory wizard state for one identity.
// Mutations apply in event order under the session lock; persistence is
// debounced for authenticated sessions and immediate for the anonymous
// local mirror.
type ProjectSession struct {
	store         storage.ProjectStore
	authenticated bool
	debounce      time.Duration

	mu      sync.Mutex
	project *model.Project
	timer   *time.Timer
	dirty   bool
}

// hydrate loads the prior snapshot and merges only its non-default
// fields, so a blank stored snapshot never wipes in-progress edits.
func (s *ProjectSession) hydrate(ctx context.Context) error {
	loaded, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if loaded == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if loaded.VisionData.Name != "" {
		s.project.VisionData = loaded.VisionData
	}
	if loaded.GeneratedGoals != nil {
		s.project.GeneratedGoals = loaded.GeneratedGoals
	}
	if loaded.CurrentStep > 0 {
		s.project.CurrentStep = loaded.CurrentStep
		s.project.Completed = loaded.Completed
	}
	s.project.ID = loaded.ID
	s.project.CreatedAt = loaded.CreatedAt
	s.project.UpdatedAt = loaded.UpdatedAt

	return nil
}

// Snapshot returns a copy of the current state.
func (s *ProjectSession) Snapshot() model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.project
}

func (s *ProjectSession) SetName(ctx context.Context, name string) {
	s.mu.Lock()
	s.project.VisionData.Name = name
	s.mu.Unlock()
	s.persist(ctx)
}

func (s *ProjectSession) SetVisionField(ctx context.Context, category, value string) error {
	s.mu.Lock()
	if !s.project.VisionData.SetField(category, value) {
		s.mu.Unlock()
		return ErrUnknownCategory
	}
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

// SetGoals replaces the goal plan wholesale; there is no partial merge.
func (s *ProjectSession) SetGoals(ctx context.Context, goals *model.GeneratedGoals) {
	s.mu.Lock()
	s.project.GeneratedGoals = goals
	s.mu.Unlock()
	s.persist(ctx)
}

// Apply overwrites the snapshot fields from a full client-supplied
// snapshot, the save contract of the projects endpoint.
func (s *ProjectSession) Apply(ctx context.Context, incoming *model.Project) {
	s.mu.Lock()
	s.project.VisionData = incoming.VisionData
	if incoming.GeneratedGoals != nil {
		s.project.GeneratedGoals = incoming.GeneratedGoals
	}
	s.project.CurrentStep = clampStep(incoming.CurrentStep)
	s.refreshCompleted()
	s.mu.Unlock()
	s.persist(ctx)
}

// Next advances the wizard one step. Leaving the welcome step requires
// a name; leaving the vision step requires all six categories filled.
func (s *ProjectSession) Next(ctx context.Context) (int, error) {
	s.mu.Lock()
	switch s.project.CurrentStep {
	case model.StepWelcome:
		if strings.TrimSpace(s.project.VisionData.Name) == "" {
			s.mu.Unlock()
			return model.StepWelcome, ErrNameRequired
		}
	case model.StepVision:
		if !s.project.VisionData.Complete() {
			s.mu.Unlock()
			return model.StepVision, ErrVisionIncomplete
		}
	}

	if s.project.CurrentStep < model.StepReport {
		s.project.CurrentStep++
	}
	s.refreshCompleted()
	step := s.project.CurrentStep
	s.mu.Unlock()

	s.persist(ctx)
	return step, nil
}

// Prev steps back, clamped at the welcome step.
func (s *ProjectSession) Prev(ctx context.Context) int {
	s.mu.Lock()
	if s.project.CurrentStep > model.StepWelcome {
		s.project.CurrentStep--
	}
	step := s.project.CurrentStep
	s.mu.Unlock()

	s.persist(ctx)
	return step
}

// Reset blanks the in-memory state and erases the durable snapshot,
// including the server record for authenticated sessions.
func (s *ProjectSession) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.project = model.Blank()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dirty = false
	s.mu.Unlock()

	return s.store.Clear(ctx)
}

// Flush persists a pending debounced save immediately.
func (s *ProjectSession) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pending := s.dirty
	s.dirty = false
	s.mu.Unlock()

	if pending {
		s.save(ctx)
	}
}

// refreshCompleted derives the completion flag: reaching the report
// step completes the project, and stepping back does not undo it.
// Callers hold s.mu.
func (s *ProjectSession) refreshCompleted() {
	if s.project.CurrentStep == model.StepReport {
		s.project.Completed = true
	}
}

// persist schedules durability for the current state. Authenticated
// sessions coalesce rapid successive changes into one write after a
// quiet period; the anonymous local mirror is cheap enough to write
// through synchronously.
func (s *ProjectSession) persist(ctx context.Context) {
	if !s.authenticated {
		s.save(ctx)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.timer = nil
		pending := s.dirty
		s.dirty = false
		s.mu.Unlock()

		if pending {
			// The triggering request is long gone; persist on a
			// background context.
			s.save(context.Background())
		}
	})
}

// save writes the full snapshot. A failed save keeps the in-memory
// state intact; the next mutation schedules another attempt.
func (s *ProjectSession) save(ctx context.Context) {
	s.mu.Lock()
	snapshot := *s.project
	s.mu.Unlock()

	err := s.store.Save(ctx, &snapshot)
	if err != nil {
		slog.Error("failed to save project snapshot", "error", err, "authenticated", s.authenticated)
		return
	}

	s.mu.Lock()
	s.project.ID = snapshot.ID
	s.project.CreatedAt = snapshot.CreatedAt
	s.project.UpdatedAt = snapshot.UpdatedAt
	s.mu.Unlock()
}

func clampStep(step int) int {
	if step < model.StepWelcome {
		return model.StepWelcome
	}
	if step > model.StepReport {
		return model.StepReport
	}
	return step
}
