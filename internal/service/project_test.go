package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	stored  *model.Project
	saves   int
	clears  int
	loadErr error
}

func (f *fakeStore) Load(ctx context.Context) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.stored == nil {
		return nil, nil
	}
	copied := *f.stored
	return &copied, nil
}

func (f *fakeStore) Save(ctx context.Context, project *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *project
	f.stored = &copied
	f.saves++
	return nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = nil
	f.clears++
	return nil
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakeStore) snapshot() *model.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored
}

func newTestSession(store *fakeStore, authenticated bool, debounce time.Duration) *ProjectSession {
	return &ProjectSession{
		store:         store,
		authenticated: authenticated,
		debounce:      debounce,
		project:       model.Blank(),
	}
}

func TestNextGatedOnName(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(&fakeStore{}, false, time.Second)

	step, err := session.Next(ctx)
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, model.StepWelcome, step)

	session.SetName(ctx, "Ana")
	step, err = session.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StepVision, step)
}

func TestNextGatedOnVisionComplete(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(&fakeStore{}, false, time.Second)
	session.SetName(ctx, "Ana")

	_, err := session.Next(ctx)
	require.NoError(t, err)

	_, err = session.Next(ctx)
	assert.ErrorIs(t, err, ErrVisionIncomplete)

	for _, category := range model.Categories {
		require.NoError(t, session.SetVisionField(ctx, category, "a vision"))
	}

	step, err := session.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StepGenerating, step)
}

func TestNavigationClamps(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(&fakeStore{}, false, time.Second)

	assert.Equal(t, model.StepWelcome, session.Prev(ctx), "prev at step 0 stays at 0")

	session.SetName(ctx, "Ana")
	for _, category := range model.Categories {
		require.NoError(t, session.SetVisionField(ctx, category, "a vision"))
	}
	for i := 0; i < 6; i++ {
		_, err := session.Next(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, model.StepReport, session.Snapshot().CurrentStep, "next at step 3 stays at 3")
}

func TestCompletedDerivedFromReportStep(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(&fakeStore{}, false, time.Second)
	session.SetName(ctx, "Ana")
	for _, category := range model.Categories {
		require.NoError(t, session.SetVisionField(ctx, category, "a vision"))
	}

	for step := model.StepVision; step <= model.StepGenerating; step++ {
		_, err := session.Next(ctx)
		require.NoError(t, err)
		assert.False(t, session.Snapshot().Completed, "not completed before report step")
	}

	_, err := session.Next(ctx)
	require.NoError(t, err)
	assert.True(t, session.Snapshot().Completed)

	// Stepping back does not undo completion
	session.Prev(ctx)
	assert.True(t, session.Snapshot().Completed)
}

func TestAnonymousSavesImmediately(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	session := newTestSession(store, false, time.Second)

	session.SetName(ctx, "Ana")
	assert.Equal(t, 1, store.saveCount())

	require.NoError(t, session.SetVisionField(ctx, model.CategoryPhysical, "run"))
	assert.Equal(t, 2, store.saveCount())
}

func TestAuthenticatedSavesDebounced(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	session := newTestSession(store, true, 30*time.Millisecond)

	session.SetName(ctx, "A")
	session.SetName(ctx, "An")
	session.SetName(ctx, "Ana")
	assert.Equal(t, 0, store.saveCount(), "no save during the quiet period")

	require.Eventually(t, func() bool {
		return store.saveCount() == 1
	}, time.Second, 5*time.Millisecond, "rapid changes coalesce into one save")

	stored := store.snapshot()
	require.NotNil(t, stored)
	assert.Equal(t, "Ana", stored.VisionData.Name, "the settled state is what persists")
}

func TestFlushForcesPendingSave(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	session := newTestSession(store, true, time.Hour)

	session.SetName(ctx, "Ana")
	assert.Equal(t, 0, store.saveCount())

	session.Flush(ctx)
	assert.Equal(t, 1, store.saveCount())

	// Nothing pending: flush is a no-op
	session.Flush(ctx)
	assert.Equal(t, 1, store.saveCount())
}

func TestHydrateMergesNonDefaultFields(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{stored: &model.Project{
		ID: "p1",
		VisionData: model.VisionData{
			Name:     "Ana",
			Physical: "run",
		},
		CurrentStep: model.StepVision,
	}}
	session := newTestSession(store, true, time.Second)

	require.NoError(t, session.hydrate(ctx))

	snapshot := session.Snapshot()
	assert.Equal(t, "Ana", snapshot.VisionData.Name)
	assert.Equal(t, "run", snapshot.VisionData.Physical)
	assert.Equal(t, model.StepVision, snapshot.CurrentStep)
	assert.Equal(t, "p1", snapshot.ID)
}

func TestHydrateKeepsEditsOverBlankSnapshot(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{stored: &model.Project{}}
	session := newTestSession(store, true, time.Second)
	session.project.VisionData.Name = "In Progress"
	session.project.CurrentStep = model.StepVision

	require.NoError(t, session.hydrate(ctx))

	snapshot := session.Snapshot()
	assert.Equal(t, "In Progress", snapshot.VisionData.Name, "blank snapshot must not wipe edits")
	assert.Equal(t, model.StepVision, snapshot.CurrentStep)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	session := newTestSession(store, false, time.Second)

	session.SetName(ctx, "Ana")
	for _, category := range model.Categories {
		require.NoError(t, session.SetVisionField(ctx, category, "a vision"))
	}
	session.SetGoals(ctx, &model.GeneratedGoals{})

	require.NoError(t, session.Reset(ctx))

	snapshot := session.Snapshot()
	assert.Empty(t, snapshot.VisionData.Name)
	assert.True(t, snapshot.VisionData == model.VisionData{})
	assert.Nil(t, snapshot.GeneratedGoals)
	assert.Equal(t, model.StepWelcome, snapshot.CurrentStep)
	assert.False(t, snapshot.Completed)
	assert.Equal(t, 1, store.clears)
	assert.Nil(t, store.snapshot())
}

func TestApplyClampsStep(t *testing.T) {
	ctx := context.Background()
	session := newTestSession(&fakeStore{}, false, time.Second)

	session.Apply(ctx, &model.Project{CurrentStep: 99})
	assert.Equal(t, model.StepReport, session.Snapshot().CurrentStep)
	assert.True(t, session.Snapshot().Completed)

	session.Apply(ctx, &model.Project{CurrentStep: -4})
	assert.Equal(t, model.StepWelcome, session.Snapshot().CurrentStep)
}
