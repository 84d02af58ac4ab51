package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	return NewLocalStore(filepath.Join(t.TempDir(), "local-project.json"))
}

func TestLocalStoreLoadEmpty(t *testing.T) {
	store := newTestLocalStore(t)

	project, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, project, "no file means no project yet")
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	saved := &model.Project{
		VisionData: model.VisionData{
			Name:     "Ana",
			Physical: "run every morning",
		},
		GeneratedGoals: &model.GeneratedGoals{
			Physical: []model.GoalDetail{{
				Goal:      "run a 10k",
				Actions:   []string{"train"},
				Timeline:  "6 months",
				Resources: []string{"shoes"},
			}},
		},
		CurrentStep: model.StepGenerating,
		Completed:   false,
	}
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, saved.VisionData, loaded.VisionData)
	assert.Equal(t, saved.GeneratedGoals, loaded.GeneratedGoals)
	assert.Equal(t, saved.CurrentStep, loaded.CurrentStep)
}

func TestLocalStoreMergeKeepsGoals(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	withGoals := &model.Project{
		VisionData:     model.VisionData{Name: "Ana"},
		GeneratedGoals: &model.GeneratedGoals{Physical: []model.GoalDetail{{Goal: "g"}}},
		CurrentStep:    model.StepGenerating,
	}
	require.NoError(t, store.Save(ctx, withGoals))

	// A later save without goals merges over the prior snapshot and
	// must not drop them.
	withoutGoals := &model.Project{
		VisionData:  model.VisionData{Name: "Ana", Physical: "run"},
		CurrentStep: model.StepReport,
		Completed:   true,
	}
	require.NoError(t, store.Save(ctx, withoutGoals))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.GeneratedGoals)
	assert.Equal(t, "g", loaded.GeneratedGoals.Physical[0].Goal)
	assert.Equal(t, model.StepReport, loaded.CurrentStep)
	assert.True(t, loaded.Completed)
}

func TestLocalStoreCorruptFileLoadsBlank(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local-project.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := NewLocalStore(path)

	project, err := store.Load(ctx)
	require.NoError(t, err, "a corrupt snapshot is a warning, not an error")
	assert.Nil(t, project)
}

func TestLocalStoreClear(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	require.NoError(t, store.Save(ctx, &model.Project{VisionData: model.VisionData{Name: "Ana"}}))
	require.NoError(t, store.Clear(ctx))

	project, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, project)

	// Clearing again is a no-op
	require.NoError(t, store.Clear(ctx))
}
