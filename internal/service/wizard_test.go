package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/skinerbold/lifeplan/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFullWizardFlow walks the whole planner: name, six visions,
// generation, report, export, reset — over the anonymous local mirror.
func TestFullWizardFlow(t *testing.T) {
	ctx := context.Background()

	local := storage.NewLocalStore(filepath.Join(t.TempDir(), "local-project.json"))
	projects := NewProjectService(nil, local, 10*time.Millisecond)
	generation := NewGenerationService(&stubModel{response: goalsJSON(t)}, NewGoalCache(), time.Second)
	reports := NewReportService()

	session, err := projects.Session(ctx, "")
	require.NoError(t, err)

	// Welcome
	session.SetName(ctx, "Ana")
	step, err := session.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, model.StepVision, step)

	// Vision
	for _, category := range model.Categories {
		require.NoError(t, session.SetVisionField(ctx, category, category+" vision"))
	}
	step, err = session.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, model.StepGenerating, step)

	// Generation
	snapshot := session.Snapshot()
	goals, err := generation.Generate(ctx, snapshot.VisionData, "")
	require.NoError(t, err)
	session.SetGoals(ctx, goals)

	// Report
	step, err = session.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, model.StepReport, step)

	snapshot = session.Snapshot()
	assert.True(t, snapshot.Completed)

	report, err := reports.Render(&snapshot)
	require.NoError(t, err)
	html := string(report)
	assert.Contains(t, html, "Ana")
	for _, label := range []string{"Físico", "Mental", "Social", "Emocional", "Espiritual", "Caráter"} {
		assert.Contains(t, html, label)
	}

	// The anonymous mirror already holds the full state: a fresh
	// session over the same store resumes at the report step.
	resumed, err := NewProjectService(nil, local, 10*time.Millisecond).Session(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, model.StepReport, resumed.Snapshot().CurrentStep)
	assert.NotNil(t, resumed.Snapshot().GeneratedGoals)

	// Reset returns everything to the blank default and clears the mirror
	require.NoError(t, session.Reset(ctx))
	snapshot = session.Snapshot()
	assert.Equal(t, model.VisionData{}, snapshot.VisionData)
	assert.Nil(t, snapshot.GeneratedGoals)
	assert.Equal(t, model.StepWelcome, snapshot.CurrentStep)
	assert.False(t, snapshot.Completed)

	cleared, err := local.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cleared)
}
