package service

import (
	"testing"

	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject(t *testing.T) *model.Project {
	t.Helper()

	goals := &model.GeneratedGoals{}
	for _, category := range model.Categories {
		details := make([]model.GoalDetail, 5)
		for i := range details {
			details[i] = model.GoalDetail{
				Goal:      category + " goal",
				Actions:   []string{"do the thing"},
				Timeline:  "12 meses",
				Resources: []string{"time"},
			}
		}
		switch category {
		case model.CategoryPhysical:
			goals.Physical = details
		case model.CategoryMental:
			goals.Mental = details
		case model.CategorySocial:
			goals.Social = details
		case model.CategoryEmotional:
			goals.Emotional = details
		case model.CategorySpiritual:
			goals.Spiritual = details
		case model.CategoryCharacter:
			goals.Character = details
		}
	}

	return &model.Project{
		VisionData: model.VisionData{
			Name:      "Ana",
			Physical:  "saúde plena",
			Mental:    "mente afiada",
			Social:    "amizades fortes",
			Emotional: "equilíbrio",
			Spiritual: "paz interior",
			Character: "integridade",
		},
		GeneratedGoals: goals,
		CurrentStep:    model.StepReport,
		Completed:      true,
	}
}

func TestRenderReportContainsNameAndSections(t *testing.T) {
	svc := NewReportService()

	report, err := svc.Render(testProject(t))
	require.NoError(t, err)

	html := string(report)
	assert.Contains(t, html, "Ana")
	for _, label := range []string{"Físico", "Mental", "Social", "Emocional", "Espiritual", "Caráter"} {
		assert.Contains(t, html, label)
	}
	assert.Contains(t, html, "saúde plena")
	assert.Contains(t, html, "physical goal")
	assert.Contains(t, html, "Ano 1")
	assert.Contains(t, html, "Ano 5")
}

func TestRenderReportIsSelfContained(t *testing.T) {
	svc := NewReportService()

	report, err := svc.Render(testProject(t))
	require.NoError(t, err)

	html := string(report)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<style>")
	assert.NotContains(t, html, "src=", "report must not reference external assets")
}

func TestRenderReportEscapesUserText(t *testing.T) {
	svc := NewReportService()
	project := testProject(t)
	project.VisionData.Physical = `<script>alert("x")</script>`

	report, err := svc.Render(project)
	require.NoError(t, err)

	assert.NotContains(t, string(report), "<script>alert")
}

func TestRenderReportRequiresGoals(t *testing.T) {
	svc := NewReportService()
	project := testProject(t)
	project.GeneratedGoals = nil

	_, err := svc.Render(project)
	assert.ErrorIs(t, err, ErrGoalsNotGenerated)
}

func TestReportFilename(t *testing.T) {
	svc := NewReportService()

	assert.Equal(t, "projeto-de-vida-ana.html", svc.Filename("Ana"))
	assert.Equal(t, "projeto-de-vida-ana-clara-souza.html", svc.Filename("  Ana Clara  Souza "))
}
