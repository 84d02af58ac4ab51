package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisionDataComplete(t *testing.T) {
	vision := VisionData{Name: "Ana"}
	assert.False(t, vision.Complete(), "empty vision should be incomplete")

	for _, category := range Categories {
		require.True(t, vision.SetField(category, "some vision"))
	}
	assert.True(t, vision.Complete())
}

func TestVisionDataCompleteTrimsWhitespace(t *testing.T) {
	vision := VisionData{}
	for _, category := range Categories {
		require.True(t, vision.SetField(category, "   \t "))
	}
	assert.False(t, vision.Complete(), "whitespace-only fields should not count")
}

func TestVisionDataFieldRoundTrip(t *testing.T) {
	vision := VisionData{}
	for i, category := range Categories {
		value := category + "-vision"
		require.True(t, vision.SetField(category, value), "category %d", i)
		assert.Equal(t, value, vision.Field(category))
	}
}

func TestVisionDataUnknownCategory(t *testing.T) {
	vision := VisionData{}
	assert.False(t, vision.SetField("financial", "nope"))
	assert.Empty(t, vision.Field("financial"))
}

func TestBlank(t *testing.T) {
	project := Blank()

	assert.Equal(t, StepWelcome, project.CurrentStep)
	assert.False(t, project.Completed)
	assert.Nil(t, project.GeneratedGoals)
	assert.Empty(t, project.VisionData.Name)
}

func TestCategoriesOrder(t *testing.T) {
	assert.Equal(t, []string{"physical", "mental", "social", "emotional", "spiritual", "character"}, Categories)
}
