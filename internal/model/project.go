package model

import (
	"strings"
	"time"
)

// Wizard steps, in order. The flow is strictly linear.
const (
	StepWelcome    = 0
	StepVision     = 1
	StepGenerating = 2
	StepReport     = 3
)

// Categories lists the six life categories in presentation order.
// Generated goals are keyed by exactly these names.
var Categories = []string{
	CategoryPhysical,
	CategoryMental,
	CategorySocial,
	CategoryEmotional,
	CategorySpiritual,
	CategoryCharacter,
}

const (
	CategoryPhysical  = "physical"
	CategoryMental    = "mental"
	CategorySocial    = "social"
	CategoryEmotional = "emotional"
	CategorySpiritual = "spiritual"
	CategoryCharacter = "character"
)

// VisionData holds the user's free-text vision statement per life category.
type VisionData struct {
	Name      string `json:"name"`
	Physical  string `json:"physical"`
	Mental    string `json:"mental"`
	Social    string `json:"social"`
	Emotional string `json:"emotional"`
	Spiritual string `json:"spiritual"`
	Character string `json:"character"`
}

// Field returns the vision statement for a category, or "" for an
// unknown category.
func (v *VisionData) Field(category string) string {
	switch category {
	case CategoryPhysical:
		return v.Physical
	case CategoryMental:
		return v.Mental
	case CategorySocial:
		return v.Social
	case CategoryEmotional:
		return v.Emotional
	case CategorySpiritual:
		return v.Spiritual
	case CategoryCharacter:
		return v.Character
	}
	return ""
}

// SetField sets the vision statement for a category. Unknown categories
// are ignored and reported via the return value.
func (v *VisionData) SetField(category, value string) bool {
	switch category {
	case CategoryPhysical:
		v.Physical = value
	case CategoryMental:
		v.Mental = value
	case CategorySocial:
		v.Social = value
	case CategoryEmotional:
		v.Emotional = value
	case CategorySpiritual:
		v.Spiritual = value
	case CategoryCharacter:
		v.Character = value
	default:
		return false
	}
	return true
}

// Complete reports whether the vision step is done: all six category
// fields non-empty after trimming whitespace. The name is gated
// separately on the welcome step.
func (v *VisionData) Complete() bool {
	for _, category := range Categories {
		if strings.TrimSpace(v.Field(category)) == "" {
			return false
		}
	}
	return true
}

// GoalDetail is one concrete annual goal within a category.
type GoalDetail struct {
	Goal      string   `json:"goal"`
	Actions   []string `json:"actions"`
	Timeline  string   `json:"timeline"`
	Resources []string `json:"resources"`
}

// GeneratedGoals maps each category to its five annual goals
// (index 0..4 = year 1..5). It is created and replaced wholesale by a
// generation call, never partially merged.
type GeneratedGoals struct {
	Physical  []GoalDetail `json:"physical"`
	Mental    []GoalDetail `json:"mental"`
	Social    []GoalDetail `json:"social"`
	Emotional []GoalDetail `json:"emotional"`
	Spiritual []GoalDetail `json:"spiritual"`
	Character []GoalDetail `json:"character"`
}

// Category returns the goal list for a category name.
func (g *GeneratedGoals) Category(category string) []GoalDetail {
	switch category {
	case CategoryPhysical:
		return g.Physical
	case CategoryMental:
		return g.Mental
	case CategorySocial:
		return g.Social
	case CategoryEmotional:
		return g.Emotional
	case CategorySpiritual:
		return g.Spiritual
	case CategoryCharacter:
		return g.Character
	}
	return nil
}

// Project is the durable snapshot of one user's planner state.
// ID and the timestamps are server-assigned and absent for local-only
// (anonymous) snapshots.
type Project struct {
	ID             string          `json:"id,omitempty"`
	UserID         string          `json:"-"`
	VisionData     VisionData      `json:"visionData"`
	GeneratedGoals *GeneratedGoals `json:"generatedGoals"`
	CurrentStep    int             `json:"currentStep"`
	Completed      bool            `json:"completed"`
	CreatedAt      time.Time       `json:"createdAt,omitzero"`
	UpdatedAt      time.Time       `json:"updatedAt,omitzero"`
}

// Blank returns a fresh default project snapshot.
func Blank() *Project {
	return &Project{CurrentStep: StepWelcome}
}
