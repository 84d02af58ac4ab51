package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/skinerbold/lifeplan/internal/db"
	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	// A second connection to :memory: would be a different database
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

func newTestUser(t *testing.T, database *sqlx.DB) *model.User {
	t.Helper()

	users := NewUserRepository(database)
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     uuid.New().String() + "@example.com",
		Name:      "Ana",
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.Create(user))
	return user
}

func testGoals() *model.GeneratedGoals {
	goals := &model.GeneratedGoals{}
	detail := model.GoalDetail{
		Goal:      "run a 10k",
		Actions:   []string{"train", "rest"},
		Timeline:  "12 meses",
		Resources: []string{"shoes"},
	}
	goals.Physical = []model.GoalDetail{detail, detail, detail, detail, detail}
	goals.Mental = goals.Physical
	goals.Social = goals.Physical
	goals.Emotional = goals.Physical
	goals.Spiritual = goals.Physical
	goals.Character = goals.Physical
	return goals
}

func TestProjectUpsertInsertThenLoad(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database)
	repo := NewProjectRepository(database)

	project := &model.Project{
		UserID: user.ID,
		VisionData: model.VisionData{
			Name:     "Ana",
			Physical: "saúde plena",
		},
		GeneratedGoals: testGoals(),
		CurrentStep:    model.StepGenerating,
	}
	require.NoError(t, repo.Upsert(project))
	assert.NotEmpty(t, project.ID)
	assert.False(t, project.UpdatedAt.IsZero())

	loaded, err := repo.ByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, loaded.ID)
	assert.Equal(t, project.VisionData, loaded.VisionData)
	assert.Equal(t, project.GeneratedGoals, loaded.GeneratedGoals)
	assert.Equal(t, model.StepGenerating, loaded.CurrentStep)
}

func TestProjectUpsertUpdatesInPlace(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database)
	repo := NewProjectRepository(database)

	first := &model.Project{
		UserID:     user.ID,
		VisionData: model.VisionData{Name: "Ana"},
	}
	require.NoError(t, repo.Upsert(first))

	second := &model.Project{
		UserID:      user.ID,
		VisionData:  model.VisionData{Name: "Ana", Mental: "mente afiada"},
		CurrentStep: model.StepVision,
	}
	require.NoError(t, repo.Upsert(second))

	assert.Equal(t, first.ID, second.ID, "the row keeps its identity across upserts")

	var count int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM projects WHERE user_id = $1`, user.ID).Scan(&count))
	assert.Equal(t, 1, count, "at most one project per user")

	loaded, err := repo.ByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "mente afiada", loaded.VisionData.Mental)
	assert.Equal(t, model.StepVision, loaded.CurrentStep)
}

func TestProjectNoGoalsSentinel(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database)
	repo := NewProjectRepository(database)

	require.NoError(t, repo.Upsert(&model.Project{UserID: user.ID}))

	var blob string
	require.NoError(t, database.QueryRow(`SELECT generated_goals FROM projects WHERE user_id = $1`, user.ID).Scan(&blob))
	assert.Equal(t, "{}", blob, "absence of goals is an explicit sentinel, not NULL")

	loaded, err := repo.ByUserID(user.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.GeneratedGoals)
}

func TestProjectByUserIDNotFound(t *testing.T) {
	database := newTestDB(t)
	repo := NewProjectRepository(database)

	_, err := repo.ByUserID("missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectDeleteByUserID(t *testing.T) {
	database := newTestDB(t)
	user := newTestUser(t, database)
	repo := NewProjectRepository(database)

	require.NoError(t, repo.Upsert(&model.Project{UserID: user.ID}))
	require.NoError(t, repo.DeleteByUserID(user.ID))

	_, err := repo.ByUserID(user.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	assert.ErrorIs(t, repo.DeleteByUserID(user.ID), ErrProjectNotFound)
}
