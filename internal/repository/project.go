package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/skinerbold/lifeplan/internal/model"
)

var (
	ErrProjectNotFound = errors.New("project not found")
)

// noGoalsSentinel is stored in generated_goals while no generation has
// succeeded yet. Absence is always explicit, never a NULL column.
const noGoalsSentinel = "{}"

type ProjectRepository interface {
	Upsert(project *model.Project) error
	ByUserID(userID string) (*model.Project, error)
	DeleteByUserID(userID string) error
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// projectRow is the flat database shape of a project snapshot. Vision
// fields are stored as individual columns, generated goals as one JSON
// text blob.
type projectRow struct {
	ID             string    `db:"id"`
	UserID         string    `db:"user_id"`
	Name           string    `db:"name"`
	Physical       string    `db:"physical"`
	Mental         string    `db:"mental"`
	Social         string    `db:"social"`
	Emotional      string    `db:"emotional"`
	Spiritual      string    `db:"spiritual"`
	Character      string    `db:"character"`
	GeneratedGoals string    `db:"generated_goals"`
	CurrentStep    int       `db:"current_step"`
	Completed      bool      `db:"completed"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (row *projectRow) toModel() (*model.Project, error) {
	project := &model.Project{
		ID:     row.ID,
		UserID: row.UserID,
		VisionData: model.VisionData{
			Name:      row.Name,
			Physical:  row.Physical,
			Mental:    row.Mental,
			Social:    row.Social,
			Emotional: row.Emotional,
			Spiritual: row.Spiritual,
			Character: row.Character,
		},
		CurrentStep: row.CurrentStep,
		Completed:   row.Completed,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}

	if row.GeneratedGoals != "" && row.GeneratedGoals != noGoalsSentinel {
		goals := &model.GeneratedGoals{}
		err := json.Unmarshal([]byte(row.GeneratedGoals), goals)
		if err != nil {
			return nil, fmt.Errorf("failed to decode generated goals: %w", err)
		}
		project.GeneratedGoals = goals
	}

	return project, nil
}

// Upsert writes the full snapshot for the project's user, inserting on
// first save and overwriting on subsequent ones. The UNIQUE constraint
// on user_id makes the insert-or-update atomic, so there is no
// find-then-write race between concurrent saves.
func (r *projectRepository) Upsert(project *model.Project) error {
	goalsBlob := noGoalsSentinel
	if project.GeneratedGoals != nil {
		encoded, err := json.Marshal(project.GeneratedGoals)
		if err != nil {
			return fmt.Errorf("failed to encode generated goals: %w", err)
		}
		goalsBlob = string(encoded)
	}

	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	query := `INSERT INTO projects (id, user_id, name, physical, mental, social, emotional, spiritual, character,
	                                generated_goals, current_step, completed, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          ON CONFLICT (user_id) DO UPDATE SET
	              name = excluded.name,
	              physical = excluded.physical,
	              mental = excluded.mental,
	              social = excluded.social,
	              emotional = excluded.emotional,
	              spiritual = excluded.spiritual,
	              character = excluded.character,
	              generated_goals = excluded.generated_goals,
	              current_step = excluded.current_step,
	              completed = excluded.completed,
	              updated_at = excluded.updated_at`

	_, err := r.db.Exec(query,
		project.ID,
		project.UserID,
		project.VisionData.Name,
		project.VisionData.Physical,
		project.VisionData.Mental,
		project.VisionData.Social,
		project.VisionData.Emotional,
		project.VisionData.Spiritual,
		project.VisionData.Character,
		goalsBlob,
		project.CurrentStep,
		project.Completed,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// On conflict the stored row keeps its original id and created_at;
	// read them back so the caller sees the durable values.
	row := &projectRow{}
	err = r.db.Get(row, `SELECT id, created_at FROM projects WHERE user_id = $1`, project.UserID)
	if err != nil {
		return err
	}
	project.ID = row.ID
	project.CreatedAt = row.CreatedAt

	return nil
}

func (r *projectRepository) ByUserID(userID string) (*model.Project, error) {
	row := &projectRow{}
	query := `SELECT * FROM projects WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`

	err := r.db.Get(row, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	return row.toModel()
}

func (r *projectRepository) DeleteByUserID(userID string) error {
	query := `DELETE FROM projects WHERE user_id = $1`
	result, err := r.db.Exec(query, userID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrProjectNotFound
	}

	return nil
}
