package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/skinerbold/lifeplan/internal/model"
	"github.com/skinerbold/lifeplan/internal/repository"
)

// DatabaseStore persists one project snapshot per authenticated user.
type DatabaseStore struct {
	repo   repository.ProjectRepository
	userID string
}

func NewDatabaseStore(repo repository.ProjectRepository, userID string) *DatabaseStore {
	return &DatabaseStore{
		repo:   repo,
		userID: userID,
	}
}

func (s *DatabaseStore) Load(ctx context.Context) (*model.Project, error) {
	project, err := s.repo.ByUserID(s.userID)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	return project, nil
}

func (s *DatabaseStore) Save(ctx context.Context, project *model.Project) error {
	project.UserID = s.userID

	err := s.repo.Upsert(project)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	return nil
}

func (s *DatabaseStore) Clear(ctx context.Context) error {
	err := s.repo.DeleteByUserID(s.userID)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}
