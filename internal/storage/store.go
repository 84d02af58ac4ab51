// Package storage provides the durable backends for project snapshots.
// Authenticated sessions persist through the database, anonymous ones
// through a single local JSON mirror. The selection happens once per
// session based on identity presence; the stores never authenticate.
package storage

import (
	"context"

	"github.com/skinerbold/lifeplan/internal/model"
)

// ProjectStore is the uniform load/save contract over both backends.
type ProjectStore interface {
	// Load returns the stored snapshot, or (nil, nil) when no project
	// exists yet.
	Load(ctx context.Context) (*model.Project, error)

	// Save durably writes the full snapshot. Last write wins; saves are
	// not coordinated across sessions.
	Save(ctx context.Context, project *model.Project) error

	// Clear erases the stored snapshot. Clearing an empty store is a
	// no-op.
	Clear(ctx context.Context) error
}
