package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kassa-app/kassa-backend/internal/domain"
)

const workspaceColumns = `id, user_id, name, created_at, updated_at`

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// GetByID retrieves a workspace by its ID
func (r *WorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE id = $1`,
		id)

	workspace, err := scanWorkspace(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return workspace, nil
}

// GetByUserID retrieves the workspace owned by a user
func (r *WorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE user_id = $1`,
		pgtype.UUID{Bytes: userID, Valid: true})

	workspace, err := scanWorkspace(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return workspace, nil
}

// GetByUserAuth0ID retrieves the workspace owned by the user with the
// given Auth0 subject. Used to scope requests from token claims.
func (r *WorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		SELECT w.id, w.user_id, w.name, w.created_at, w.updated_at
		FROM workspaces w
		JOIN users u ON u.id = w.user_id
		WHERE u.auth0_id = $1`,
		auth0ID)

	workspace, err := scanWorkspace(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return workspace, nil
}

// Create creates a new workspace
func (r *WorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO workspaces (user_id, name)
		VALUES ($1, $2)
		RETURNING `+workspaceColumns,
		pgtype.UUID{Bytes: workspace.UserID, Valid: true}, workspace.Name)

	created, err := scanWorkspace(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// Helper functions

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var (
		workspace domain.Workspace
		userID    pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&workspace.ID,
		&userID,
		&workspace.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	workspace.UserID = uuid.UUID(userID.Bytes)
	workspace.CreatedAt = createdAt.Time
	workspace.UpdatedAt = updatedAt.Time
	return &workspace, nil
}
