package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workspace partitions all finance data. Every user owns exactly one,
// created alongside the user on first login.
type Workspace struct {
	ID        int32     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WorkspaceRepository interface {
	GetByID(id int32) (*Workspace, error)
	GetByUserID(userID uuid.UUID) (*Workspace, error)
	GetByUserAuth0ID(auth0ID string) (*Workspace, error)
	Create(workspace *Workspace) (*Workspace, error)
}
