package service

import (
	"errors"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo      domain.UserRepository
	workspaceRepo domain.WorkspaceRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, workspaceRepo domain.WorkspaceRepository) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
	}
}

// BootstrapResult is what a client needs after login
type BootstrapResult struct {
	User      *domain.User
	Workspace *domain.Workspace
	IsNewUser bool
}

// Bootstrap provisions the authenticated identity on first login: the
// user record is created from the token claims and a personal workspace
// is attached. Subsequent calls return the existing pair.
func (s *AuthService) Bootstrap(auth0ID, email string, name, pictureURL *string) (*BootstrapResult, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name, pictureURL)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	workspace, err := s.workspaceRepo.GetByUserID(user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			workspace, err = s.workspaceRepo.Create(&domain.Workspace{
				UserID: user.ID,
				Name:   "Personal",
			})
			if err != nil {
				log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create workspace")
				return nil, err
			}
			log.Info().Str("user_id", user.ID.String()).Msg("Created new user with workspace")
			return &BootstrapResult{User: user, Workspace: workspace, IsNewUser: true}, nil
		}
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get workspace")
		return nil, err
	}

	return &BootstrapResult{User: user, Workspace: workspace, IsNewUser: false}, nil
}

// GetUserByAuth0ID retrieves a user by their Auth0 subject
func (s *AuthService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// GetWorkspaceByAuth0ID retrieves a user's workspace by their Auth0
// subject. Used by the middleware to scope every request.
func (s *AuthService) GetWorkspaceByAuth0ID(auth0ID string) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByUserAuth0ID(auth0ID)
}

// GetWorkspaceByID retrieves a workspace by its ID
func (s *AuthService) GetWorkspaceByID(id int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(id)
}
