package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/auth"
	"github.com/ateliercms/api/internal/models"
)

// RegisterInput carries a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// UpdateInput carries a partial account update; nil fields are unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	IsAdmin  *bool
}

// Service orchestrates account management and authentication.
type Service struct {
	repo   *Repository
	jwt    *auth.JWTManager
	logger *slog.Logger
}

// NewService wires the user service.
func NewService(repo *Repository, jwtMgr *auth.JWTManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, jwt: jwtMgr, logger: logger}
}

// Register hashes the password and creates the account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, "", auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, "", auth.ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Update applies the submitted fields; a new password is re-hashed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all accounts, newest first.
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes one account.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

// Count returns the number of registered users.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
