package contact

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/models"
)

// Notifier delivers a notification about a new inquiry.
type Notifier interface {
	NotifyContact(c models.Contact) error
}

// CreateInput carries a new inquiry from the public form.
type CreateInput struct {
	FirstName        string
	LastName         string
	Phone            string
	Email            string
	OrganizationName string
	Message          string
}

// Service orchestrates inquiry persistence and notification.
type Service struct {
	repo     *Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewService wires the contact service. notifier may be nil.
func NewService(repo *Repository, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Create persists the inquiry and sends the notification email. The
// inquiry is already saved when notification runs, so a mail failure is
// logged rather than surfaced to the visitor.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Contact, error) {
	c := &models.Contact{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Phone:            in.Phone,
		Email:            in.Email,
		OrganizationName: in.OrganizationName,
		Message:          in.Message,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyContact(*c); err != nil {
			s.logger.Warn("contact notification failed",
				slog.String("contact_id", c.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return c, nil
}

// List returns all inquiries, newest first.
func (s *Service) List(ctx context.Context) ([]models.Contact, error) {
	return s.repo.List(ctx)
}

// Get fetches one inquiry.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes one inquiry.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
