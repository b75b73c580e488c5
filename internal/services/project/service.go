package project

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/models"
	"github.com/ateliercms/api/internal/services/media"
)

// uploadNamespace is the storage subdirectory for project assets.
const uploadNamespace = "projects"

// CreateInput carries the text fields of a new project.
type CreateInput struct {
	Client      string
	Title       string
	Description string
}

// UpdateInput carries the text fields plus the retained-image lists of an
// update request. The pointer fields distinguish "absent" (keep the stored
// value) from "present but empty" (overwrite or drop).
type UpdateInput struct {
	Client       *string
	Title        string
	Description  *string
	RetainPoster *string
	RetainImages *[]string
}

// Service orchestrates project persistence and the image lifecycle.
type Service struct {
	repo   *Repository
	media  *media.Service
	logger *slog.Logger
}

// NewService wires the project service.
func NewService(repo *Repository, mediaSvc *media.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, media: mediaSvc, logger: logger}
}

// Create stores the uploaded images and inserts the project. The title
// check runs before any upload so a rejected request leaves no assets
// behind.
func (s *Service) Create(ctx context.Context, in CreateInput, uploads []media.Descriptor) (*models.Project, error) {
	taken, err := s.repo.TitleExists(ctx, in.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateTitle
	}

	set, err := s.media.ProcessUploads(ctx, uploadNamespace, uploads)
	if err != nil {
		return nil, err
	}

	p := &models.Project{
		Client:      in.Client,
		Title:       in.Title,
		Description: in.Description,
		Images:      set.Gallery,
	}
	if set.Poster != "" {
		p.PosterImage = &set.Poster
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		// Stored files are now unreferenced; the sweeper reclaims them.
		s.logger.Warn("project insert failed after upload",
			slog.Int("uploaded", len(set.Gallery)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return p, nil
}

// Update reconciles the project's image references against the retained
// lists and new uploads, deletes whatever fell out of use, and persists
// the result.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, uploads []media.Descriptor) (*models.Project, error) {
	taken, err := s.repo.TitleExists(ctx, in.Title, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateTitle
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	set, err := s.media.ProcessUploads(ctx, uploadNamespace, uploads)
	if err != nil {
		return nil, err
	}

	var retainPoster string
	if in.RetainPoster != nil {
		retainPoster = *in.RetainPoster
	}
	posterPlan := media.ReconcilePoster(existing.PosterImage, retainPoster, in.RetainPoster != nil, set.Poster)

	var retainImages []string
	if in.RetainImages != nil {
		retainImages = *in.RetainImages
	}
	galleryPlan := media.Reconcile(existing.Images, retainImages, in.RetainImages != nil, set.Gallery)

	s.media.ApplyPlan(ctx, posterPlan)
	s.media.ApplyPlan(ctx, galleryPlan)

	if in.Client != nil {
		existing.Client = *in.Client
	}
	existing.Title = in.Title
	if in.Description != nil {
		existing.Description = *in.Description
	}
	existing.PosterImage = posterPlan.Poster()
	existing.Images = galleryPlan.Next
	if existing.Images == nil {
		existing.Images = []string{}
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes the project and best-effort deletes every image it
// referenced. Returns the removed project and how many assets were
// actually deleted from storage.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*models.Project, int, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, 0, err
	}

	refs := p.Images
	if p.PosterImage != nil && *p.PosterImage != "" {
		refs = append([]string{*p.PosterImage}, refs...)
	}
	deleted := s.media.DeleteAll(ctx, refs)

	return p, deleted, nil
}

// List returns all projects, newest first.
func (s *Service) List(ctx context.Context) ([]models.Project, error) {
	return s.repo.List(ctx)
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.repo.Get(ctx, id)
}
