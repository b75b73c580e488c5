package offering

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/imageref"
	"github.com/ateliercms/api/internal/models"
	"github.com/ateliercms/api/internal/services/media"
)

// uploadNamespace is the storage subdirectory for service-page assets.
const uploadNamespace = "services"

// CreateInput carries a new service page. Section image lists are ignored
// on create; images arrive as uploads.
type CreateInput struct {
	Title       string
	Description string
	Sections    []models.Section
}

// UpdateInput carries an update. Sections, when present, fully replace the
// stored ones and their image lists act as retain lists; a nil Sections
// preserves the stored sections. Description and RetainPoster follow the
// same absent-vs-empty distinction.
type UpdateInput struct {
	Title        string
	Description  *string
	Sections     *[]models.Section
	RetainPoster *string
}

// Service orchestrates service-page persistence and the image lifecycle.
type Service struct {
	repo   *Repository
	media  *media.Service
	logger *slog.Logger
}

// NewService wires the service-page service.
func NewService(repo *Repository, mediaSvc *media.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, media: mediaSvc, logger: logger}
}

// Create stores the uploaded images and inserts the page. The title check
// runs before any upload so a rejected request leaves no assets behind.
func (s *Service) Create(ctx context.Context, in CreateInput, uploads []media.Descriptor) (*models.Service, error) {
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

	sections := make([]models.Section, len(in.Sections))
	for i, section := range in.Sections {
		section.Images = append([]string{}, set.Sections[i]...)
		if section.Points == nil {
			section.Points = []string{}
		}
		sections[i] = section
	}

	svc := &models.Service{
		Title:       in.Title,
		Description: in.Description,
		Sections:    sections,
	}
	if set.Poster != "" {
		svc.PosterImage = &set.Poster
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		// Stored files are now unreferenced; the sweeper reclaims them.
		s.logger.Warn("service insert failed after upload", slog.String("error", err.Error()))
		return nil, err
	}
	return svc, nil
}

// Update reconciles section galleries and the poster against the submitted
// content and new uploads, deletes whatever fell out of use, and persists
// the result.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, uploads []media.Descriptor) (*models.Service, error) {
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

	nextSections, toDelete := reconcileSections(existing.Sections, in.Sections, set.Sections)

	s.media.ApplyPlan(ctx, posterPlan)
	s.media.DeleteAll(ctx, toDelete)

	existing.Title = in.Title
	if in.Description != nil {
		existing.Description = *in.Description
	}
	existing.PosterImage = posterPlan.Poster()
	existing.Sections = nextSections

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes the page and best-effort deletes every image it
// referenced. Returns the removed page and how many assets were actually
// deleted from storage.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*models.Service, int, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, 0, err
	}

	var refs []string
	if svc.PosterImage != nil && *svc.PosterImage != "" {
		refs = append(refs, *svc.PosterImage)
	}
	for _, section := range svc.Sections {
		refs = append(refs, section.Images...)
	}
	deleted := s.media.DeleteAll(ctx, refs)

	return svc, deleted, nil
}

// List returns all service pages, newest first.
func (s *Service) List(ctx context.Context) ([]models.Service, error) {
	return s.repo.List(ctx)
}

// Get fetches one service page.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return s.repo.Get(ctx, id)
}

// reconcileSections computes the next section list and the set of stored
// addresses that no section references anymore. Submitted image lists are
// retain lists in any accepted form (stored address or display path); new
// uploads are appended to their target section in upload order. A nil
// submitted list preserves the stored sections and deletes nothing.
//
// Retained references are intersected with the union of all existing
// section refs, so an image may move between sections but an unknown or
// already-deleted address can never be persisted as live.
func reconcileSections(existing []models.Section, submitted *[]models.Section, uploads map[int][]string) ([]models.Section, []string) {
	if submitted == nil {
		next := make([]models.Section, len(existing))
		copy(next, existing)
		for i := range next {
			next[i].Images = append(next[i].Images, uploads[i]...)
		}
		return next, nil
	}

	known := make(map[string]bool)
	for _, section := range existing {
		for _, ref := range section.Images {
			if n := normalizeRef(ref); n != "" {
				known[n] = true
			}
		}
	}

	retained := make(map[string]bool)
	next := make([]models.Section, len(*submitted))
	for i, section := range *submitted {
		images := make([]string, 0, len(section.Images)+len(uploads[i]))
		for _, ref := range section.Images {
			ref = normalizeRef(ref)
			if ref == "" || !known[ref] {
				continue
			}
			retained[ref] = true
			images = append(images, ref)
		}
		images = append(images, uploads[i]...)
		section.Images = images
		if section.Points == nil {
			section.Points = []string{}
		}
		next[i] = section
	}

	var toDelete []string
	for _, section := range existing {
		for _, ref := range section.Images {
			ref = normalizeRef(ref)
			if ref != "" && !retained[ref] {
				toDelete = append(toDelete, ref)
			}
		}
	}
	return next, toDelete
}

// normalizeRef brings a reference to canonical stored form; absolute URLs
// pass through untouched.
func normalizeRef(ref string) string {
	if ref == "" || imageref.IsRemote(ref) {
		return ref
	}
	return imageref.Normalize(ref)
}
