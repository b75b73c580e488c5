// Package media owns the image asset lifecycle: upload processing,
// reference reconciliation, storage cleanup and orphan sweeping.
package media

import (
	"context"
	"log/slog"

	"github.com/ateliercms/api/internal/storage"
)

// UploadSet groups processed upload addresses by their target field.
type UploadSet struct {
	Poster   string
	Gallery  []string
	Sections map[int][]string
}

// Service coordinates upload processing and the side-effecting half of
// reference reconciliation against one storage backend.
type Service struct {
	backend   storage.Backend
	processor *Processor
	logger    *slog.Logger
}

// NewService creates a media service writing through backend.
func NewService(backend storage.Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:   backend,
		processor: NewProcessor(backend, logger),
		logger:    logger,
	}
}

// Backend exposes the underlying storage backend for composition.
func (s *Service) Backend() storage.Backend {
	return s.backend
}

// ProcessUploads validates, optimizes and stores every descriptor under the
// namespace, grouping the resulting addresses by target field. Descriptors
// with unrecognized field names are ignored. Order within each field
// follows upload order.
func (s *Service) ProcessUploads(ctx context.Context, namespace string, descriptors []Descriptor) (UploadSet, error) {
	set := UploadSet{Sections: make(map[int][]string)}

	var poster, gallery []Descriptor
	sections := make(map[int][]Descriptor)

	for _, d := range descriptors {
		switch target := ParseFieldTarget(d.Field); target.Kind {
		case TargetPoster:
			poster = append(poster, d)
		case TargetGallery:
			gallery = append(gallery, d)
		case TargetSectionImages:
			sections[target.Section] = append(sections[target.Section], d)
		default:
			s.logger.Warn("ignoring upload with unknown field", slog.String("field", d.Field))
		}
	}

	if len(poster) > 0 {
		addrs, err := s.processor.Process(ctx, namespace, poster[:1])
		if err != nil {
			return UploadSet{}, err
		}
		if len(addrs) > 0 {
			set.Poster = addrs[0]
		}
	}

	addrs, err := s.processor.Process(ctx, namespace, gallery)
	if err != nil {
		return UploadSet{}, err
	}
	set.Gallery = addrs

	for idx, ds := range sections {
		addrs, err := s.processor.Process(ctx, namespace, ds)
		if err != nil {
			return UploadSet{}, err
		}
		if len(addrs) > 0 {
			set.Sections[idx] = addrs
		}
	}

	return set, nil
}

// ApplyPlan executes the deletion half of a reconciliation plan. Individual
// failures are logged and never abort the operation: the caller persists
// the new reference set regardless, so storage can only diverge in the safe
// direction (stale file, never dangling reference).
func (s *Service) ApplyPlan(ctx context.Context, plan Plan) {
	s.DeleteAll(ctx, plan.ToDelete)
}

// DeleteAll best-effort deletes every address and returns how many assets
// were actually removed.
func (s *Service) DeleteAll(ctx context.Context, addrs []string) int {
	deleted := 0
	for _, addr := range addrs {
		ok, err := s.backend.Delete(ctx, addr)
		if err != nil {
			s.logger.Warn("failed to delete stored image",
				slog.String("addr", addr),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			deleted++
		} else {
			s.logger.Info("stored image already absent", slog.String("addr", addr))
		}
	}
	return deleted
}
