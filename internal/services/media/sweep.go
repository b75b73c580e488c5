package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ReferenceSource yields every image address currently referenced by live
// entities of one kind. The project and service repositories implement it;
// cmd/server composes them into the sweeper's used set.
type ReferenceSource interface {
	LiveImageRefs(ctx context.Context) ([]string, error)
}

// AgeReporter is implemented by backends that can report an asset's age.
// The sweeper uses it to apply the grace window; backends without it (or
// assets it cannot stat) are treated as old enough to sweep.
type AgeReporter interface {
	ModTime(addr string) (time.Time, error)
}

// Report summarizes one sweep run.
type Report struct {
	Scanned  int      `json:"totalFiles"`
	Used     int      `json:"usedFiles"`
	Orphaned int      `json:"orphanedFiles"`
	Deleted  int      `json:"deletedFiles"`
	Skipped  int      `json:"skippedFiles"`
	Removed  []string `json:"removed"`
}

// Sweeper deletes stored assets that no live entity references. It runs
// outside the request path; concurrent entity updates are tolerated via the
// grace window, which keeps a just-uploaded file from being swept before
// its entity write lands.
type Sweeper struct {
	media   *Service
	sources []ReferenceSource
	grace   time.Duration
	logger  *slog.Logger
}

// NewSweeper creates a sweeper over the given reference sources. Assets
// younger than grace are never deleted; zero disables the window.
func NewSweeper(mediaSvc *Service, sources []ReferenceSource, grace time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		media:   mediaSvc,
		sources: sources,
		grace:   grace,
		logger:  logger,
	}
}

// Sweep scans every stored asset, subtracts the set referenced by live
// entities, and deletes the complement. Individual deletion failures are
// logged and do not abort the run.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	return s.run(ctx, true)
}

// Plan is a dry run: it computes the same report as Sweep but deletes
// nothing. Removed lists what a real sweep would delete.
func (s *Sweeper) Plan(ctx context.Context) (Report, error) {
	return s.run(ctx, false)
}

func (s *Sweeper) run(ctx context.Context, deleteOrphans bool) (Report, error) {
	used := make(map[string]bool)
	for _, src := range s.sources {
		refs, err := src.LiveImageRefs(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("collecting live references: %w", err)
		}
		for _, ref := range refs {
			if n := normalizeOne(ref); n != "" {
				used[n] = true
			}
		}
	}

	all, err := s.media.Backend().List(ctx, "")
	if err != nil {
		return Report{}, fmt.Errorf("listing stored assets: %w", err)
	}

	report := Report{Scanned: len(all), Used: len(used)}
	cutoff := time.Now().Add(-s.grace)

	for _, addr := range all {
		if used[normalizeOne(addr)] {
			continue
		}
		report.Orphaned++

		if s.grace > 0 && s.tooYoung(addr, cutoff) {
			report.Skipped++
			continue
		}

		if !deleteOrphans {
			report.Removed = append(report.Removed, addr)
			continue
		}

		ok, err := s.media.Backend().Delete(ctx, addr)
		if err != nil {
			s.logger.Warn("sweep: failed to delete orphan",
				slog.String("addr", addr),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			report.Deleted++
			report.Removed = append(report.Removed, addr)
		}
	}

	if !deleteOrphans {
		return report, nil
	}

	s.logger.Info("orphan sweep complete",
		slog.Int("scanned", report.Scanned),
		slog.Int("used", report.Used),
		slog.Int("orphaned", report.Orphaned),
		slog.Int("deleted", report.Deleted),
		slog.Int("skipped", report.Skipped),
	)
	return report, nil
}

// tooYoung reports whether the asset is inside the grace window. Assets
// whose age cannot be determined are swept.
func (s *Sweeper) tooYoung(addr string, cutoff time.Time) bool {
	ager, ok := s.media.Backend().(AgeReporter)
	if !ok {
		return false
	}
	mtime, err := ager.ModTime(addr)
	if err != nil {
		return false
	}
	return mtime.After(cutoff)
}
