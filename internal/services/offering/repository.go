// Package offering manages the marketing service pages (the "services"
// section of the site) and their image assets.
package offering

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ateliercms/api/internal/models"
)

// ErrNotFound is returned when a service page does not exist.
var ErrNotFound = errors.New("service not found")

// ErrDuplicateTitle is returned when the title is already taken.
var ErrDuplicateTitle = errors.New("service with this title already exists")

// Repository handles all service-page database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository backed by the given pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const offeringColumns = `id, title, description, poster_img, sections, created_at, updated_at`

func scanOffering(row pgx.Row) (*models.Service, error) {
	svc := &models.Service{}
	err := row.Scan(&svc.ID, &svc.Title, &svc.Description, &svc.PosterImage,
		&svc.Sections, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// Create inserts a service page and fills in the generated fields.
func (r *Repository) Create(ctx context.Context, svc *models.Service) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO services (title, description, poster_img, sections)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		svc.Title, svc.Description, svc.PosterImage, svc.Sections,
	).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// List returns all service pages, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Service, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+offeringColumns+` FROM services ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := []models.Service{}
	for rows.Next() {
		svc, err := scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, *svc)
	}
	return services, rows.Err()
}

// Get fetches a service page by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := scanOffering(r.db.QueryRow(ctx,
		`SELECT `+offeringColumns+` FROM services WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// Update persists the mutable fields of a service page.
func (r *Repository) Update(ctx context.Context, svc *models.Service) error {
	err := r.db.QueryRow(ctx,
		`UPDATE services
		 SET title = $2, description = $3, poster_img = $4, sections = $5,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		svc.ID, svc.Title, svc.Description, svc.PosterImage, svc.Sections,
	).Scan(&svc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}

// Delete removes a service page row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TitleExists reports whether another service page (excluding the given ID)
// already uses the title.
func (r *Repository) TitleExists(ctx context.Context, title string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM services WHERE title = $1 AND id <> $2)`,
		title, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check service title: %w", err)
	}
	return exists, nil
}

// LiveImageRefs returns every image address referenced by any service page:
// posters plus all section galleries. Used by the orphan sweeper.
func (r *Repository) LiveImageRefs(ctx context.Context) ([]string, error) {
	services, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, svc := range services {
		if svc.PosterImage != nil && *svc.PosterImage != "" {
			refs = append(refs, *svc.PosterImage)
		}
		for _, section := range svc.Sections {
			refs = append(refs, section.Images...)
		}
	}
	return refs, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL
// unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
