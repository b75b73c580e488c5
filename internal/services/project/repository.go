// Package project manages portfolio projects and their image assets.
package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ateliercms/api/internal/models"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project not found")

// ErrDuplicateTitle is returned when another project already uses the title.
var ErrDuplicateTitle = errors.New("project with this title already exists")

// Repository handles all project database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository backed by the given pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const projectColumns = `id, client, title, description, poster_img, images, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(&p.ID, &p.Client, &p.Title, &p.Description, &p.PosterImage,
		&p.Images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a project and fills in the generated fields.
func (r *Repository) Create(ctx context.Context, p *models.Project) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO projects (client, title, description, poster_img, images)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.Client, p.Title, p.Description, p.PosterImage, p.Images,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// List returns all projects, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Get fetches a project by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Update persists the mutable fields of a project.
func (r *Repository) Update(ctx context.Context, p *models.Project) error {
	err := r.db.QueryRow(ctx,
		`UPDATE projects
		 SET client = $2, title = $3, description = $4, poster_img = $5,
		     images = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		p.ID, p.Client, p.Title, p.Description, p.PosterImage, p.Images,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// Delete removes a project row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TitleExists reports whether another project (excluding the given ID)
// already uses the title.
func (r *Repository) TitleExists(ctx context.Context, title string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE title = $1 AND id <> $2)`,
		title, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check project title: %w", err)
	}
	return exists, nil
}

// LiveImageRefs returns every image address referenced by any project,
// posters included. Used by the orphan sweeper.
func (r *Repository) LiveImageRefs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT poster_img FROM projects WHERE poster_img IS NOT NULL AND poster_img <> ''
		 UNION ALL
		 SELECT unnest(images) FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("list project image refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan project image ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
