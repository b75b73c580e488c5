// Package contact manages inbound inquiries from the public contact form.
package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ateliercms/api/internal/models"
)

// ErrNotFound is returned when an inquiry does not exist.
var ErrNotFound = errors.New("contact not found")

// Repository handles all contact database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository backed by the given pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const contactColumns = `id, first_name, last_name, phone, email, organization_name, message, created_at`

func scanContact(row pgx.Row) (*models.Contact, error) {
	c := &models.Contact{}
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email,
		&c.OrganizationName, &c.Message, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts an inquiry and fills in the generated fields.
func (r *Repository) Create(ctx context.Context, c *models.Contact) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO contacts (first_name, last_name, phone, email, organization_name, message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.FirstName, c.LastName, c.Phone, c.Email, c.OrganizationName, c.Message,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// List returns all inquiries, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Contact, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// Get fetches an inquiry by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// Delete removes an inquiry.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
