package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ateliercms/api/internal/models"
)

// FixtureProject inserts a project with the given gallery and returns it.
func (tdb *TestDB) FixtureProject(t *testing.T, title string, poster *string, images []string) models.Project {
	t.Helper()
	ctx := context.Background()

	if images == nil {
		images = []string{}
	}

	p := models.Project{
		Client:      "Test Client",
		Title:       title,
		Description: "fixture project",
		PosterImage: poster,
		Images:      images,
	}
	err := tdb.Pool.QueryRow(ctx,
		`INSERT INTO projects (client, title, description, poster_img, images)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.Client, p.Title, p.Description, p.PosterImage, p.Images,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		t.Fatalf("creating fixture project %q: %v", title, err)
	}
	return p
}

// FixtureService inserts a service page with the given sections and
// returns it.
func (tdb *TestDB) FixtureService(t *testing.T, title string, poster *string, sections []models.Section) models.Service {
	t.Helper()
	ctx := context.Background()

	if sections == nil {
		sections = []models.Section{}
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		t.Fatalf("marshaling fixture sections: %v", err)
	}

	svc := models.Service{
		Title:       title,
		Description: "fixture service",
		PosterImage: poster,
		Sections:    sections,
	}
	err = tdb.Pool.QueryRow(ctx,
		`INSERT INTO services (title, description, poster_img, sections)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		svc.Title, svc.Description, svc.PosterImage, raw,
	).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		t.Fatalf("creating fixture service %q: %v", title, err)
	}
	return svc
}

// FixtureUser inserts a user and returns it. The password hash is not a
// real bcrypt hash; use the user service for login tests.
func (tdb *TestDB) FixtureUser(t *testing.T, email string, isAdmin bool) models.User {
	t.Helper()
	ctx := context.Background()

	u := models.User{
		Name:         "Fixture User",
		Email:        email,
		PasswordHash: "x",
		IsAdmin:      isAdmin,
	}
	err := tdb.Pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.IsAdmin,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		t.Fatalf("creating fixture user %q: %v", email, err)
	}
	return u
}
