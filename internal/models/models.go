// Package models holds the database row types shared across services.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a portfolio entry with an optional poster and an ordered
// gallery. Image fields hold canonical stored addresses.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Client      string    `json:"client"`
	Title       string    `json:"projectTitle"`
	Description string    `json:"description"`
	PosterImage *string   `json:"posterImg"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Service is a marketing offering with an optional poster and ordered
// content sections. Sections are persisted as a single jsonb column.
type Service struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PosterImage *string   `json:"posterImg"`
	Sections    []Section `json:"sections"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Section is one content block inside a Service.
type Section struct {
	Heading     string   `json:"heading"`
	Description string   `json:"description"`
	Points      []string `json:"points"`
	Images      []string `json:"images"`
}

// Contact is an inbound inquiry from the public contact form.
type Contact struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	OrganizationName string    `json:"organizationName"`
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"createdAt"`
}

// User is an account that can manage content. PasswordHash never leaves
// the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
