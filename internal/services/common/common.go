// Package common assembles the dashboard overview in a single call.
package common

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ateliercms/api/internal/models"
	"github.com/ateliercms/api/internal/services/offering"
	"github.com/ateliercms/api/internal/services/project"
	"github.com/ateliercms/api/internal/services/user"
)

// Overview bundles everything the dashboard front page needs.
type Overview struct {
	Projects  []models.Project `json:"projects"`
	Services  []models.Service `json:"services"`
	UserCount int              `json:"userCount"`
}

// Service fans out the three queries concurrently.
type Service struct {
	projects  *project.Service
	offerings *offering.Service
	users     *user.Service
}

// NewService wires the overview service.
func NewService(projects *project.Service, offerings *offering.Service, users *user.Service) *Service {
	return &Service{projects: projects, offerings: offerings, users: users}
}

// Overview fetches projects, service pages and the user count in parallel.
// The first failing query cancels the others.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Projects, err = s.projects.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Services, err = s.offerings.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.UserCount, err = s.users.Count(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
