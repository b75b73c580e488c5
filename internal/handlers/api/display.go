package api

import (
	"github.com/ateliercms/api/internal/imageref"
	"github.com/ateliercms/api/internal/models"
)

// The API returns image references in display form (leading slash for
// local assets, absolute URLs untouched); canonical stored form stays an
// internal detail.

func displayRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return ref
	}
	display := imageref.DisplayPath(*ref)
	return &display
}

func displayRefs(refs []string) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = imageref.DisplayPath(ref)
	}
	return out
}

func displayProject(p models.Project) models.Project {
	p.PosterImage = displayRef(p.PosterImage)
	p.Images = displayRefs(p.Images)
	return p
}

func displayProjects(projects []models.Project) []models.Project {
	out := make([]models.Project, len(projects))
	for i, p := range projects {
		out[i] = displayProject(p)
	}
	return out
}

func displayOffering(svc models.Service) models.Service {
	svc.PosterImage = displayRef(svc.PosterImage)
	sections := make([]models.Section, len(svc.Sections))
	for i, section := range svc.Sections {
		section.Images = displayRefs(section.Images)
		sections[i] = section
	}
	svc.Sections = sections
	return svc
}

func displayOfferings(services []models.Service) []models.Service {
	out := make([]models.Service, len(services))
	for i, svc := range services {
		out[i] = displayOffering(svc)
	}
	return out
}
