package project_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/services/media"
	"github.com/ateliercms/api/internal/services/project"
	"github.com/ateliercms/api/internal/storage"
	"github.com/ateliercms/api/internal/testutil"
)

var testDB *testutil.TestDB

func TestMain(m *testing.M) {
	var code int
	defer func() { os.Exit(code) }()

	db, err := testutil.SetupTestDB()
	if err != nil {
		log.Fatalf("setting up test database: %v", err)
	}
	defer db.Close()
	testDB = db

	code = m.Run()
}

// newService builds a project service over a throwaway local storage root.
func newService(t *testing.T) (*project.Service, storage.Backend) {
	t.Helper()
	backend := storage.NewLocal(t.TempDir())
	mediaSvc := media.NewService(backend, nil)
	return project.NewService(project.NewRepository(testDB.Pool), mediaSvc, nil), backend
}

// pngUpload builds an upload descriptor holding a small valid PNG.
func pngUpload(t *testing.T, field string) media.Descriptor {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return media.Descriptor{
		Field:       field,
		Filename:    field + ".png",
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}
}

func storedCount(t *testing.T, backend storage.Backend) int {
	t.Helper()
	all, err := backend.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return len(all)
}

func TestCreate_StoresUploadsAndPersists(t *testing.T) {
	testDB.Truncate(t)
	svc, backend := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, project.CreateInput{
		Client:      "Acme",
		Title:       "Warehouse rebrand",
		Description: "Full brand refresh",
	}, []media.Descriptor{
		pngUpload(t, "posterImg"),
		pngUpload(t, "images"),
		pngUpload(t, "images"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if p.PosterImage == nil || *p.PosterImage == "" {
		t.Error("expected poster address to be set")
	}
	if len(p.Images) != 2 {
		t.Fatalf("gallery has %d images, want 2", len(p.Images))
	}
	if got := storedCount(t, backend); got != 3 {
		t.Errorf("storage holds %d files, want 3", got)
	}

	// Round-trips through the database.
	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Images) != 2 || got.Images[0] != p.Images[0] {
		t.Errorf("persisted gallery %v does not match created %v", got.Images, p.Images)
	}
}

func TestUpdate_RetainSubsetDeletesRestAppendsUploads(t *testing.T) {
	testDB.Truncate(t)
	svc, backend := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, project.CreateInput{Title: "Gallery project"}, []media.Descriptor{
		pngUpload(t, "images"),
		pngUpload(t, "images"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	x, y := created.Images[0], created.Images[1]

	retain := []string{x}
	updated, err := svc.Update(ctx, created.ID, project.UpdateInput{
		Title:        "Gallery project",
		RetainImages: &retain,
	}, []media.Descriptor{pngUpload(t, "images")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(updated.Images) != 2 {
		t.Fatalf("gallery has %d images, want 2: %v", len(updated.Images), updated.Images)
	}
	if updated.Images[0] != x {
		t.Errorf("retained image %q should stay first, got %v", x, updated.Images)
	}
	if updated.Images[1] == y {
		t.Error("second entry should be the new upload, not the dropped image")
	}

	// x plus the new upload remain; y is gone.
	if got := storedCount(t, backend); got != 2 {
		t.Errorf("storage holds %d files, want 2", got)
	}
}

func TestUpdate_AbsentRetainListPreservesGallery(t *testing.T) {
	testDB.Truncate(t)
	svc, backend := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, project.CreateInput{Title: "Keep all"}, []media.Descriptor{
		pngUpload(t, "images"),
		pngUpload(t, "images"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	description := "text-only edit"
	updated, err := svc.Update(ctx, created.ID, project.UpdateInput{
		Title:       "Keep all",
		Description: &description,
	}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(updated.Images) != 2 {
		t.Errorf("gallery has %d images after text-only update, want 2", len(updated.Images))
	}
	if got := storedCount(t, backend); got != 2 {
		t.Errorf("storage holds %d files, want 2", got)
	}
}

func TestUpdate_ExplicitEmptyPosterClearsAndDeletes(t *testing.T) {
	testDB.Truncate(t)
	svc, backend := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, project.CreateInput{Title: "Poster project"},
		[]media.Descriptor{pngUpload(t, "posterImg")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.PosterImage == nil {
		t.Fatal("expected a poster after create")
	}

	empty := ""
	updated, err := svc.Update(ctx, created.ID, project.UpdateInput{
		Title:        "Poster project",
		RetainPoster: &empty,
	}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.PosterImage != nil {
		t.Errorf("poster should be cleared, got %q", *updated.PosterImage)
	}
	if got := storedCount(t, backend); got != 0 {
		t.Errorf("storage holds %d files, want 0", got)
	}
}

func TestUpdate_NewPosterReplacesOld(t *testing.T) {
	testDB.Truncate(t)
	svc, backend := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, project.CreateInput{Title: "Poster swap"},
		[]media.Descriptor{pngUpload(t, "posterImg")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	old := *created.PosterImage

	updated, err := svc.Update(ctx, created.ID, project.UpdateInput{Title: "Poster swap"},
		[]media.Descriptor{pngUpload(t, "posterImg")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.PosterImage == nil || *updated.PosterImage == old {
		t.Error("expected a new poster address")
	}
	if got := storedCount(t, backend); got != 1 {
		t.Errorf("storage holds %d files, want 1", got)
	}
}

func TestUpdate_DuplicateTitleRejectedBeforeSideEffects(t *testing.T) {
	testDB.Truncate(t)
	svc, backend := newService(t)
	ctx := context.Background()

	testDB.FixtureProject(t, "Taken title", nil, nil)
	created, err := svc.Create(ctx, project.CreateInput{Title: "Original"},
		[]media.Descriptor{pngUpload(t, "images")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Update(ctx, created.ID, project.UpdateInput{Title: "Taken title"},
		[]media.Descriptor{pngUpload(t, "images")})
	if err != project.ErrDuplicateTitle {
		t.Fatalf("Update error = %v, want ErrDuplicateTitle", err)
	}

	// Nothing was uploaded or deleted.
	if got := storedCount(t, backend); got != 1 {
		t.Errorf("storage holds %d files, want 1", got)
	}
	current, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(current.Images) != 1 {
		t.Errorf("gallery changed on rejected update: %v", current.Images)
	}
}

func TestDelete_RemovesRowAndImages(t *testing.T) {
	testDB.Truncate(t)
	svc, backend := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, project.CreateInput{Title: "Doomed"}, []media.Descriptor{
		pngUpload(t, "posterImg"),
		pngUpload(t, "images"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	removed, deleted, err := svc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.ID != created.ID {
		t.Error("returned project should be the deleted one")
	}
	if deleted != 2 {
		t.Errorf("deleted %d images, want 2", deleted)
	}
	if got := storedCount(t, backend); got != 0 {
		t.Errorf("storage holds %d files, want 0", got)
	}

	if _, err := svc.Get(ctx, created.ID); err != project.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	testDB.Truncate(t)
	svc, _ := newService(t)

	_, _, err := svc.Delete(context.Background(), uuid.New())
	if err != project.ErrNotFound {
		t.Errorf("Delete of missing project = %v, want ErrNotFound", err)
	}
}

func TestLiveImageRefs_CoversPostersAndGalleries(t *testing.T) {
	testDB.Truncate(t)
	repo := project.NewRepository(testDB.Pool)
	ctx := context.Background()

	poster := "uploads/projects/p.jpg"
	testDB.FixtureProject(t, "One", &poster, []string{"uploads/projects/a.jpg"})
	testDB.FixtureProject(t, "Two", nil, []string{"uploads/projects/b.jpg", "uploads/projects/c.jpg"})

	refs, err := repo.LiveImageRefs(ctx)
	if err != nil {
		t.Fatalf("LiveImageRefs: %v", err)
	}

	want := map[string]bool{
		"uploads/projects/p.jpg": true,
		"uploads/projects/a.jpg": true,
		"uploads/projects/b.jpg": true,
		"uploads/projects/c.jpg": true,
	}
	if len(refs) != len(want) {
		t.Fatalf("got %d refs, want %d: %v", len(refs), len(want), refs)
	}
	for _, ref := range refs {
		if !want[ref] {
			t.Errorf("unexpected ref %q", ref)
		}
	}
}
