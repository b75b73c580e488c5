package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type projectResponse struct {
	ID          string   `json:"id"`
	Client      string   `json:"client"`
	Title       string   `json:"projectTitle"`
	Description string   `json:"description"`
	PosterImage *string  `json:"posterImg"`
	Images      []string `json:"images"`
}

func createProject(t *testing.T, app *testApp, title string, files []filePart) projectResponse {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"projectTitle": title,
		"client":       "Acme",
		"description":  "A case study",
	}, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want %d\nbody: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	_, result := decodeEnvelope(t, rr)
	var p projectResponse
	if err := json.Unmarshal(result, &p); err != nil {
		t.Fatalf("decoding project: %v", err)
	}
	return p
}

func TestCreateProject(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	p := createProject(t, app, "Relaunch", []filePart{
		{field: "posterImg", name: "poster.png", data: pngBytes(t)},
		{field: "images", name: "one.png", data: pngBytes(t)},
		{field: "images", name: "two.png", data: pngBytes(t)},
	})

	if p.Title != "Relaunch" || p.Client != "Acme" {
		t.Errorf("unexpected project: %+v", p)
	}
	if p.PosterImage == nil || !strings.HasPrefix(*p.PosterImage, "/uploads/projects/") {
		t.Errorf("poster should be served under /uploads/projects/, got %v", p.PosterImage)
	}
	if len(p.Images) != 2 {
		t.Fatalf("got %d gallery images, want 2", len(p.Images))
	}
	for _, img := range p.Images {
		if !strings.HasPrefix(img, "/uploads/projects/") {
			t.Errorf("gallery image %q lacks display prefix", img)
		}
	}
}

func TestCreateProject_MissingTitle(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	body, contentType := multipartBody(t, map[string]string{"client": "Acme"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	meta, _ := decodeEnvelope(t, rr)
	if meta.Success {
		t.Error("meta.success should be false")
	}
}

func TestCreateProject_DuplicateTitle(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)
	createProject(t, app, "Relaunch", nil)

	body, contentType := multipartBody(t, map[string]string{"projectTitle": "Relaunch"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d\nbody: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestCreateProject_RequiresAdmin(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	body, contentType := multipartBody(t, map[string]string{"projectTitle": "Relaunch"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", body)
	req.Header.Set("Content-Type", contentType)

	if rr := app.do(req); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	body, contentType = multipartBody(t, map[string]string{"projectTitle": "Relaunch"}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/projects", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+userToken(t))

	if rr := app.do(req); rr.Code != http.StatusForbidden {
		t.Errorf("non-admin: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestListProjects_Public(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)
	createProject(t, app, "Relaunch", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	rr := app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	meta, result := decodeEnvelope(t, rr)
	if !meta.Success {
		t.Error("meta.success should be true")
	}
	var list []projectResponse
	if err := json.Unmarshal(result, &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d projects, want 1", len(list))
	}
}

func TestUpdateProject_RetainList(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	created := createProject(t, app, "Gallery", []filePart{
		{field: "images", name: "one.png", data: pngBytes(t)},
		{field: "images", name: "two.png", data: pngBytes(t)},
	})
	kept := created.Images[0]

	retain, err := json.Marshal([]string{kept})
	if err != nil {
		t.Fatalf("marshaling retain list: %v", err)
	}
	body, contentType := multipartBody(t, map[string]string{
		"projectTitle": "Gallery",
		"images":       string(retain),
	}, []filePart{{field: "images", name: "three.png", data: pngBytes(t)}})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/projects/"+created.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	_, result := decodeEnvelope(t, rr)
	var updated projectResponse
	if err := json.Unmarshal(result, &updated); err != nil {
		t.Fatalf("decoding project: %v", err)
	}
	if len(updated.Images) != 2 {
		t.Fatalf("got %d images, want 2: %v", len(updated.Images), updated.Images)
	}
	if updated.Images[0] != kept {
		t.Errorf("retained image should lead the gallery, got %v", updated.Images)
	}
	if updated.Images[1] == created.Images[1] {
		t.Error("dropped image should be replaced by the new upload")
	}
}

func TestUpdateProject_OmittedFieldsPreserved(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	created := createProject(t, app, "Relaunch", nil)

	// Only the title part is sent; client and description stay as stored.
	body, contentType := multipartBody(t, map[string]string{"projectTitle": "Relaunch"}, nil)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/projects/"+created.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	_, result := decodeEnvelope(t, rr)
	var updated projectResponse
	if err := json.Unmarshal(result, &updated); err != nil {
		t.Fatalf("decoding project: %v", err)
	}
	if updated.Client != "Acme" {
		t.Errorf("client = %q, want the stored value", updated.Client)
	}
	if updated.Description != "A case study" {
		t.Errorf("description = %q, want the stored value", updated.Description)
	}

	// An explicitly empty part does overwrite.
	body, contentType = multipartBody(t, map[string]string{
		"projectTitle": "Relaunch",
		"client":       "",
	}, nil)
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/projects/"+created.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr = app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	_, result = decodeEnvelope(t, rr)
	if err := json.Unmarshal(result, &updated); err != nil {
		t.Fatalf("decoding project: %v", err)
	}
	if updated.Client != "" {
		t.Errorf("client = %q, want empty after explicit clear", updated.Client)
	}
}

func TestDeleteProject(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	created := createProject(t, app, "Doomed", []filePart{
		{field: "posterImg", name: "poster.png", data: pngBytes(t)},
		{field: "images", name: "one.png", data: pngBytes(t)},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	_, result := decodeEnvelope(t, rr)
	var deleted struct {
		Deleted int `json:"deletedImages"`
	}
	if err := json.Unmarshal(result, &deleted); err != nil {
		t.Fatalf("decoding delete result: %v", err)
	}
	if deleted.Deleted != 2 {
		t.Errorf("deletedImages = %d, want 2", deleted.Deleted)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+created.ID, nil)
	if rr := app.do(getReq); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetProject_InvalidID(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/not-a-uuid", nil)
	if rr := app.do(req); rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/projects/%s", "00000000-0000-0000-0000-000000000001"), nil)
	if rr := app.do(req); rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
