package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type sectionResponse struct {
	Heading     string   `json:"heading"`
	Description string   `json:"description"`
	Points      []string `json:"points"`
	Images      []string `json:"images"`
}

type serviceResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	PosterImage *string           `json:"posterImg"`
	Sections    []sectionResponse `json:"sections"`
}

func createService(t *testing.T, app *testApp, title, sections string, files []filePart) serviceResponse {
	t.Helper()
	fields := map[string]string{
		"title":       title,
		"description": "What we do",
	}
	if sections != "" {
		fields["sections"] = sections
	}
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want %d\nbody: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	_, result := decodeEnvelope(t, rr)
	var svc serviceResponse
	if err := json.Unmarshal(result, &svc); err != nil {
		t.Fatalf("decoding service: %v", err)
	}
	return svc
}

func TestCreateService_SectionUploads(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	svc := createService(t, app, "Web design",
		`[{"heading":"Discovery","points":["workshops"]},{"heading":"Build"}]`,
		[]filePart{
			{field: "posterImg", name: "poster.png", data: pngBytes(t)},
			{field: "sections[0].images", name: "a.png", data: pngBytes(t)},
			{field: "sections[1].images", name: "b.png", data: pngBytes(t)},
		})

	if svc.PosterImage == nil || !strings.HasPrefix(*svc.PosterImage, "/uploads/services/") {
		t.Errorf("poster should be served under /uploads/services/, got %v", svc.PosterImage)
	}
	if len(svc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(svc.Sections))
	}
	if len(svc.Sections[0].Images) != 1 || len(svc.Sections[1].Images) != 1 {
		t.Errorf("section galleries misrouted: %+v", svc.Sections)
	}
	if got := svc.Sections[0].Points; len(got) != 1 || got[0] != "workshops" {
		t.Errorf("section points = %v, want [workshops]", got)
	}
}

func TestCreateService_MalformedSections(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	body, contentType := multipartBody(t, map[string]string{
		"title":    "Broken",
		"sections": "{not json",
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/services", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	if rr := app.do(req); rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateService_SectionRetain(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	created := createService(t, app, "Photography",
		`[{"heading":"Portfolio"}]`,
		[]filePart{
			{field: "sections[0].images", name: "a.png", data: pngBytes(t)},
			{field: "sections[0].images", name: "b.png", data: pngBytes(t)},
		})
	kept := created.Sections[0].Images[0]

	sections, err := json.Marshal([]sectionResponse{{
		Heading: "Portfolio",
		Images:  []string{kept},
	}})
	if err != nil {
		t.Fatalf("marshaling sections: %v", err)
	}
	body, contentType := multipartBody(t, map[string]string{
		"title":    "Photography",
		"sections": string(sections),
	}, []filePart{{field: "sections[0].images", name: "c.png", data: pngBytes(t)}})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/services/"+created.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	_, result := decodeEnvelope(t, rr)
	var updated serviceResponse
	if err := json.Unmarshal(result, &updated); err != nil {
		t.Fatalf("decoding service: %v", err)
	}
	images := updated.Sections[0].Images
	if len(images) != 2 {
		t.Fatalf("section has %d images, want 2: %v", len(images), images)
	}
	if images[0] != kept {
		t.Errorf("retained image should stay first, got %v", images)
	}
}

func TestUpdateService_OmittedDescriptionPreserved(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	created := createService(t, app, "Branding", "", nil)

	body, contentType := multipartBody(t, map[string]string{"title": "Branding"}, nil)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/services/"+created.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	rr := app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	_, result := decodeEnvelope(t, rr)
	var updated serviceResponse
	if err := json.Unmarshal(result, &updated); err != nil {
		t.Fatalf("decoding service: %v", err)
	}
	if updated.Description != "What we do" {
		t.Errorf("description = %q, want the stored value", updated.Description)
	}
}

func TestDeleteService(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)

	created := createService(t, app, "Doomed", `[{"heading":"A"}]`, []filePart{
		{field: "posterImg", name: "poster.png", data: pngBytes(t)},
		{field: "sections[0].images", name: "a.png", data: pngBytes(t)},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/services/"+created.ID, nil)
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
}

func TestListServices_Public(t *testing.T) {
	testDB.Truncate(t)
	app := newApp(t, nil)
	createService(t, app, "Branding", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	rr := app.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var list []serviceResponse
	_, result := decodeEnvelope(t, rr)
	if err := json.Unmarshal(result, &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Branding" {
		t.Errorf("unexpected list: %+v", list)
	}
}
