package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/ateliercms/api/internal/services/media"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// bodies spill to temp files.
const maxUploadMemory = 32 << 20

// collectUploads reads every file part of an already-parsed multipart form
// into upload descriptors, keyed by its form field name. Field names are
// iterated in sorted order so upload order is deterministic per field.
func collectUploads(form *multipart.Form) ([]media.Descriptor, error) {
	if form == nil {
		return nil, nil
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var descriptors []media.Descriptor
	for _, field := range fields {
		for _, header := range form.File[field] {
			data, err := readPart(header)
			if err != nil {
				return nil, fmt.Errorf("reading upload %q: %w", header.Filename, err)
			}
			descriptors = append(descriptors, media.Descriptor{
				Field:       field,
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	return descriptors, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formValue returns the first value of a form field and whether the field
// was present at all. The distinction drives keep-vs-clear semantics.
func formValue(form *multipart.Form, field string) (string, bool) {
	if form == nil {
		return "", false
	}
	values, ok := form.Value[field]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// retainList parses a form field holding a JSON array of image references.
// A malformed value is treated as an empty list rather than an error, so a
// broken client at worst clears the gallery it submitted.
func retainList(form *multipart.Form, field string) *[]string {
	raw, ok := formValue(form, field)
	if !ok {
		return nil
	}

	list := []string{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			list = []string{}
		}
	}
	return &list
}

// parseForm parses the request as multipart when it is one, falling back
// to a regular form parse so urlencoded bodies still work.
func parseForm(r *http.Request) (*multipart.Form, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if err == http.ErrNotMultipart {
			if err := r.ParseForm(); err != nil {
				return nil, err
			}
			return &multipart.Form{Value: r.Form}, nil
		}
		return nil, err
	}
	return r.MultipartForm, nil
}
