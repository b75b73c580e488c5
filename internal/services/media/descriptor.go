package media

import (
	"strconv"
	"strings"
)

// TargetKind identifies which entity field an uploaded file belongs to.
type TargetKind int

const (
	// TargetUnknown marks a field name that matches no known pattern.
	TargetUnknown TargetKind = iota
	// TargetPoster is the single poster image ("posterImg").
	TargetPoster
	// TargetGallery is the top-level gallery ("images").
	TargetGallery
	// TargetSectionImages is a per-section gallery ("sections[<i>].images").
	TargetSectionImages
)

// Target is the parsed destination of a multipart file field.
type Target struct {
	Kind    TargetKind
	Section int // valid only for TargetSectionImages
}

// Descriptor carries one uploaded file through the processing pipeline.
// It is created per request and discarded once a stored address exists.
type Descriptor struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// ParseFieldTarget maps a multipart field name onto its target. Both the
// dotted form "sections[2].images" and the bracketed form
// "sections[2][images]" from older clients are accepted.
func ParseFieldTarget(field string) Target {
	switch field {
	case "posterImg":
		return Target{Kind: TargetPoster}
	case "images":
		return Target{Kind: TargetGallery}
	}

	rest, ok := strings.CutPrefix(field, "sections[")
	if !ok {
		return Target{Kind: TargetUnknown}
	}

	idxStr, rest, ok := strings.Cut(rest, "]")
	if !ok {
		return Target{Kind: TargetUnknown}
	}
	if rest != ".images" && rest != "[images]" {
		return Target{Kind: TargetUnknown}
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return Target{Kind: TargetUnknown}
	}
	return Target{Kind: TargetSectionImages, Section: idx}
}
