package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register webp decoding for image.Decode

	"github.com/ateliercms/api/internal/storage"
)

var (
	// ErrInvalidContentType is returned when an uploaded file is not an
	// accepted image type.
	ErrInvalidContentType = errors.New("invalid content type: only image files are allowed")

	// ErrUndecodable is returned when the bytes cannot be decoded as an image.
	ErrUndecodable = errors.New("invalid file: content is not a decodable image")
)

const (
	// smallFileThreshold separates re-encode-only uploads from resized ones.
	smallFileThreshold = 1 << 20 // 1 MiB

	// maxDimension bounds either side of a large upload.
	maxDimension = 1024

	smallQuality = 85
	largeQuality = 70
)

// allowedContentTypes is the accepted image MIME set.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Processor re-encodes uploaded images and persists them to a storage
// backend, yielding one canonical address per surviving descriptor.
type Processor struct {
	backend storage.Backend
	logger  *slog.Logger
}

// NewProcessor creates an upload processor writing through backend.
func NewProcessor(backend storage.Backend, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{backend: backend, logger: logger}
}

// Process runs every descriptor through validation, optimization and
// storage under the given namespace. Output preserves input order with
// rejected descriptors omitted, so callers must not assume index alignment
// with the input. A storage failure aborts the batch; files stored before
// the failure are left for the orphan sweeper.
func (p *Processor) Process(ctx context.Context, namespace string, descriptors []Descriptor) ([]string, error) {
	addrs := make([]string, 0, len(descriptors))

	for _, d := range descriptors {
		data, err := p.optimize(d)
		if err != nil {
			if errors.Is(err, ErrInvalidContentType) || errors.Is(err, ErrUndecodable) {
				p.logger.Warn("rejecting uploaded file",
					slog.String("field", d.Field),
					slog.String("filename", d.Filename),
					slog.String("error", err.Error()),
				)
				continue
			}
			return nil, err
		}

		addr, err := p.backend.Store(ctx, namespace, data)
		if err != nil {
			return nil, fmt.Errorf("storing %s: %w", d.Filename, err)
		}
		addrs = append(addrs, addr)
	}

	return addrs, nil
}

// optimize re-encodes the image: small files keep their dimensions at
// quality 85, larger ones are fit within 1024x1024 (never upscaled) at
// quality 70. Output is always JPEG.
func (p *Processor) optimize(d Descriptor) ([]byte, error) {
	if !allowedContentTypes[d.ContentType] {
		return nil, ErrInvalidContentType
	}

	img, err := imaging.Decode(bytes.NewReader(d.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUndecodable, err)
	}

	quality := smallQuality
	if len(d.Data) >= smallFileThreshold {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		quality = largeQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", d.Filename, err)
	}
	return buf.Bytes(), nil
}
