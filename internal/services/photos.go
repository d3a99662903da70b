package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"facematch/internal/logger"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoFace is returned when no detection clears the confidence
// threshold; callers map it to a 400.
var ErrNoFace = errors.New("no face detected")

// variant widths in pixels; aspect ratio is preserved and sources are
// never upscaled.
var variantWidths = []struct {
	label string
	width int
}{
	{"small", 200},
	{"medium", 500},
	{"large", 1024},
}

// Variants holds the public URLs of the three stored derivatives.
type Variants struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// URLs lists the variant URLs for storage bookkeeping.
func (v *Variants) URLs() []string {
	return []string{v.Small, v.Medium, v.Large}
}

// BatchResult reports the outcome for one file of a batch.
type BatchResult struct {
	Index    int       `json:"index"`
	Variants *Variants `json:"variants,omitempty"`
	Err      error     `json:"-"`
}

// PhotoPipeline is the processing surface the image handlers depend on.
type PhotoPipeline interface {
	Process(ctx context.Context, data []byte) (*Variants, error)
	ProcessBatch(ctx context.Context, files [][]byte) []BatchResult
}

// PhotoService runs the upload pipeline: decode, face gate, derive
// variants, store.
type PhotoService struct {
	detector FaceDetector
	store    ObjectStore
}

func NewPhotoService(detector FaceDetector, store ObjectStore) *PhotoService {
	return &PhotoService{detector: detector, store: store}
}

// Process validates one image and stores its three variants. The
// derivations and uploads run in parallel; the face gate runs first so
// a rejected photo never touches storage.
func (s *PhotoService) Process(ctx context.Context, data []byte) (*Variants, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if !s.detector.HasFace(img) {
		return nil, ErrNoFace
	}

	name := uuid.New().String()
	urls := make([]string, len(variantWidths))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variantWidths {
		i, v := i, v
		g.Go(func() error {
			url, err := s.storeVariant(gctx, img, name, v.label, v.width)
			if err != nil {
				return fmt.Errorf("%s variant: %w", v.label, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Orphans from the variants that did succeed are swept later;
		// the caller sees one failure for the whole file.
		for _, url := range urls {
			if url != "" {
				logger.L().WithField("url", url).Warn("Orphaned variant after failed upload")
			}
		}
		return nil, err
	}

	return &Variants{Small: urls[0], Medium: urls[1], Large: urls[2]}, nil
}

func (s *PhotoService) storeVariant(ctx context.Context, img image.Image, name, label string, width int) (string, error) {
	if w := img.Bounds().Dx(); w < width {
		width = w
	}
	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("failed to encode jpeg: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.jpg", name, label)
	return s.store.Upload(ctx, filename, "image/jpeg", &buf, int64(buf.Len()))
}

// ProcessBatch runs the pipeline over several files concurrently. Files
// succeed or fail independently; one rejection never aborts siblings.
func (s *PhotoService) ProcessBatch(ctx context.Context, files [][]byte) []BatchResult {
	results := make([]BatchResult, len(files))

	var wg sync.WaitGroup
	for i, data := range files {
		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			variants, err := s.Process(ctx, data)
			results[i] = BatchResult{Index: i, Variants: variants, Err: err}
		}(i, data)
	}
	wg.Wait()

	return results
}
