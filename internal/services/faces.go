package services

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// FaceDetector answers the single policy question of the photo
// pipeline: does this image contain at least one face above the
// confidence threshold.
type FaceDetector interface {
	HasFace(img image.Image) bool
}

// PigoDetector runs the pigo cascade classifier.
type PigoDetector struct {
	classifier *pigo.Pigo
	threshold  float32
}

// NewPigoDetector loads the binary cascade file once at startup.
func NewPigoDetector(cascadePath string, threshold float64) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read face cascade: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}

	return &PigoDetector{classifier: classifier, threshold: float32(threshold)}, nil
}

func (d *PigoDetector) HasFace(img image.Image) bool {
	bounds := img.Bounds()
	cols := bounds.Dx()
	rows := bounds.Dy()
	if cols == 0 || rows == 0 {
		return false
	}

	nrgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			nrgba.Set(x, y, img.At(x, y))
		}
	}

	params := pigo.CascadeParams{
		MinSize:     60,
		MaxSize:     rows,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(nrgba),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	detections := d.classifier.RunCascade(params, 0.0)
	detections = d.classifier.ClusterDetections(detections, 0.2)

	for _, det := range detections {
		if det.Q >= d.threshold {
			return true
		}
	}
	return false
}
