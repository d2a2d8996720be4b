package extraction

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ImageExtractor captures image dimensions, format, and EXIF metadata. It
// emits a single image chunk whose caption/OCR fields are filled by the
// vision pass afterwards.
type ImageExtractor struct {
	BaseExtractor
}

func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{}
}

func (e *ImageExtractor) Name() string {
	return "image"
}

func (e *ImageExtractor) Extract(ctx context.Context, data []byte, filename string) (*Result, error) {
	meta := map[string]interface{}{
		"size_bytes": len(data),
	}

	summary := fmt.Sprintf("Image file %s", filename)
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta["width"] = cfg.Width
		meta["height"] = cfg.Height
		meta["format"] = format
		if cfg.Height > 0 {
			meta["aspect_ratio"] = float64(cfg.Width) / float64(cfg.Height)
		}
		summary = fmt.Sprintf("Image %s (%dx%d %s)", filename, cfg.Width, cfg.Height, format)
	}

	labels := e.exifLabels(data, meta)

	result := &Result{
		Summary: Summary{
			FileKind:    FileKindImage,
			Summary:     summary,
			Metadata:    meta,
			ImageLabels: labels,
		},
		Chunks: []Chunk{{
			Index:       0,
			Type:        "image",
			ImageLabels: labels,
		}},
	}
	return result, nil
}

// exifLabels reads EXIF tags when present. GPS coordinates and camera info
// become default image labels; the vision pass augments them later.
func (e *ImageExtractor) exifLabels(data []byte, meta map[string]interface{}) []string {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var labels []string
	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			model = strings.TrimSpace(model)
			if model != "" {
				meta["camera_model"] = model
				labels = append(labels, strings.ToLower(model))
			}
		}
	}
	if tag, err := x.Get(exif.DateTime); err == nil {
		if taken, err := tag.StringVal(); err == nil && taken != "" {
			meta["taken_at"] = taken
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta["gps_latitude"] = lat
		meta["gps_longitude"] = long
		labels = append(labels, "gps")
	}
	return labels
}
