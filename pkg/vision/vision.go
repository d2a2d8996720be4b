// Package vision produces image captions, tags, and OCR text during
// ingestion. Both backends are optional: a missing vision model or OCR
// engine leaves the corresponding fields empty without failing the ingest.
package vision

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/loupe-search/loupe/pkg/ai"
)

// captionPrompt asks the model for a parseable one-line answer.
const captionPrompt = "Describe this image. Respond with exactly:\n" +
	"CAPTION: <one sentence>\n" +
	"TAGS: <3-5 comma-separated tags>"

// VisionProvider answers a prompt about an image.
type VisionProvider interface {
	Describe(ctx context.Context, image []byte, prompt string) (string, error)
	Name() string
}

// OCREngine extracts printed text from an image.
type OCREngine interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
	Name() string
}

// ImageResult is the output of ProcessImage. Absent backends leave their
// fields zero.
type ImageResult struct {
	Caption          string
	Tags             []string
	OCRText          string
	CaptionEmbedding []float32
}

// Options selects which passes ProcessImage runs.
type Options struct {
	Caption bool
	OCR     bool
}

// Processor orchestrates captioning, OCR, and the caption embedding.
type Processor struct {
	vision     VisionProvider
	ocr        OCREngine
	embeddings *ai.Client
	logger     hclog.Logger
}

// NewProcessor creates an image processor. Any of the backends may be nil.
func NewProcessor(vision VisionProvider, ocr OCREngine, embeddings *ai.Client, logger hclog.Logger) *Processor {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if embeddings == nil {
		embeddings = ai.NewClient(nil, logger)
	}
	return &Processor{
		vision:     vision,
		ocr:        ocr,
		embeddings: embeddings,
		logger:     logger.Named("vision"),
	}
}

// ProcessImage runs the requested passes. It never fails for a missing
// backend; each pass degrades independently.
func (p *Processor) ProcessImage(ctx context.Context, image []byte, opts Options) *ImageResult {
	result := &ImageResult{}

	if opts.Caption && p.vision != nil {
		response, err := p.vision.Describe(ctx, image, captionPrompt)
		if err != nil {
			p.logger.Warn("image captioning failed",
				"provider", p.vision.Name(), "error", err)
		} else {
			result.Caption, result.Tags = parseCaptionResponse(response)
		}
	}

	if opts.OCR && p.ocr != nil {
		text, err := p.ocr.ExtractText(ctx, image)
		if err != nil {
			p.logger.Warn("ocr failed", "engine", p.ocr.Name(), "error", err)
		} else {
			result.OCRText = strings.TrimSpace(text)
		}
	}

	if result.Caption != "" || result.OCRText != "" {
		text := strings.TrimSpace(result.Caption + " " + result.OCRText)
		vec, err := p.embeddings.Embed(ctx, text)
		if err != nil {
			p.logger.Warn("caption embedding failed", "error", err)
		} else {
			result.CaptionEmbedding = vec
		}
	}

	return result
}

// parseCaptionResponse splits a model response on the CAPTION:/TAGS:
// markers. Responses without both markers are treated as a caption, with
// tags recovered heuristically from capitalized tokens.
func parseCaptionResponse(response string) (string, []string) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", nil
	}

	upper := strings.ToUpper(response)
	capIdx := strings.Index(upper, "CAPTION:")
	tagIdx := strings.Index(upper, "TAGS:")

	if capIdx >= 0 && tagIdx > capIdx {
		caption := strings.TrimSpace(response[capIdx+len("CAPTION:") : tagIdx])
		var tags []string
		for _, t := range strings.Split(response[tagIdx+len("TAGS:"):], ",") {
			t = strings.ToLower(strings.Trim(t, " .\n"))
			if t != "" {
				tags = append(tags, t)
			}
		}
		return caption, tags
	}

	return response, heuristicTags(response)
}

// heuristicTags picks up to five capitalized tokens from free-form text.
func heuristicTags(s string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		word := strings.Trim(f, ".,;:!?\"'()")
		if len(word) < 3 || word[0] < 'A' || word[0] > 'Z' {
			continue
		}
		tag := strings.ToLower(word)
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
		if len(tags) == 5 {
			break
		}
	}
	return tags
}
