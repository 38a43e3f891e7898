// Package ocr recognizes text from scanned PDFs by rasterizing pages and
// running a recognition engine. It is the fallback when the direct text
// layer is unusable, and the most expensive step in the pipeline.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
	"github.com/lanternhealth/enforcement-cli/internal/pdftext"
)

// Engine recognizes text from a PDF byte stream. Implementations recover
// per-page failures locally; an error means the document as a whole could
// not be processed.
type Engine interface {
	Recognize(ctx context.Context, pdf []byte) (string, error)
}

// NewEngine creates an Engine based on config.
func NewEngine(cfg config.OCRConfig) (Engine, error) {
	switch cfg.Provider {
	case "tesseract", "":
		return NewTesseract(cfg), nil
	case "disabled":
		return disabledEngine{}, nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// ChooseSource is the explicit two-state pipeline branch: direct extraction
// wins when usable, otherwise OCR. It never asks for a retry of either.
func ChooseSource(direct pdftext.Result) model.ExtractionMethod {
	if direct.Usable {
		return model.MethodDirect
	}
	return model.MethodOCR
}

// Run invokes the engine once and applies the shared usability contract to
// its output. Engine errors degrade to an unusable result; a failed OCR pass
// is data for the validator, not a pipeline error.
func Run(ctx context.Context, eng Engine, pdf []byte) pdftext.Result {
	text, err := eng.Recognize(ctx, pdf)
	if err != nil {
		return pdftext.Result{}
	}
	q := pdftext.Measure(text, 0)
	return pdftext.Result{Text: text, Usable: q.Usable(), Quality: q}
}

// disabledEngine always fails; used where no recognition engine is installed.
type disabledEngine struct{}

func (disabledEngine) Recognize(ctx context.Context, pdf []byte) (string, error) {
	return "", eris.New("ocr: engine disabled")
}
