package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/pdftext"
)

// defaultDPI is enough for tesseract accuracy on letter-sized enforcement
// notices without ballooning raster size.
const defaultDPI = 300

// Tesseract rasterizes PDF pages with pdftoppm and recognizes each page with
// the tesseract CLI.
type Tesseract struct {
	pdftoppmPath  string
	tesseractPath string
	dpi           int
	lang          string
}

// NewTesseract creates a Tesseract engine from config, filling defaults for
// unset paths.
func NewTesseract(cfg config.OCRConfig) *Tesseract {
	t := &Tesseract{
		pdftoppmPath:  cfg.PdfToPpmPath,
		tesseractPath: cfg.TesseractPath,
		dpi:           cfg.DPI,
		lang:          cfg.Lang,
	}
	if t.pdftoppmPath == "" {
		t.pdftoppmPath = "pdftoppm"
	}
	if t.tesseractPath == "" {
		t.tesseractPath = "tesseract"
	}
	if t.dpi <= 0 {
		t.dpi = defaultDPI
	}
	if t.lang == "" {
		t.lang = "eng"
	}
	return t
}

// Recognize renders each page to PNG at a fixed DPI and runs recognition per
// page, concatenating results in page order with a page-boundary marker.
// Recognition errors on individual pages are skipped; if every page fails
// the result is empty text, which the caller will judge unusable.
func (t *Tesseract) Recognize(ctx context.Context, pdf []byte) (string, error) {
	dir, err := os.MkdirTemp("", "ocr-*")
	if err != nil {
		return "", eris.Wrap(err, "ocr: temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		return "", eris.Wrap(err, "ocr: write pdf")
	}

	pages, err := t.rasterize(ctx, dir, pdfPath)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, page := range pages {
		text, err := t.recognizePage(ctx, page)
		if err != nil {
			zap.L().Warn("ocr: page recognition failed, skipping",
				zap.String("page", filepath.Base(page)),
				zap.Error(err),
			)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(pdftext.PageMarker)
		}
		b.WriteString(strings.TrimSpace(text))
	}

	return b.String(), nil
}

// rasterize runs pdftoppm and returns the generated page images in page order.
func (t *Tesseract) rasterize(ctx context.Context, dir, pdfPath string) ([]string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.pdftoppmPath,
		"-png",
		"-r", strconv.Itoa(t.dpi),
		pdfPath,
		filepath.Join(dir, "page"),
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "ocr: pdftoppm failed: %s", stderr.String())
	}

	pages, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: glob pages")
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(pages)
	return pages, nil
}

// recognizePage runs tesseract on one page image and returns stdout.
func (t *Tesseract) recognizePage(ctx context.Context, imagePath string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.tesseractPath,
		imagePath, "-",
		"-l", t.lang,
		"--psm", "6",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed: %s", stderr.String())
	}
	return stdout.String(), nil
}
