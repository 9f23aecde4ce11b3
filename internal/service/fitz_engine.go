package service

import (
	"fmt"

	"github.com/gen2brain/go-fitz"

	"pdf-viewer-plus/internal/domain"
)

// pointsPerInch is the PDF user space resolution; rendering at this DPI is 100% zoom.
const pointsPerInch = 72.0

// FitzEngine implements domain.PageEngine on top of MuPDF.
type FitzEngine struct {
	cache  *RenderCache
	logger domain.Logger
}

// NewFitzEngine creates a page engine. cache may be nil.
func NewFitzEngine(cache *RenderCache, logger domain.Logger) *FitzEngine {
	return &FitzEngine{
		cache:  cache,
		logger: logger,
	}
}

// PageCount opens the bytes and returns the number of pages.
func (e *FitzEngine) PageCount(content []byte) (int, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidFile, err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// RenderPage renders a 1-indexed page as PNG at the given zoom.
func (e *FitzEngine) RenderPage(d *domain.Document, page int, zoomPercent int) ([]byte, error) {
	if e.cache != nil {
		if img, ok := e.cache.Get(d.Fingerprint, page, zoomPercent); ok {
			e.logger.Debug("Render cache hit", "page", page, "zoom", zoomPercent)
			return img, nil
		}
	}

	doc, err := e.open(d)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	dpi := pointsPerInch * float64(zoomPercent) / float64(domain.DefaultZoomPercent)
	img, err := doc.ImagePNG(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", domain.ErrRenderingUnavailable, page, err)
	}

	if e.cache != nil {
		e.cache.Put(d.Fingerprint, page, zoomPercent, img)
	}
	e.logger.Debug("Page rendered", "page", page, "zoom", zoomPercent, "bytes", len(img))
	return img, nil
}

// PageText extracts the text layer of a 1-indexed page.
func (e *FitzEngine) PageText(d *domain.Document, page int) (string, error) {
	doc, err := e.open(d)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	text, err := doc.Text(page - 1)
	if err != nil {
		return "", fmt.Errorf("%w: page %d: %v", domain.ErrRenderingUnavailable, page, err)
	}
	return text, nil
}

func (e *FitzEngine) open(d *domain.Document) (*fitz.Document, error) {
	if d == nil || d.Released() {
		return nil, domain.ErrDocumentNotFound
	}
	doc, err := fitz.NewFromMemory(d.Content())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderingUnavailable, err)
	}
	return doc, nil
}
