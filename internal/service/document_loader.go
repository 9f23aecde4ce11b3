package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pdf-viewer-plus/internal/domain"
)

// DocumentLoader turns a path or a buffer into a domain.Document.
type DocumentLoader struct {
	engine      domain.PageEngine
	root        string
	maxFileSize int64
	logger      domain.Logger
}

// NewDocumentLoader creates a loader. When root is set, paths are resolved
// inside it and anything escaping it is reported as not found.
func NewDocumentLoader(engine domain.PageEngine, root string, maxFileSize int64, logger domain.Logger) *DocumentLoader {
	return &DocumentLoader{
		engine:      engine,
		root:        root,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Load dispatches on the source kind.
func (l *DocumentLoader) Load(source domain.DocumentSource) (*domain.Document, error) {
	if source.IsPath() {
		return l.LoadFromPath(source.Path)
	}
	return l.LoadFromBytes(source.Name, source.Data)
}

// LoadFromPath reads a document from the file system.
func (l *DocumentLoader) LoadFromPath(path string) (*domain.Document, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		l.logger.Warn("Document could not be opened", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, path)
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", domain.ErrInvalidFile, info.Size(), l.maxFileSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDocumentNotFound, path, err)
	}
	return l.LoadFromBytes(filepath.Base(resolved), data)
}

// LoadFromBytes wraps an in-memory buffer. The buffer is owned by the document afterwards.
func (l *DocumentLoader) LoadFromBytes(name string, data []byte) (*domain.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", domain.ErrDocumentNotFound)
	}
	if l.maxFileSize > 0 && int64(len(data)) > l.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", domain.ErrInvalidFile, len(data), l.maxFileSize)
	}

	pages, err := l.engine.PageCount(data)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidFile) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFile, err)
	}
	if pages < domain.FirstPage {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrInvalidFile)
	}

	if name == "" {
		name = "document.pdf"
	}
	doc := domain.NewDocument(name, data, pages)
	l.logger.Debug("Document loaded", "name", name, "pages", pages, "size", doc.Size)
	return doc, nil
}

func (l *DocumentLoader) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrDocumentNotFound)
	}
	if l.root == "" {
		return path, nil
	}

	// fs.ValidPath rejects absolute paths and ".." elements.
	rel := filepath.ToSlash(filepath.Clean(path))
	if !fs.ValidPath(rel) {
		return "", fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, path)
	}
	return filepath.Join(l.root, filepath.FromSlash(rel)), nil
}
