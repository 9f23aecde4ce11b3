// Package handler provides HTTP handlers for the API.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"pdf-viewer-plus/internal/domain"
)

// multipartMemory is how much of an upload is kept in memory before spilling to disk.
const multipartMemory = 32 << 20

// SurfaceHandler exposes viewer surfaces over HTTP
type SurfaceHandler struct {
	surfaceService domain.SurfaceService
	logger         domain.Logger
	maxUploadSize  int64
	allowPaths     bool
}

// NewSurfaceHandler creates a new surface handler. Path sources are accepted
// only when allowPaths is set, i.e. when a document root is configured.
func NewSurfaceHandler(surfaceService domain.SurfaceService, logger domain.Logger, maxUploadSize int64, allowPaths bool) *SurfaceHandler {
	return &SurfaceHandler{
		surfaceService: surfaceService,
		logger:         logger,
		maxUploadSize:  maxUploadSize,
		allowPaths:     allowPaths,
	}
}

type openPathRequest struct {
	Path    string          `json:"path"`
	Options json.RawMessage `json:"options,omitempty"`
}

type pageRequest struct {
	Page  *int    `json:"page,omitempty"`
	Input *string `json:"input,omitempty"`
}

type zoomRequest struct {
	Percent *int `json:"percent,omitempty"`
}

type zoomStepRequest struct {
	Step int `json:"step"`
}

type sizeRequest struct {
	Width  *domain.Dimension `json:"width"`
	Height *domain.Dimension `json:"height"`
}

type scrollRequest struct {
	Fraction *float64 `json:"fraction"`
}

// OpenSurface mounts a surface from an upload or a path under the document root
func (h *SurfaceHandler) OpenSurface(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope and the options field.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		source domain.DocumentSource
		opts   domain.ViewerOptions
		err    error
	)
	if mediaType == "multipart/form-data" {
		source, opts, err = h.readUpload(r)
	} else {
		source, opts, err = h.readPathRequest(r)
	}
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	snap, err := h.surfaceService.Open(r.Context(), source, opts)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *SurfaceHandler) readUpload(r *http.Request) (domain.DocumentSource, domain.ViewerOptions, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.DocumentSource{}, domain.ViewerOptions{}, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInvalidFile, h.maxUploadSize)
		}
		return domain.DocumentSource{}, domain.ViewerOptions{}, &domain.ValidationError{Field: "body", Message: err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return domain.DocumentSource{}, domain.ViewerOptions{}, &domain.ValidationError{Field: "file", Message: "file is required"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.DocumentSource{}, domain.ViewerOptions{}, &domain.ValidationError{Field: "file", Message: err.Error()}
	}

	opts, err := domain.DecodeViewerOptions(strings.NewReader(r.FormValue("options")))
	if err != nil {
		return domain.DocumentSource{}, domain.ViewerOptions{}, err
	}

	// Strip any client-side path components.
	name := strings.TrimSpace(filepath.Base(header.Filename))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	return domain.DocumentSource{Name: name, Data: data}, opts, nil
}

func (h *SurfaceHandler) readPathRequest(r *http.Request) (domain.DocumentSource, domain.ViewerOptions, error) {
	var req openPathRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			return domain.DocumentSource{}, domain.ViewerOptions{}, &domain.ValidationError{Field: "body", Message: "a file upload or a path is required"}
		}
		return domain.DocumentSource{}, domain.ViewerOptions{}, err
	}
	if !h.allowPaths {
		return domain.DocumentSource{}, domain.ViewerOptions{}, &domain.ValidationError{Field: "path", Message: "path sources are disabled, upload the file instead"}
	}
	if strings.TrimSpace(req.Path) == "" {
		return domain.DocumentSource{}, domain.ViewerOptions{}, &domain.ValidationError{Field: "path", Message: "path is required"}
	}

	var opts domain.ViewerOptions
	if len(req.Options) > 0 {
		var err error
		opts, err = domain.DecodeViewerOptions(bytes.NewReader(req.Options))
		if err != nil {
			return domain.DocumentSource{}, domain.ViewerOptions{}, err
		}
	}
	return domain.DocumentSource{Path: req.Path}, opts, nil
}

// ListSurfaces returns every mounted surface
func (h *SurfaceHandler) ListSurfaces(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.surfaceService.List(r.Context())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"surfaces": snaps})
}

// GetSurface returns one snapshot
func (h *SurfaceHandler) GetSurface(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.Get(r.Context(), key)
	})
}

// CloseSurface unmounts a surface
func (h *SurfaceHandler) CloseSurface(w http.ResponseWriter, r *http.Request) {
	if err := h.surfaceService.Close(r.Context(), mux.Vars(r)["key"]); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPage accepts {"page": n} or {"input": "text"}
func (h *SurfaceHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, bodyError(err))
		return
	}
	if (req.Page == nil) == (req.Input == nil) {
		writeError(w, http.StatusBadRequest, "Exactly one of page or input is required")
		return
	}

	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		if req.Page != nil {
			return h.surfaceService.GoToPage(r.Context(), key, *req.Page)
		}
		return h.surfaceService.GoToPageInput(r.Context(), key, *req.Input)
	})
}

// NextPage advances one page
func (h *SurfaceHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.NextPage(r.Context(), key)
	})
}

// PreviousPage goes back one page
func (h *SurfaceHandler) PreviousPage(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.PreviousPage(r.Context(), key)
	})
}

// SetZoom accepts {"percent": p}
func (h *SurfaceHandler) SetZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, bodyError(err))
		return
	}
	if req.Percent == nil {
		writeError(w, http.StatusBadRequest, "percent is required")
		return
	}

	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.SetZoom(r.Context(), key, *req.Percent)
	})
}

// ZoomIn raises the zoom by the optional step
func (h *SurfaceHandler) ZoomIn(w http.ResponseWriter, r *http.Request) {
	step, ok := h.readStep(w, r)
	if !ok {
		return
	}
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.ZoomIn(r.Context(), key, step)
	})
}

// ZoomOut lowers the zoom by the optional step
func (h *SurfaceHandler) ZoomOut(w http.ResponseWriter, r *http.Request) {
	step, ok := h.readStep(w, r)
	if !ok {
		return
	}
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.ZoomOut(r.Context(), key, step)
	})
}

// ResetZoom goes back to 100%
func (h *SurfaceHandler) ResetZoom(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.ResetZoom(r.Context(), key)
	})
}

// Resize replaces both dimensions. A missing or null field clears it.
func (h *SurfaceHandler) Resize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, bodyError(err))
		return
	}
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.Resize(r.Context(), key, req.Width, req.Height)
	})
}

// Scroll records the viewport position inside the current page
func (h *SurfaceHandler) Scroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, bodyError(err))
		return
	}
	if req.Fraction == nil {
		writeError(w, http.StatusBadRequest, "fraction is required")
		return
	}
	h.respond(w, r, func(key string) (*domain.SurfaceSnapshot, error) {
		return h.surfaceService.Scroll(r.Context(), key, *req.Fraction)
	})
}

// RenderPage streams the visible page as PNG
func (h *SurfaceHandler) RenderPage(w http.ResponseWriter, r *http.Request) {
	img, err := h.surfaceService.RenderPage(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// PageText returns the text layer of the visible page
func (h *SurfaceHandler) PageText(w http.ResponseWriter, r *http.Request) {
	text, err := h.surfaceService.PageText(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, text)
}

// ListSavedStates returns persisted view states, most recent first
func (h *SurfaceHandler) ListSavedStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.surfaceService.SavedStates(r.Context())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"view_states": states})
}

func (h *SurfaceHandler) readStep(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req zoomStepRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeAppError(w, h.logger, err)
		return 0, false
	}
	if req.Step < 0 {
		writeError(w, http.StatusBadRequest, "step must be positive")
		return 0, false
	}
	return req.Step, true
}

func (h *SurfaceHandler) respond(w http.ResponseWriter, r *http.Request, op func(key string) (*domain.SurfaceSnapshot, error)) {
	snap, err := op(mux.Vars(r)["key"])
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func bodyError(err error) error {
	if errors.Is(err, errEmptyBody) {
		return &domain.ValidationError{Field: "body", Message: "request body is required"}
	}
	return err
}
