package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pdf-viewer-plus/internal/domain"
	"pdf-viewer-plus/internal/viewer"
)

const saveAllConcurrency = 4

// surfaceEntry serializes operations on one surface.
type surfaceEntry struct {
	mu         sync.Mutex
	surface    *viewer.Surface
	lastRender *domain.RenderEvent
	updatedAt  time.Time
}

// SurfaceService hosts keyed surfaces. Each key owns its own view state; there
// is no sharing between keys.
type SurfaceService struct {
	loader      *DocumentLoader
	engine      domain.PageEngine
	repo        domain.ViewStateRepository
	defaultMode domain.RenderingMode
	logger      domain.Logger

	mu       sync.RWMutex
	surfaces map[string]*surfaceEntry
}

// NewSurfaceService creates the service.
func NewSurfaceService(
	loader *DocumentLoader,
	engine domain.PageEngine,
	repo domain.ViewStateRepository,
	defaultMode domain.RenderingMode,
	logger domain.Logger,
) *SurfaceService {
	return &SurfaceService{
		loader:      loader,
		engine:      engine,
		repo:        repo,
		defaultMode: defaultMode,
		logger:      logger,
		surfaces:    make(map[string]*surfaceEntry),
	}
}

// Open loads the document and mounts a surface under opts.Key. An existing
// surface with the same key is replaced. Saved state is restored when it was
// recorded for the same document.
func (s *SurfaceService) Open(ctx context.Context, source domain.DocumentSource, opts domain.ViewerOptions) (*domain.SurfaceSnapshot, error) {
	opts = opts.WithDefaults(s.defaultMode)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Key == "" {
		opts.Key = uuid.New().String()
	}

	doc, err := s.loader.Load(source)
	if err != nil {
		return nil, err
	}

	entry := &surfaceEntry{}
	options := []viewer.Option{viewer.WithListener(func(e domain.RenderEvent) {
		event := e
		entry.lastRender = &event
	})}

	saved, err := s.repo.Get(ctx, opts.Key)
	switch {
	case err == nil && saved.Fingerprint == doc.Fingerprint:
		s.logger.Info("Restoring view state", "key", opts.Key, "page", saved.CurrentPage, "zoom", saved.ZoomPercent)
		options = append(options, viewer.WithRestoredState(*saved))
	case err == nil:
		s.logger.Debug("Saved view state belongs to another document", "key", opts.Key)
	case !errors.Is(err, domain.ErrViewStateNotFound):
		s.logger.Warn("Failed to load saved view state", "key", opts.Key, "error", err)
	}

	surface, err := viewer.New(doc, opts, options...)
	if err != nil {
		return nil, err
	}
	entry.surface = surface
	entry.updatedAt = time.Now().UTC()
	// Persist before publishing: once in the map other calls may mutate the surface.
	s.persist(ctx, entry)

	s.mu.Lock()
	previous := s.surfaces[opts.Key]
	s.surfaces[opts.Key] = entry
	s.mu.Unlock()

	if previous != nil {
		previous.mu.Lock()
		previous.surface.Close()
		previous.mu.Unlock()
		s.logger.Info("Surface replaced", "key", opts.Key)
	}

	s.logger.Info("Surface opened", "key", opts.Key, "document", doc.Name, "pages", doc.PageCount, "rendering", opts.Rendering)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshot(entry), nil
}

// Get returns the current snapshot.
func (s *SurfaceService) Get(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	entry, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshot(entry), nil
}

// List returns all mounted surfaces ordered by key.
func (s *SurfaceService) List(ctx context.Context) ([]*domain.SurfaceSnapshot, error) {
	s.mu.RLock()
	entries := make([]*surfaceEntry, 0, len(s.surfaces))
	for _, e := range s.surfaces {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*domain.SurfaceSnapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, snapshot(e))
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Close unmounts the surface and forgets its saved state.
func (s *SurfaceService) Close(ctx context.Context, key string) error {
	s.mu.Lock()
	entry, ok := s.surfaces[key]
	delete(s.surfaces, key)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSurfaceNotFound
	}

	entry.mu.Lock()
	entry.surface.Close()
	entry.mu.Unlock()

	if err := s.repo.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrViewStateNotFound) {
		s.logger.Warn("Failed to delete saved view state", "key", key, "error", err)
	}
	s.logger.Info("Surface closed", "key", key)
	return nil
}

// GoToPage clamps the page into the document.
func (s *SurfaceService) GoToPage(ctx context.Context, key string, page int) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.GoToPage(page)
		return nil
	})
}

// GoToPageInput applies a manual page field value.
func (s *SurfaceService) GoToPageInput(ctx context.Context, key string, input string) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.GoToPageInput(input)
		return nil
	})
}

// NextPage advances one page unless on the last page.
func (s *SurfaceService) NextPage(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.NextPage()
		return nil
	})
}

// PreviousPage goes back one page unless on the first page.
func (s *SurfaceService) PreviousPage(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.PreviousPage()
		return nil
	})
}

// SetZoom clamps the zoom into [50, 300].
func (s *SurfaceService) SetZoom(ctx context.Context, key string, percent int) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.SetZoom(percent)
		return nil
	})
}

// ZoomIn raises the zoom by step.
func (s *SurfaceService) ZoomIn(ctx context.Context, key string, step int) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.ZoomIn(step)
		return nil
	})
}

// ZoomOut lowers the zoom by step.
func (s *SurfaceService) ZoomOut(ctx context.Context, key string, step int) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.ZoomOut(step)
		return nil
	})
}

// ResetZoom goes back to 100%.
func (s *SurfaceService) ResetZoom(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.ResetZoom()
		return nil
	})
}

// Resize replaces both dimensions.
func (s *SurfaceService) Resize(ctx context.Context, key string, width, height *domain.Dimension) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		_, err := v.Resize(width, height)
		return err
	})
}

// Scroll records the viewport position inside the current page.
func (s *SurfaceService) Scroll(ctx context.Context, key string, fraction float64) (*domain.SurfaceSnapshot, error) {
	return s.apply(ctx, key, func(v *viewer.Surface) error {
		v.Scroll(fraction)
		return nil
	})
}

// RenderPage renders the visible page at the current zoom.
func (s *SurfaceService) RenderPage(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	st := entry.surface.State()
	return s.engine.RenderPage(entry.surface.Document(), st.CurrentPage, st.ZoomPercent)
}

// PageText returns the text layer of the visible page. Surfaces opened
// without render_text have no text layer.
func (s *SurfaceService) PageText(ctx context.Context, key string) (*domain.PageText, error) {
	entry, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.surface.Options().RenderText {
		return nil, &domain.ValidationError{Field: "render_text", Message: "text layer is disabled for this surface"}
	}
	page := entry.surface.State().CurrentPage
	text, err := s.engine.PageText(entry.surface.Document(), page)
	if err != nil {
		return nil, err
	}
	return &domain.PageText{Key: key, Page: page, Text: text}, nil
}

// SaveAll persists every mounted surface. Called on shutdown.
func (s *SurfaceService) SaveAll(ctx context.Context) error {
	s.mu.RLock()
	entries := make([]*surfaceEntry, 0, len(s.surfaces))
	for _, e := range s.surfaces {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(saveAllConcurrency)
	for _, e := range entries {
		g.Go(func() error {
			e.mu.Lock()
			saved := e.surface.SavedState()
			saved.UpdatedAt = e.updatedAt
			e.mu.Unlock()
			return s.repo.Save(gctx, &saved)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("View states saved", "count", len(entries))
	return nil
}

func (s *SurfaceService) lookup(key string) (*surfaceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.surfaces[key]
	if !ok {
		return nil, domain.ErrSurfaceNotFound
	}
	return entry, nil
}

func (s *SurfaceService) apply(ctx context.Context, key string, op func(v *viewer.Surface) error) (*domain.SurfaceSnapshot, error) {
	entry, err := s.lookup(key)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := op(entry.surface); err != nil {
		return nil, err
	}

	last := entry.surface.LastInteraction()
	if last.Changed {
		entry.updatedAt = time.Now().UTC()
		s.persist(ctx, entry)
		s.logger.Debug("Surface updated", "key", key, "interaction", last.Kind,
			"page", entry.surface.State().CurrentPage, "zoom", entry.surface.State().ZoomPercent)
	}
	return snapshot(entry), nil
}

// persist failures are logged; the in-memory surface stays authoritative.
func (s *SurfaceService) persist(ctx context.Context, entry *surfaceEntry) {
	saved := entry.surface.SavedState()
	saved.UpdatedAt = entry.updatedAt
	if err := s.repo.Save(ctx, &saved); err != nil {
		s.logger.Warn("Failed to persist view state", "key", saved.InstanceKey, "error", err)
	}
}

func snapshot(entry *surfaceEntry) *domain.SurfaceSnapshot {
	v := entry.surface
	doc := v.Document()
	snap := &domain.SurfaceSnapshot{
		Key: v.Key(),
		Document: domain.DocumentInfo{
			Name:        doc.Name,
			Size:        doc.Size,
			PageCount:   doc.PageCount,
			Fingerprint: doc.Fingerprint,
		},
		Options:         v.Options(),
		State:           v.State(),
		Controls:        v.Controls(),
		Anchor:          v.Anchor(),
		LastInteraction: v.LastInteraction(),
		UpdatedAt:       entry.updatedAt,
	}
	if entry.lastRender != nil {
		render := *entry.lastRender
		snap.LastRender = &render
	}
	return snap
}

// SavedStates lists persisted view states, including those of surfaces that
// are no longer mounted.
func (s *SurfaceService) SavedStates(ctx context.Context) ([]*domain.SavedViewState, error) {
	return s.repo.List(ctx)
}
