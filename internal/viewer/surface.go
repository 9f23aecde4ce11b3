// Package viewer holds the control surface of a PDF viewer: one document bound
// to one view state, with total navigation and zoom operations.
package viewer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"pdf-viewer-plus/internal/domain"
)

// Listener receives one event per state change.
type Listener func(domain.RenderEvent)

// Option customizes a Surface at construction.
type Option func(*Surface)

// WithListener registers the render listener.
func WithListener(l Listener) Option {
	return func(s *Surface) {
		s.listener = l
	}
}

// WithRestoredState starts the surface from a previously saved state.
// Values are clamped against the new document; a fingerprint mismatch is ignored
// by the caller, not here.
func WithRestoredState(saved domain.SavedViewState) Option {
	return func(s *Surface) {
		s.restored = &saved
	}
}

// Surface is not safe for concurrent use. Hosts serialize calls per surface.
type Surface struct {
	key      string
	doc      *domain.Document
	opts     domain.ViewerOptions
	state    domain.ViewState
	anchor   domain.ScrollAnchor
	last     domain.Interaction
	seq      uint64
	closed   bool
	listener Listener
	restored *domain.SavedViewState
}

// New binds doc to a fresh view state. opts must carry a key and a rendering
// mode; see ViewerOptions.WithDefaults.
func New(doc *domain.Document, opts domain.ViewerOptions, options ...Option) (*Surface, error) {
	if doc == nil || doc.Released() {
		return nil, domain.ErrDocumentNotFound
	}
	if doc.PageCount < domain.FirstPage {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrInvalidFile)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for i, a := range opts.Annotations {
		if a.Page > doc.PageCount {
			return nil, &domain.ValidationError{
				Field:   fmt.Sprintf("annotations[%d].page", i),
				Message: fmt.Sprintf("page %d is beyond the last page %d", a.Page, doc.PageCount),
			}
		}
	}

	s := &Surface{
		key:  opts.Key,
		doc:  doc,
		opts: opts,
		state: domain.ViewState{
			CurrentPage: domain.FirstPage,
			PageCount:   doc.PageCount,
			ZoomPercent: domain.DefaultZoomPercent,
			Width:       copyDimension(opts.Width),
			Height:      copyDimension(opts.Height),
		},
	}
	for _, o := range options {
		o(s)
	}
	if s.restored != nil {
		s.restore(*s.restored)
		s.restored = nil
	}
	s.anchor.Page = s.state.CurrentPage

	s.last = domain.Interaction{Kind: domain.InteractionOpen, Changed: true}
	s.emit()
	return s, nil
}

func (s *Surface) restore(saved domain.SavedViewState) {
	s.state.CurrentPage = clamp(saved.CurrentPage, domain.FirstPage, s.state.PageCount)
	if s.opts.Rendering.SupportsZoom() && saved.ZoomPercent != 0 {
		s.state.ZoomPercent = clamp(saved.ZoomPercent, domain.MinZoomPercent, domain.MaxZoomPercent)
	}
	if saved.Width != nil && saved.Width.Validate() == nil {
		s.state.Width = copyDimension(saved.Width)
	}
	if saved.Height != nil && saved.Height.Validate() == nil {
		s.state.Height = copyDimension(saved.Height)
	}
	s.anchor.Fraction = clampFraction(saved.ScrollFraction)
}

// Key returns the instance key.
func (s *Surface) Key() string { return s.key }

// Options returns the construction options.
func (s *Surface) Options() domain.ViewerOptions { return s.opts }

// Document returns the bound document.
func (s *Surface) Document() *domain.Document { return s.doc }

// State returns a copy of the current view state.
func (s *Surface) State() domain.ViewState {
	st := s.state
	st.Width = copyDimension(s.state.Width)
	st.Height = copyDimension(s.state.Height)
	return st
}

// Anchor returns the scroll position inside the current page.
func (s *Surface) Anchor() domain.ScrollAnchor { return s.anchor }

// LastInteraction returns the last operation applied.
func (s *Surface) LastInteraction() domain.Interaction { return s.last }

// Closed reports whether Close was called.
func (s *Surface) Closed() bool { return s.closed }

// Controls derives the toolbar state. Disabled controls are exactly the ones
// whose operation would be a no-op.
func (s *Surface) Controls() domain.Controls {
	zoom := s.opts.Rendering.SupportsZoom() && !s.closed
	return domain.Controls{
		CanPrevious: !s.closed && s.state.CurrentPage > domain.FirstPage,
		CanNext:     !s.closed && s.state.CurrentPage < s.state.PageCount,
		CanZoomIn:   zoom && s.state.ZoomPercent < domain.MaxZoomPercent,
		CanZoomOut:  zoom && s.state.ZoomPercent > domain.MinZoomPercent,
		ZoomEnabled: zoom,
	}
}

// GoToPage clamps n into [1, PageCount].
func (s *Surface) GoToPage(n int) domain.ViewState {
	return s.goToPage(domain.InteractionGoToPage, n)
}

// GoToPageInput handles the manual page field. Text that is not an integer
// leaves the state untouched; integers too large for int clamp like any other.
func (s *Surface) GoToPageInput(text string) domain.ViewState {
	raw := strings.TrimSpace(text)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		n, err = math.MaxInt, nil
		if strings.HasPrefix(raw, "-") {
			n = math.MinInt
		}
	}
	if err != nil {
		s.last = domain.Interaction{Kind: domain.InteractionPageInput}
		return s.State()
	}
	return s.goToPage(domain.InteractionPageInput, n)
}

// NextPage is a no-op on the last page.
func (s *Surface) NextPage() domain.ViewState {
	return s.goToPage(domain.InteractionNextPage, s.state.CurrentPage+1)
}

// PreviousPage is a no-op on the first page.
func (s *Surface) PreviousPage() domain.ViewState {
	return s.goToPage(domain.InteractionPreviousPage, s.state.CurrentPage-1)
}

func (s *Surface) goToPage(kind domain.InteractionKind, n int) domain.ViewState {
	target := clamp(n, domain.FirstPage, s.state.PageCount)
	changed := !s.closed && target != s.state.CurrentPage
	s.last = domain.Interaction{Kind: kind, Argument: n, Changed: changed}
	if changed {
		s.state.CurrentPage = target
		s.anchor = domain.ScrollAnchor{Page: target}
		s.emit()
	}
	return s.State()
}

// SetZoom clamps percent into [50, 300].
func (s *Surface) SetZoom(percent int) domain.ViewState {
	return s.setZoom(domain.InteractionSetZoom, percent, percent)
}

// ZoomIn raises the zoom by step (10 when step <= 0).
func (s *Surface) ZoomIn(step int) domain.ViewState {
	step = normalizeStep(step)
	return s.setZoom(domain.InteractionZoomIn, step, s.state.ZoomPercent+step)
}

// ZoomOut lowers the zoom by step (10 when step <= 0).
func (s *Surface) ZoomOut(step int) domain.ViewState {
	step = normalizeStep(step)
	return s.setZoom(domain.InteractionZoomOut, step, s.state.ZoomPercent-step)
}

// ResetZoom goes back to 100%.
func (s *Surface) ResetZoom() domain.ViewState {
	return s.setZoom(domain.InteractionResetZoom, domain.DefaultZoomPercent, domain.DefaultZoomPercent)
}

func (s *Surface) setZoom(kind domain.InteractionKind, arg, percent int) domain.ViewState {
	if !s.opts.Rendering.SupportsZoom() {
		s.last = domain.Interaction{Kind: kind, Argument: arg}
		return s.State()
	}
	target := clamp(percent, domain.MinZoomPercent, domain.MaxZoomPercent)
	changed := !s.closed && target != s.state.ZoomPercent
	s.last = domain.Interaction{Kind: kind, Argument: arg, Changed: changed}
	if changed {
		s.state.ZoomPercent = target
		s.emit()
	}
	return s.State()
}

// Resize replaces both dimensions. A nil dimension means "fill the container";
// the previous value is not kept. Invalid explicit values are rejected and the
// state is left as it was.
func (s *Surface) Resize(width, height *domain.Dimension) (domain.ViewState, error) {
	if width != nil {
		if err := width.Validate(); err != nil {
			return s.State(), fmt.Errorf("width: %w", err)
		}
	}
	if height != nil {
		if err := height.Validate(); err != nil {
			return s.State(), fmt.Errorf("height: %w", err)
		}
	}

	next := s.state
	next.Width = copyDimension(width)
	next.Height = copyDimension(height)
	changed := !s.closed && !next.Equal(s.state)
	s.last = domain.Interaction{Kind: domain.InteractionResize, Changed: changed}
	if changed {
		s.state = next
		s.emit()
	}
	return s.State(), nil
}

// Scroll moves the viewport inside the current page. It does not re-render.
func (s *Surface) Scroll(fraction float64) domain.ScrollAnchor {
	f := clampFraction(fraction)
	changed := !s.closed && f != s.anchor.Fraction
	s.last = domain.Interaction{Kind: domain.InteractionScroll, Changed: changed}
	if changed {
		s.anchor.Fraction = f
	}
	return s.anchor
}

// SavedState is the snapshot persisted for the instance key.
func (s *Surface) SavedState() domain.SavedViewState {
	return domain.SavedViewState{
		InstanceKey:    s.key,
		Fingerprint:    s.doc.Fingerprint,
		CurrentPage:    s.state.CurrentPage,
		ZoomPercent:    s.state.ZoomPercent,
		Width:          copyDimension(s.state.Width),
		Height:         copyDimension(s.state.Height),
		ScrollFraction: s.anchor.Fraction,
	}
}

// VisibleAnnotations returns the annotations drawn on the current page.
func (s *Surface) VisibleAnnotations() []domain.Annotation {
	var out []domain.Annotation
	for _, a := range s.opts.Annotations {
		if a.Page == s.state.CurrentPage {
			out = append(out, a)
		}
	}
	return out
}

// Close releases the document. Later operations return the last state unchanged.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.doc.Release()
}

func (s *Surface) emit() {
	s.seq++
	if s.listener == nil {
		return
	}
	s.listener(domain.RenderEvent{
		Seq:         s.seq,
		State:       s.State(),
		Anchor:      s.anchor,
		Annotations: s.VisibleAnnotations(),
		Reason:      s.last,
	})
}

// normalizeStep caps the step at the width of the zoom range so the sum with
// the current zoom cannot overflow.
func normalizeStep(step int) int {
	if step <= 0 {
		return domain.DefaultZoomStep
	}
	return min(step, domain.MaxZoomPercent-domain.MinZoomPercent)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFraction keeps the anchor inside the page: [0, 1).
func clampFraction(f float64) float64 {
	if f != f || f < 0 {
		return 0
	}
	if f >= 1 {
		return 0.999
	}
	return f
}

func copyDimension(d *domain.Dimension) *domain.Dimension {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
