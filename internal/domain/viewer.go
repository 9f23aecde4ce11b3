package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Zoom and page bounds of a surface.
const (
	MinZoomPercent     = 50
	MaxZoomPercent     = 300
	DefaultZoomPercent = 100
	DefaultZoomStep    = 10
	FirstPage          = 1
)

// RenderingMode selects how the host presents the document.
type RenderingMode string

const (
	// RenderingLegacyEmbed is a fixed-size embed without zoom controls.
	RenderingLegacyEmbed RenderingMode = "legacy_embed"
	// RenderingUnwrap renders pages individually and supports zoom and navigation.
	RenderingUnwrap RenderingMode = "unwrap"
)

// SupportsZoom reports whether zoom controls are active in this mode.
func (m RenderingMode) SupportsZoom() bool {
	return m != RenderingLegacyEmbed
}

// Annotation is a rectangle highlighted on a page, in PDF points.
type Annotation struct {
	Page   int     `json:"page" validate:"min=1"`
	X      float64 `json:"x" validate:"min=0"`
	Y      float64 `json:"y" validate:"min=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	Color  string  `json:"color,omitempty" validate:"omitempty,iscolor"`
}

// ViewerOptions is the closed configuration record accepted when a surface is built.
type ViewerOptions struct {
	Width       *Dimension    `json:"width,omitempty"`
	Height      *Dimension    `json:"height,omitempty"`
	Rendering   RenderingMode `json:"rendering,omitempty" validate:"omitempty,oneof=legacy_embed unwrap"`
	Annotations []Annotation  `json:"annotations,omitempty" validate:"dive"`
	RenderText  bool          `json:"render_text"`
	Key         string        `json:"key,omitempty" validate:"max=128,printascii"`
}

var optionsValidator = validator.New()

// Validate checks the record. Dimension errors wrap ErrInvalidDimension, other
// failures are reported as *ValidationError.
func (o ViewerOptions) Validate() error {
	if o.Width != nil {
		if err := o.Width.Validate(); err != nil {
			return fmt.Errorf("width: %w", err)
		}
	}
	if o.Height != nil {
		if err := o.Height.Validate(); err != nil {
			return fmt.Errorf("height: %w", err)
		}
	}

	if err := optionsValidator.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return &ValidationError{
				Field:   strings.ToLower(first.Namespace()),
				Message: fmt.Sprintf("failed on the '%s' rule", first.Tag()),
			}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// WithDefaults fills the rendering mode when the caller left it empty.
func (o ViewerOptions) WithDefaults(defaultMode RenderingMode) ViewerOptions {
	if o.Rendering == "" {
		o.Rendering = defaultMode
	}
	if o.Rendering == "" {
		o.Rendering = RenderingUnwrap
	}
	return o
}

// DecodeViewerOptions reads options as JSON and rejects unrecognized keys.
func DecodeViewerOptions(r io.Reader) (ViewerOptions, error) {
	var opts ViewerOptions
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		if errors.Is(err, io.EOF) {
			return ViewerOptions{}, nil
		}
		if errors.Is(err, ErrInvalidDimension) {
			return ViewerOptions{}, err
		}
		return ViewerOptions{}, &ValidationError{Field: "options", Message: err.Error()}
	}
	return opts, nil
}

// ViewState is the mutable part of a surface.
type ViewState struct {
	CurrentPage int        `json:"current_page"`
	PageCount   int        `json:"page_count"`
	ZoomPercent int        `json:"zoom_percent"`
	Width       *Dimension `json:"width"`
	Height      *Dimension `json:"height"`
}

// Equal compares two states including dimensions.
func (s ViewState) Equal(other ViewState) bool {
	return s.CurrentPage == other.CurrentPage &&
		s.PageCount == other.PageCount &&
		s.ZoomPercent == other.ZoomPercent &&
		dimensionEqual(s.Width, other.Width) &&
		dimensionEqual(s.Height, other.Height)
}

func dimensionEqual(a, b *Dimension) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ScrollAnchor locates the top of the viewport inside the current page.
type ScrollAnchor struct {
	Page     int     `json:"page"`
	Fraction float64 `json:"fraction"`
}

// Offset is the vertical scroll offset in pixels for a document whose pages are
// basePageHeight pixels tall at 100% zoom.
func (a ScrollAnchor) Offset(basePageHeight float64, zoomPercent int) float64 {
	scaled := basePageHeight * float64(zoomPercent) / float64(DefaultZoomPercent)
	return (float64(a.Page-1) + a.Fraction) * scaled
}

// Controls is the toolbar state derived from a ViewState.
type Controls struct {
	CanPrevious bool `json:"can_previous"`
	CanNext     bool `json:"can_next"`
	CanZoomIn   bool `json:"can_zoom_in"`
	CanZoomOut  bool `json:"can_zoom_out"`
	ZoomEnabled bool `json:"zoom_enabled"`
}

// InteractionKind names the operation a host applied.
type InteractionKind string

const (
	InteractionOpen         InteractionKind = "open"
	InteractionGoToPage     InteractionKind = "goto_page"
	InteractionPageInput    InteractionKind = "page_input"
	InteractionNextPage     InteractionKind = "next_page"
	InteractionPreviousPage InteractionKind = "previous_page"
	InteractionSetZoom      InteractionKind = "set_zoom"
	InteractionZoomIn       InteractionKind = "zoom_in"
	InteractionZoomOut      InteractionKind = "zoom_out"
	InteractionResetZoom    InteractionKind = "reset_zoom"
	InteractionResize       InteractionKind = "resize"
	InteractionScroll       InteractionKind = "scroll"
)

// Interaction records the last operation and whether it changed anything.
type Interaction struct {
	Kind     InteractionKind `json:"kind"`
	Argument int             `json:"argument,omitempty"`
	Changed  bool            `json:"changed"`
}

// RenderEvent asks the host to redraw the visible page.
type RenderEvent struct {
	Seq         uint64       `json:"seq"`
	State       ViewState    `json:"state"`
	Anchor      ScrollAnchor `json:"anchor"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Reason      Interaction  `json:"reason"`
}
