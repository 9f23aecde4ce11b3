package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is a loaded PDF. Its bytes are never modified after loading.
type Document struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	PageCount   int    `json:"page_count"`
	Fingerprint string `json:"fingerprint"`

	content []byte
}

// NewDocument wraps loaded bytes. The slice is owned by the document from now on.
func NewDocument(name string, content []byte, pageCount int) *Document {
	sum := sha256.Sum256(content)
	return &Document{
		Name:        name,
		Size:        int64(len(content)),
		PageCount:   pageCount,
		Fingerprint: hex.EncodeToString(sum[:]),
		content:     content,
	}
}

// Content returns the raw bytes. Callers must not modify them.
func (d *Document) Content() []byte {
	return d.content
}

// Release drops the bytes so they can be collected.
func (d *Document) Release() {
	d.content = nil
}

// Released reports whether Release has been called.
func (d *Document) Released() bool {
	return d.content == nil
}

// DocumentSource is where a document comes from: a path or an in-memory buffer.
type DocumentSource struct {
	Path string
	Name string
	Data []byte
}

// IsPath reports whether the source refers to the file system.
func (s DocumentSource) IsPath() bool {
	return s.Path != "" && s.Data == nil
}

// SavedViewState is the persisted state of a keyed surface.
type SavedViewState struct {
	InstanceKey    string     `json:"instance_key"`
	Fingerprint    string     `json:"fingerprint"`
	CurrentPage    int        `json:"current_page"`
	ZoomPercent    int        `json:"zoom_percent"`
	Width          *Dimension `json:"width,omitempty"`
	Height         *Dimension `json:"height,omitempty"`
	ScrollFraction float64    `json:"scroll_fraction"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PageText is the text layer of the page that was visible when it was read.
type PageText struct {
	Key  string `json:"key"`
	Page int    `json:"page"`
	Text string `json:"text"`
}

// DocumentInfo is the public description of a surface's document.
type DocumentInfo struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	PageCount   int    `json:"page_count"`
	Fingerprint string `json:"fingerprint"`
}

// SurfaceSnapshot is what hosts receive after every call.
type SurfaceSnapshot struct {
	Key             string        `json:"key"`
	Document        DocumentInfo  `json:"document"`
	Options         ViewerOptions `json:"options"`
	State           ViewState     `json:"state"`
	Controls        Controls      `json:"controls"`
	Anchor          ScrollAnchor  `json:"anchor"`
	LastInteraction Interaction   `json:"last_interaction"`
	LastRender      *RenderEvent  `json:"last_render,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
