package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pdf-viewer-plus/internal/domain"
)

// TOMLViewStateRepository persists view states in a single TOML file so the
// terminal viewer reopens documents where they were left.
type TOMLViewStateRepository struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

type tomlStateFile struct {
	States map[string]tomlViewState `toml:"states"`
}

type tomlViewState struct {
	Fingerprint    string    `toml:"fingerprint"`
	CurrentPage    int       `toml:"current_page"`
	ZoomPercent    int       `toml:"zoom_percent"`
	Width          string    `toml:"width,omitempty"`
	Height         string    `toml:"height,omitempty"`
	ScrollFraction float64   `toml:"scroll_fraction"`
	UpdatedAt      time.Time `toml:"updated_at"`
}

// NewTOMLViewStateRepository creates a repository backed by path. The file is
// created on first save.
func NewTOMLViewStateRepository(path string) *TOMLViewStateRepository {
	return &TOMLViewStateRepository{path: path, now: time.Now}
}

// Get returns the saved state for an instance key
func (r *TOMLViewStateRepository) Get(ctx context.Context, instanceKey string) (*domain.SavedViewState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.load()
	if err != nil {
		return nil, err
	}
	row, ok := file.States[instanceKey]
	if !ok {
		return nil, domain.ErrViewStateNotFound
	}
	return row.toDomain(instanceKey), nil
}

// Save inserts or replaces the state and rewrites the file
func (r *TOMLViewStateRepository) Save(ctx context.Context, state *domain.SavedViewState) error {
	if state == nil || state.InstanceKey == "" {
		return &domain.ValidationError{Field: "instance_key", Message: "instance key is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.load()
	if err != nil {
		return err
	}
	row := fromDomain(state)
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = r.now().UTC()
	}
	file.States[state.InstanceKey] = row
	return r.store(file)
}

// Delete removes the state for an instance key
func (r *TOMLViewStateRepository) Delete(ctx context.Context, instanceKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := file.States[instanceKey]; !ok {
		return domain.ErrViewStateNotFound
	}
	delete(file.States, instanceKey)
	return r.store(file)
}

// List returns all states, most recently updated first
func (r *TOMLViewStateRepository) List(ctx context.Context) ([]*domain.SavedViewState, error) {
	r.mu.Lock()
	file, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.SavedViewState, 0, len(file.States))
	for key, row := range file.States {
		out = append(out, row.toDomain(key))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].InstanceKey < out[j].InstanceKey
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *TOMLViewStateRepository) load() (*tomlStateFile, error) {
	file := &tomlStateFile{}
	data, err := os.ReadFile(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read state file: %w", err)
	default:
		if err := toml.Unmarshal(data, file); err != nil {
			return nil, fmt.Errorf("failed to parse state file %s: %w", r.path, err)
		}
	}
	if file.States == nil {
		file.States = make(map[string]tomlViewState)
	}
	return file, nil
}

// store writes to a temporary file and renames it so a crash never leaves a
// truncated state file behind.
func (r *TOMLViewStateRepository) store(file *tomlStateFile) error {
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to encode state file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

func fromDomain(st *domain.SavedViewState) tomlViewState {
	row := tomlViewState{
		Fingerprint:    st.Fingerprint,
		CurrentPage:    st.CurrentPage,
		ZoomPercent:    st.ZoomPercent,
		ScrollFraction: st.ScrollFraction,
		UpdatedAt:      st.UpdatedAt,
	}
	if st.Width != nil {
		row.Width = st.Width.String()
	}
	if st.Height != nil {
		row.Height = st.Height.String()
	}
	return row
}

func (row tomlViewState) toDomain(key string) *domain.SavedViewState {
	st := &domain.SavedViewState{
		InstanceKey:    key,
		Fingerprint:    row.Fingerprint,
		CurrentPage:    row.CurrentPage,
		ZoomPercent:    row.ZoomPercent,
		ScrollFraction: row.ScrollFraction,
		UpdatedAt:      row.UpdatedAt,
	}
	if d, err := domain.ParseDimension(row.Width); err == nil {
		st.Width = &d
	}
	if d, err := domain.ParseDimension(row.Height); err == nil {
		st.Height = &d
	}
	return st
}
