package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"pdf-viewer-plus/internal/domain"
)

const viewStatesTable = "viewer_states"

// SupabaseViewStateRepository implements domain.ViewStateRepository on the
// viewer_states table. Rows are keyed by instance_key.
type SupabaseViewStateRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseViewStateRepository creates a new Supabase view state repository
func NewSupabaseViewStateRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseViewStateRepository {
	return &SupabaseViewStateRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// Get retrieves the saved state for an instance key
func (r *SupabaseViewStateRepository) Get(ctx context.Context, instanceKey string) (*domain.SavedViewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(viewStatesTable).
		Select("*", "", false).
		Eq("instance_key", instanceKey).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get view state: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrViewStateNotFound
	}
	return mapToSavedViewState(rows[0]), nil
}

// Save upserts the state on instance_key
func (r *SupabaseViewStateRepository) Save(ctx context.Context, state *domain.SavedViewState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil || state.InstanceKey == "" {
		return &domain.ValidationError{Field: "instance_key", Message: "instance key is required"}
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	_, _, err := client.From(viewStatesTable).
		Upsert(savedViewStateToRow(state), "instance_key", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to save view state: %w", err)
	}

	r.logger.Debug("View state saved", "instance_key", state.InstanceKey, "page", state.CurrentPage, "zoom", state.ZoomPercent)
	return nil
}

// Delete removes the row for an instance key. Deleting a missing row is not an error.
func (r *SupabaseViewStateRepository) Delete(ctx context.Context, instanceKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	_, _, err := client.From(viewStatesTable).
		Delete("", "").
		Eq("instance_key", instanceKey).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete view state: %w", err)
	}
	return nil
}

// List returns every saved state, most recently updated first
func (r *SupabaseViewStateRepository) List(ctx context.Context) ([]*domain.SavedViewState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(viewStatesTable).
		Select("*", "", false).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list view states: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.SavedViewState, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapToSavedViewState(row))
	}
	return out, nil
}

func decodeRows(data []byte) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return rows, nil
}

func savedViewStateToRow(state *domain.SavedViewState) map[string]interface{} {
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return map[string]interface{}{
		"instance_key":    state.InstanceKey,
		"fingerprint":     state.Fingerprint,
		"current_page":    state.CurrentPage,
		"zoom_percent":    state.ZoomPercent,
		"width":           dimensionColumn(state.Width),
		"height":          dimensionColumn(state.Height),
		"scroll_fraction": state.ScrollFraction,
		"updated_at":      updatedAt.Format(time.RFC3339Nano),
	}
}

func mapToSavedViewState(row map[string]interface{}) *domain.SavedViewState {
	st := &domain.SavedViewState{
		InstanceKey:    getString(row, "instance_key"),
		Fingerprint:    getString(row, "fingerprint"),
		CurrentPage:    getInt(row, "current_page"),
		ZoomPercent:    getInt(row, "zoom_percent"),
		Width:          getDimension(row, "width"),
		Height:         getDimension(row, "height"),
		ScrollFraction: getFloat64(row, "scroll_fraction"),
	}
	if updatedAt := getString(row, "updated_at"); updatedAt != "" {
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			st.UpdatedAt = t
		} else if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			st.UpdatedAt = t
		}
	}
	return st
}

// Dimensions are stored as text ("800px", "50%"); NULL means unset.
func dimensionColumn(d *domain.Dimension) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func getDimension(data map[string]interface{}, key string) *domain.Dimension {
	raw := getString(data, key)
	if raw == "" {
		return nil
	}
	d, err := domain.ParseDimension(raw)
	if err != nil {
		return nil
	}
	return &d
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getInt(data map[string]interface{}, key string) int {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

func getFloat64(data map[string]interface{}, key string) float64 {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return 0
}
