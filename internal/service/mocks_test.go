package service

import (
	"context"
	"errors"
	"sync"

	"github.com/supabase-community/supabase-go"

	"pdf-viewer-plus/internal/domain"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) record(line string) {
	m.mu.Lock()
	m.messages = append(m.messages, line)
	m.mu.Unlock()
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.record("INFO: " + msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	m.record("ERROR: " + msg + " - " + err.Error())
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.record("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.record("WARN: " + msg)
}

// fakeEngine stands in for MuPDF so tests do not need real PDFs.
type fakeEngine struct {
	mu          sync.Mutex
	pageCountFn func(content []byte) (int, error)
	renders     []string
	text        map[int]string
	renderErr   error
}

func newFakeEngine(pages int) *fakeEngine {
	return &fakeEngine{
		pageCountFn: func(content []byte) (int, error) { return pages, nil },
		text:        map[int]string{},
	}
}

func (f *fakeEngine) PageCount(content []byte) (int, error) {
	return f.pageCountFn(content)
}

func (f *fakeEngine) RenderPage(doc *domain.Document, page int, zoomPercent int) ([]byte, error) {
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders = append(f.renders, doc.Fingerprint)
	return []byte{byte(page), byte(zoomPercent)}, nil
}

func (f *fakeEngine) PageText(doc *domain.Document, page int) (string, error) {
	return f.text[page], nil
}

type mockViewStateRepo struct {
	mu      sync.Mutex
	states  map[string]domain.SavedViewState
	saves   int
	deletes []string
	getErr  error
	saveErr error
	onSave  func(state *domain.SavedViewState)
}

func newMockViewStateRepo() *mockViewStateRepo {
	return &mockViewStateRepo{states: make(map[string]domain.SavedViewState)}
}

func (m *mockViewStateRepo) Get(ctx context.Context, key string) (*domain.SavedViewState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	st, ok := m.states[key]
	if !ok {
		return nil, domain.ErrViewStateNotFound
	}
	return &st, nil
}

func (m *mockViewStateRepo) Save(ctx context.Context, state *domain.SavedViewState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.states[state.InstanceKey] = *state
	if m.onSave != nil {
		m.onSave(state)
	}
	return nil
}

func (m *mockViewStateRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	if _, ok := m.states[key]; !ok {
		return domain.ErrViewStateNotFound
	}
	delete(m.states, key)
	return nil
}

func (m *mockViewStateRepo) saved(key string) (domain.SavedViewState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[key]
	return st, ok
}

// MockSupabaseClient for testing
type MockSupabaseClient struct {
	calls int
}

func NewMockSupabaseClient() *MockSupabaseClient {
	return &MockSupabaseClient{}
}

func (m *MockSupabaseClient) Initialize() error {
	return nil
}

func (m *MockSupabaseClient) ValidateToken(token string) (*domain.SupabaseUser, error) {
	m.calls++
	if token == "valid-token" {
		return &domain.SupabaseUser{
			ID:    "user-123",
			Email: "test@example.com",
		}, nil
	}
	if token == "expired-token" {
		return nil, domain.ErrInvalidToken
	}
	return nil, errors.New("token validation failed")
}

func (m *MockSupabaseClient) DB() *supabase.Client {
	return nil
}

func (m *mockViewStateRepo) List(ctx context.Context) ([]*domain.SavedViewState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.SavedViewState, 0, len(m.states))
	for _, st := range m.states {
		st := st
		out = append(out, &st)
	}
	return out, nil
}
