package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"pdf-viewer-plus/internal/domain"
	"pdf-viewer-plus/internal/repository"
	"pdf-viewer-plus/internal/service"
	"pdf-viewer-plus/pkg/logger"
)

type MockSurfaceService struct {
	calls      []string
	lastSource domain.DocumentSource
	lastOpts   domain.ViewerOptions
	lastInt    int
	lastInput  string
	lastWidth  *domain.Dimension
	lastHeight *domain.Dimension
	lastFloat  float64
	err        error
	image      []byte
	text       string
}

func NewMockSurfaceService() *MockSurfaceService {
	return &MockSurfaceService{image: []byte("\x89PNG"), text: "page text"}
}

func (m *MockSurfaceService) snapshot(key string) (*domain.SurfaceSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SurfaceSnapshot{
		Key:   key,
		State: domain.ViewState{CurrentPage: 2, PageCount: 5, ZoomPercent: 100},
	}, nil
}

func (m *MockSurfaceService) Open(ctx context.Context, source domain.DocumentSource, opts domain.ViewerOptions) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "Open")
	m.lastSource = source
	m.lastOpts = opts
	return m.snapshot(opts.Key)
}

func (m *MockSurfaceService) Get(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "Get")
	return m.snapshot(key)
}

func (m *MockSurfaceService) List(ctx context.Context) ([]*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "List")
	snap, err := m.snapshot("a")
	if err != nil {
		return nil, err
	}
	return []*domain.SurfaceSnapshot{snap}, nil
}

func (m *MockSurfaceService) Close(ctx context.Context, key string) error {
	m.calls = append(m.calls, "Close")
	return m.err
}

func (m *MockSurfaceService) GoToPage(ctx context.Context, key string, page int) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "GoToPage")
	m.lastInt = page
	return m.snapshot(key)
}

func (m *MockSurfaceService) GoToPageInput(ctx context.Context, key string, input string) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "GoToPageInput")
	m.lastInput = input
	return m.snapshot(key)
}

func (m *MockSurfaceService) NextPage(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "NextPage")
	return m.snapshot(key)
}

func (m *MockSurfaceService) PreviousPage(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "PreviousPage")
	return m.snapshot(key)
}

func (m *MockSurfaceService) SetZoom(ctx context.Context, key string, percent int) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "SetZoom")
	m.lastInt = percent
	return m.snapshot(key)
}

func (m *MockSurfaceService) ZoomIn(ctx context.Context, key string, step int) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "ZoomIn")
	m.lastInt = step
	return m.snapshot(key)
}

func (m *MockSurfaceService) ZoomOut(ctx context.Context, key string, step int) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "ZoomOut")
	m.lastInt = step
	return m.snapshot(key)
}

func (m *MockSurfaceService) ResetZoom(ctx context.Context, key string) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "ResetZoom")
	return m.snapshot(key)
}

func (m *MockSurfaceService) Resize(ctx context.Context, key string, width, height *domain.Dimension) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "Resize")
	m.lastWidth = width
	m.lastHeight = height
	return m.snapshot(key)
}

func (m *MockSurfaceService) Scroll(ctx context.Context, key string, fraction float64) (*domain.SurfaceSnapshot, error) {
	m.calls = append(m.calls, "Scroll")
	m.lastFloat = fraction
	return m.snapshot(key)
}

func (m *MockSurfaceService) RenderPage(ctx context.Context, key string) ([]byte, error) {
	m.calls = append(m.calls, "RenderPage")
	if m.err != nil {
		return nil, m.err
	}
	return m.image, nil
}

func (m *MockSurfaceService) PageText(ctx context.Context, key string) (*domain.PageText, error) {
	m.calls = append(m.calls, "PageText")
	snap, err := m.snapshot(key)
	if err != nil {
		return nil, err
	}
	return &domain.PageText{Key: key, Page: snap.State.CurrentPage, Text: m.text}, nil
}

func (m *MockSurfaceService) SavedStates(ctx context.Context) ([]*domain.SavedViewState, error) {
	m.calls = append(m.calls, "SavedStates")
	return []*domain.SavedViewState{{InstanceKey: "a", CurrentPage: 3}}, m.err
}

func (m *MockSurfaceService) lastCall() string {
	if len(m.calls) == 0 {
		return ""
	}
	return m.calls[len(m.calls)-1]
}

func newTestRouter(svc *MockSurfaceService, allowPaths bool) http.Handler {
	logger := NewMockHandlerLogger()
	h := NewSurfaceHandler(svc, logger, 1<<20, allowPaths)
	return NewRouter(h, NewAuthHandler(logger), PassThrough, RequestLogger(logger), []string{"http://localhost:5173"})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSurfaceHandler_OpenUpload(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "../../secret/report.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("%PDF-1.7"))
	mw.WriteField("options", `{"key":"reader","width":"50%","rendering":"unwrap","render_text":true}`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/surfaces", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if svc.lastSource.Name != "report.pdf" || string(svc.lastSource.Data) != "%PDF-1.7" {
		t.Fatalf("unexpected source %+v", svc.lastSource)
	}
	if svc.lastOpts.Key != "reader" || !svc.lastOpts.RenderText {
		t.Fatalf("unexpected options %+v", svc.lastOpts)
	}
	if svc.lastOpts.Width == nil || *svc.lastOpts.Width != domain.Percent(50) {
		t.Fatalf("expected width 50%%, got %v", svc.lastOpts.Width)
	}

	var snap domain.SurfaceSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.Key != "reader" {
		t.Fatalf("expected key reader, got %q", snap.Key)
	}
}

func TestSurfaceHandler_OpenUpload_RejectsUnknownOption(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "a.pdf")
	fw.Write([]byte("%PDF"))
	mw.WriteField("options", `{"zoom": 150}`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/surfaces", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("expected service not to be called, got %v", svc.calls)
	}
}

func TestSurfaceHandler_OpenUpload_MissingFile(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("options", `{}`)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/surfaces", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestSurfaceHandler_OpenPath(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, true)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/surfaces", `{"path":"docs/a.pdf","options":{"key":"k","height":600}}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if svc.lastSource.Path != "docs/a.pdf" {
		t.Fatalf("expected path source, got %+v", svc.lastSource)
	}
	if svc.lastOpts.Height == nil || *svc.lastOpts.Height != domain.Pixels(600) {
		t.Fatalf("expected height 600px, got %v", svc.lastOpts.Height)
	}
}

func TestSurfaceHandler_OpenPath_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		allowPaths bool
		body       string
		wantStatus int
	}{
		{"paths disabled", false, `{"path":"a.pdf"}`, http.StatusBadRequest},
		{"empty body", true, ``, http.StatusBadRequest},
		{"empty path", true, `{"path":"  "}`, http.StatusBadRequest},
		{"unknown field", true, `{"path":"a.pdf","mode":"x"}`, http.StatusBadRequest},
		{"zero width", true, `{"path":"a.pdf","options":{"width":0}}`, http.StatusBadRequest},
		{"empty height", true, `{"path":"a.pdf","options":{"height":""}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMockSurfaceService()
			router := newTestRouter(svc, tt.allowPaths)

			rr := doJSON(t, router, http.MethodPost, "/api/v1/surfaces", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if len(svc.calls) != 0 {
				t.Fatalf("expected service not to be called, got %v", svc.calls)
			}
		})
	}
}

func TestSurfaceHandler_Operations(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCall string
	}{
		{"get", http.MethodGet, "/api/v1/surfaces/k", "", "Get"},
		{"page number", http.MethodPut, "/api/v1/surfaces/k/page", `{"page": 4}`, "GoToPage"},
		{"page input", http.MethodPut, "/api/v1/surfaces/k/page", `{"input": "3"}`, "GoToPageInput"},
		{"next", http.MethodPost, "/api/v1/surfaces/k/page/next", "", "NextPage"},
		{"previous", http.MethodPost, "/api/v1/surfaces/k/page/previous", "", "PreviousPage"},
		{"set zoom", http.MethodPut, "/api/v1/surfaces/k/zoom", `{"percent": 150}`, "SetZoom"},
		{"zoom in", http.MethodPost, "/api/v1/surfaces/k/zoom/in", "", "ZoomIn"},
		{"zoom out", http.MethodPost, "/api/v1/surfaces/k/zoom/out", `{"step": 25}`, "ZoomOut"},
		{"reset zoom", http.MethodPost, "/api/v1/surfaces/k/zoom/reset", "", "ResetZoom"},
		{"resize", http.MethodPut, "/api/v1/surfaces/k/size", `{"width": 800, "height": "50%"}`, "Resize"},
		{"scroll", http.MethodPut, "/api/v1/surfaces/k/scroll", `{"fraction": 0.5}`, "Scroll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMockSurfaceService()
			router := newTestRouter(svc, false)

			rr := doJSON(t, router, tt.method, tt.path, tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
			}
			if svc.lastCall() != tt.wantCall {
				t.Fatalf("expected %s, got %v", tt.wantCall, svc.calls)
			}
			if !strings.Contains(rr.Body.String(), `"key":"k"`) {
				t.Fatalf("expected snapshot for key k, got %s", rr.Body.String())
			}
		})
	}
}

func TestSurfaceHandler_Arguments(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	doJSON(t, router, http.MethodPut, "/api/v1/surfaces/k/page", `{"page": 4}`)
	if svc.lastInt != 4 {
		t.Fatalf("expected page 4, got %d", svc.lastInt)
	}

	doJSON(t, router, http.MethodPut, "/api/v1/surfaces/k/page", `{"input": "abc"}`)
	if svc.lastInput != "abc" {
		t.Fatalf("expected raw input to reach the service, got %q", svc.lastInput)
	}

	doJSON(t, router, http.MethodPost, "/api/v1/surfaces/k/zoom/in", "")
	if svc.lastInt != 0 {
		t.Fatalf("expected default step 0, got %d", svc.lastInt)
	}

	doJSON(t, router, http.MethodPut, "/api/v1/surfaces/k/size", `{"height": "50%"}`)
	if svc.lastWidth != nil {
		t.Fatalf("expected omitted width to be nil, got %v", svc.lastWidth)
	}
	if svc.lastHeight == nil || *svc.lastHeight != domain.Percent(50) {
		t.Fatalf("expected height 50%%, got %v", svc.lastHeight)
	}

	doJSON(t, router, http.MethodPut, "/api/v1/surfaces/k/scroll", `{"fraction": 0.75}`)
	if svc.lastFloat != 0.75 {
		t.Fatalf("expected fraction 0.75, got %v", svc.lastFloat)
	}
}

func TestSurfaceHandler_BadBodies(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"page and input", "/api/v1/surfaces/k/page", `{"page": 1, "input": "2"}`},
		{"neither page nor input", "/api/v1/surfaces/k/page", `{}`},
		{"page body missing", "/api/v1/surfaces/k/page", ``},
		{"zoom without percent", "/api/v1/surfaces/k/zoom", `{}`},
		{"zero width", "/api/v1/surfaces/k/size", `{"width": 0}`},
		{"empty height", "/api/v1/surfaces/k/size", `{"height": ""}`},
		{"unknown size field", "/api/v1/surfaces/k/size", `{"depth": 3}`},
		{"scroll without fraction", "/api/v1/surfaces/k/scroll", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMockSurfaceService()
			router := newTestRouter(svc, false)

			rr := doJSON(t, router, http.MethodPut, tt.path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rr.Code, rr.Body.String())
			}
			if len(svc.calls) != 0 {
				t.Fatalf("expected service not to be called, got %v", svc.calls)
			}
		})
	}
}

func TestSurfaceHandler_NegativeStep(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	rr := doJSON(t, router, http.MethodPost, "/api/v1/surfaces/k/zoom/in", `{"step": -5}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

// stubEngine reports a fixed page count for any bytes.
type stubEngine struct{ pages int }

func (e stubEngine) PageCount(content []byte) (int, error) { return e.pages, nil }
func (e stubEngine) RenderPage(doc *domain.Document, page int, zoomPercent int) ([]byte, error) {
	return []byte("\x89PNG"), nil
}
func (e stubEngine) PageText(doc *domain.Document, page int) (string, error) { return "", nil }

func TestSurfaceHandler_HugeZoomStepSaturates(t *testing.T) {
	engine := stubEngine{pages: 3}
	log := logger.Nop{}
	svc := service.NewSurfaceService(
		service.NewDocumentLoader(engine, "", 0, log),
		engine,
		repository.NewMemoryViewStateRepository(),
		domain.RenderingUnwrap,
		log,
	)
	if _, err := svc.Open(context.Background(), domain.DocumentSource{Name: "a.pdf", Data: []byte("%PDF")}, domain.ViewerOptions{Key: "k"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	handlerLogger := NewMockHandlerLogger()
	router := NewRouter(NewSurfaceHandler(svc, handlerLogger, 1<<20, false), NewAuthHandler(handlerLogger), PassThrough, RequestLogger(handlerLogger), nil)

	body := `{"step": ` + strconv.Itoa(math.MaxInt) + `}`
	rr := doJSON(t, router, http.MethodPost, "/api/v1/surfaces/k/zoom/in", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var snap domain.SurfaceSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State.ZoomPercent != domain.MaxZoomPercent {
		t.Fatalf("expected zoom %d, got %d", domain.MaxZoomPercent, snap.State.ZoomPercent)
	}

	rr = doJSON(t, router, http.MethodPost, "/api/v1/surfaces/k/zoom/out", body)
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.State.ZoomPercent != domain.MinZoomPercent {
		t.Fatalf("expected zoom %d, got %d", domain.MinZoomPercent, snap.State.ZoomPercent)
	}
}

func TestSurfaceHandler_NotFound(t *testing.T) {
	svc := NewMockSurfaceService()
	svc.err = domain.ErrSurfaceNotFound
	router := newTestRouter(svc, false)

	for _, path := range []string{"/api/v1/surfaces/nope", "/api/v1/surfaces/nope/render", "/api/v1/surfaces/nope/text"} {
		rr := doJSON(t, router, http.MethodGet, path, "")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusNotFound, rr.Code)
		}
	}

	rr := doJSON(t, router, http.MethodDelete, "/api/v1/surfaces/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestSurfaceHandler_Close(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	rr := doJSON(t, router, http.MethodDelete, "/api/v1/surfaces/k", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
}

func TestSurfaceHandler_Render(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/surfaces/k/render", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if rr.Body.String() != "\x89PNG" {
		t.Fatalf("unexpected image body %q", rr.Body.String())
	}

	svc.err = domain.ErrRenderingUnavailable
	rr = doJSON(t, router, http.MethodGet, "/api/v1/surfaces/k/render", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestSurfaceHandler_Text(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/surfaces/k/text", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp domain.PageText
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Key != "k" || resp.Page != 2 || resp.Text != "page text" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(svc.calls) != 1 || svc.calls[0] != "PageText" {
		t.Fatalf("expected a single PageText call, got %v", svc.calls)
	}
}

func TestSurfaceHandler_Lists(t *testing.T) {
	svc := NewMockSurfaceService()
	router := newTestRouter(svc, false)

	rr := doJSON(t, router, http.MethodGet, "/api/v1/surfaces", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"surfaces"`) {
		t.Fatalf("unexpected list response %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/view-states", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"instance_key":"a"`) {
		t.Fatalf("unexpected view states response %d: %s", rr.Code, rr.Body.String())
	}
}
