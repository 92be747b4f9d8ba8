package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/coursechat/coursechat/internal/app"
	"github.com/coursechat/coursechat/internal/config"
	"github.com/coursechat/coursechat/internal/testutil"
	"github.com/coursechat/coursechat/internal/tools"
	"github.com/coursechat/coursechat/internal/vector/chromem"
)

const testCourseDoc = `Course Title: Practical Databases
Course Link: https://example.com/databases
Course Instructor: Edgar Codd

Lesson 1: Relational Foundations
Lesson Link: https://example.com/databases/lesson-1
Tables store rows with typed columns. Primary keys identify rows uniquely. Joins combine tables over shared keys.
`

func newTestServer(t *testing.T, mock *testutil.MockLLM) *Server {
	t.Helper()

	cfg := &config.Config{
		ChunkSize:       config.DefaultChunkSize,
		ChunkOverlap:    config.DefaultChunkOverlap,
		SearchLimit:     config.DefaultSearchLimit,
		MaxHistoryTurns: config.DefaultMaxHistoryTurns,
	}
	vs := chromem.New(testutil.NewMockEmbedding(), testutil.DiscardLogger())
	a, err := app.New(cfg, testutil.DiscardLogger(), vs, mock)
	if err != nil {
		t.Fatalf("app.New() unexpected error: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "db.txt"), []byte(testCourseDoc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := a.IngestDirectory(context.Background(), dir); err != nil {
		t.Fatalf("IngestDirectory() unexpected error: %v", err)
	}

	srv, err := NewServer(ServerConfig{App: a, Logger: testutil.DiscardLogger(), RateBurst: 100})
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	return srv
}

func TestQuery_DirectAnswer(t *testing.T) {
	mock := testutil.NewMockLLM("General knowledge answer.")
	srv := newTestServer(t, mock)

	body := strings.NewReader(`{"query": "What is 2+2?"}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/query", body)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "General knowledge answer." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.SessionID == "" {
		t.Error("session_id empty, want generated ID")
	}
	if _, err := uuid.Parse(resp.SessionID); err != nil {
		t.Errorf("session_id = %q, not a valid UUID", resp.SessionID)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("len(sources) = %d, want 0", len(resp.Sources))
	}
}

func TestQuery_WithRetrievalSources(t *testing.T) {
	mock := testutil.NewMockLLM("fallback")
	mock.AddToolCall("primary key", tools.SearchToolName, map[string]any{
		"query":       "primary keys",
		"course_name": "Databases",
	})
	mock.AddAfterTool(tools.SearchToolName, "Primary keys identify rows uniquely.")
	srv := newTestServer(t, mock)

	body := strings.NewReader(`{"query": "What is a primary key in the databases course?"}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/query", body)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("sources empty, want retrieval sources")
	}
	if resp.Sources[0].Text != "Practical Databases - Lesson 1" {
		t.Errorf("sources[0].text = %q", resp.Sources[0].Text)
	}
	if resp.Sources[0].Link != "https://example.com/databases/lesson-1" {
		t.Errorf("sources[0].link = %q", resp.Sources[0].Link)
	}
}

func TestQuery_SessionContinuity(t *testing.T) {
	mock := testutil.NewMockLLM("ok")
	srv := newTestServer(t, mock)

	send := func(body string) QueryResponse {
		t.Helper()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
		srv.Handler().ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
		}
		var resp QueryResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		return resp
	}

	first := send(`{"query": "hello"}`)
	second := send(`{"query": "again", "session_id": "` + first.SessionID + `"}`)

	if second.SessionID != first.SessionID {
		t.Errorf("second session_id = %q, want %q", second.SessionID, first.SessionID)
	}
}

func TestQuery_BadRequests(t *testing.T) {
	srv := newTestServer(t, testutil.NewMockLLM("ok"))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing query", `{}`, http.StatusBadRequest, "missing_query"},
		{"empty query", `{"query": ""}`, http.StatusBadRequest, "missing_query"},
		{"invalid json", `{not json`, http.StatusBadRequest, "invalid_body"},
		{"oversized body", `{"query": "` + strings.Repeat("x", maxQueryBodyBytes+1) + `"}`, http.StatusRequestEntityTooLarge, "body_too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(tt.body))
			srv.Handler().ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestQuery_ModelFailure(t *testing.T) {
	mock := testutil.NewMockLLM("ok")
	mock.SetError(context.DeadlineExceeded)
	srv := newTestServer(t, mock)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query": "hi"}`))
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Error != "query_failed" {
		t.Errorf("error = %q, want %q", resp.Error, "query_failed")
	}
}

func TestCourses_ListsCatalog(t *testing.T) {
	srv := newTestServer(t, testutil.NewMockLLM("ok"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp CoursesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.TotalCourses != 1 {
		t.Errorf("total_courses = %d, want 1", resp.TotalCourses)
	}
	if len(resp.CourseTitles) != 1 || resp.CourseTitles[0] != "Practical Databases" {
		t.Errorf("course_titles = %v", resp.CourseTitles)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testutil.NewMockLLM("ok"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	handler := requestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(w, r)

	got := w.Header().Get("X-Request-ID")
	if got == "" {
		t.Fatal("requestIDMiddleware() did not set X-Request-ID header")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("X-Request-ID = %q, not a valid UUID", got)
	}
}

func TestRequestIDMiddleware_ReusesValid(t *testing.T) {
	want := uuid.NewString()
	handler := requestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", want)
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Request-ID"); got != want {
		t.Errorf("X-Request-ID = %q, want %q", got, want)
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"wildcard allows any origin", []string{"*"}, "http://localhost:3000", "http://localhost:3000"},
		{"exact match", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com"},
		{"mismatch gets no header", []string{"https://app.example.com"}, "https://evil.example.com", ""},
		{"no origin gets no header", []string{"*"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := corsMiddleware(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			handler.ServeHTTP(w, r)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := corsMiddleware([]string{"*"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("preflight request reached the next handler")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("preflight response missing Access-Control-Allow-Methods")
	}
}

func TestRecoveryMiddleware_Returns500(t *testing.T) {
	handler := recoveryMiddleware(testutil.DiscardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestRateLimit_ExhaustsBurst(t *testing.T) {
	rl := newRateLimiter(0.0001, 2)

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request denied, want allowed")
	}
	if !rl.allow("10.0.0.1") {
		t.Fatal("second request denied, want allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request allowed, want denied")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("different IP denied, want independent bucket")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr only", "192.0.2.1:1234", nil, false, "192.0.2.1"},
		{"ignores proxy headers when untrusted", "192.0.2.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, false, "192.0.2.1"},
		{"x-real-ip when trusted", "192.0.2.1:1234", map[string]string{"X-Real-IP": "203.0.113.9"}, true, "203.0.113.9"},
		{"x-forwarded-for first hop", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, true, "203.0.113.7"},
		{"rejects non-ip header value", "192.0.2.1:1234", map[string]string{"X-Real-IP": "not-an-ip"}, true, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
