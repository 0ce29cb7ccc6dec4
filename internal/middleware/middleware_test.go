package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/dfryer1193/blogsphere/shared/auth"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProvisioner struct {
	seen []string
	err  error
}

func (f *fakeProvisioner) EnsureProfile(ctx context.Context, identity *domain.Identity) (*domain.Profile, error) {
	f.seen = append(f.seen, identity.ID)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Profile{ID: identity.ID}, nil
}

func newAuthRouter(provisioner *fakeProvisioner) *gin.Engine {
	authn := NewAuthenticator(
		auth.NewStaticVerifier(map[string]domain.Identity{"alice-token": {ID: "alice"}}),
		provisioner,
	)

	whoami := func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"id": ""})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": identity.ID})
	}

	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/required", authn.RequireAuth(), whoami)
	r.GET("/optional", authn.OptionalAuth(), whoami)
	return r
}

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantID     string
	}{
		{name: "required with token", path: "/required", header: "Bearer alice-token", wantStatus: http.StatusOK, wantID: "alice"},
		{name: "scheme is case insensitive", path: "/required", header: "bearer alice-token", wantStatus: http.StatusOK, wantID: "alice"},
		{name: "required without header", path: "/required", wantStatus: http.StatusUnauthorized},
		{name: "required with wrong scheme", path: "/required", header: "Basic YWxpY2U6cHc=", wantStatus: http.StatusUnauthorized},
		{name: "required with empty bearer", path: "/required", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "required with unknown token", path: "/required", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
		{name: "optional anonymous", path: "/optional", wantStatus: http.StatusOK, wantID: ""},
		{name: "optional with bad token", path: "/optional", header: "Bearer forged", wantStatus: http.StatusOK, wantID: ""},
		{name: "optional with token", path: "/optional", header: "Bearer alice-token", wantStatus: http.StatusOK, wantID: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(&fakeProvisioner{})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if body["message"] == "" {
					t.Error("401 body has no message")
				}
				return
			}
			if body["id"] != tt.wantID {
				t.Errorf("id = %q, want %q", body["id"], tt.wantID)
			}
		})
	}
}

func TestAuthenticator_ProvisioningFailureIsTolerated(t *testing.T) {
	provisioner := &fakeProvisioner{err: errors.New("database is locked")}
	r := newAuthRouter(provisioner)

	req := httptest.NewRequest(http.MethodGet, "/required", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 despite provisioning failure", w.Code)
	}
	if len(provisioner.seen) != 1 || provisioner.seen[0] != "alice" {
		t.Errorf("provisioned %v, want [alice]", provisioner.seen)
	}
}

func TestHandlePanics(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware(), gin.CustomRecovery(HandlePanics()))
	r.GET("/boom", func(c *gin.Context) {
		panic(errors.New("secret driver detail"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("body leaks panic value: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Errorf("body = %s, want generic message", w.Body.String())
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated", incoming: ""},
		{name: "honoured", incoming: "req-123", keep: true},
		{name: "oversized replaced", incoming: strings.Repeat("x", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" || got != w.Body.String() {
				t.Fatalf("header %q, body %q, want matching non-empty ids", got, w.Body.String())
			}
			if tt.keep && got != tt.incoming {
				t.Errorf("request id = %q, want %q", got, tt.incoming)
			}
			if !tt.keep && got == tt.incoming {
				t.Errorf("request id %q was not replaced", got)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantAllow  string
		wantStatus int
	}{
		{name: "wildcard", origins: []string{"*"}, origin: "https://a.example", method: http.MethodGet, wantAllow: "*", wantStatus: http.StatusOK},
		{name: "listed origin", origins: []string{"https://a.example"}, origin: "https://a.example", method: http.MethodGet, wantAllow: "https://a.example", wantStatus: http.StatusOK},
		{name: "unlisted origin", origins: []string{"https://a.example"}, origin: "https://b.example", method: http.MethodGet, wantAllow: "", wantStatus: http.StatusOK},
		{name: "preflight", origins: []string{"*"}, origin: "https://a.example", method: http.MethodOptions, wantAllow: "*", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.origins))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestLatencyRecorder(t *testing.T) {
	rec := NewLatencyRecorder()
	r := gin.New()
	r.Use(rec.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/abc", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	rec.Record("GET /slow", 2*time.Minute)

	snapshot := rec.Snapshot()
	byRoute := make(map[string]RouteLatency, len(snapshot))
	for _, s := range snapshot {
		byRoute[s.Route] = s
	}

	if got := byRoute["GET /posts/:id"].Count; got != 3 {
		t.Errorf("GET /posts/:id count = %d, want 3", got)
	}
	if got := byRoute["unmatched"].Count; got != 1 {
		t.Errorf("unmatched count = %d, want 1", got)
	}
	slow := byRoute["GET /slow"]
	if slow.Count != 1 || slow.Max < 59000 {
		t.Errorf("GET /slow = %+v, want one clamped sample near 60000ms", slow)
	}
	for i := 1; i < len(snapshot); i++ {
		if snapshot[i-1].Route > snapshot[i].Route {
			t.Errorf("snapshot not sorted: %q before %q", snapshot[i-1].Route, snapshot[i].Route)
		}
	}
}

func TestLatencyRecorder_UnknownMethodsShareOneBucket(t *testing.T) {
	rec := NewLatencyRecorder()
	r := gin.New()
	r.Use(rec.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 200; i++ {
		method := fmt.Sprintf("X%d", i)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/nope", nil))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/posts/abc", nil))
	}

	snapshot := rec.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("histograms = %d, want 1: %+v", len(snapshot), snapshot)
	}
	if snapshot[0].Route != "unmatched" || snapshot[0].Count != 400 {
		t.Errorf("snapshot = %+v, want 400 samples under unmatched", snapshot[0])
	}
}
