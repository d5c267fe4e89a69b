package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{"chrome-extension://*", "http://localhost:3000"}

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"chrome-extension://abcdefg12345", defaultOrigins, true},
		{"http://localhost:3000", defaultOrigins, true},
		{"http://localhost:3001", defaultOrigins, false},
		{"https://localhost:3000", defaultOrigins, false},
		{"http://localhost:3000.evil.com", defaultOrigins, false},
		{"moz-extension://abcdefg12345", defaultOrigins, false},
		{"https://www.trendyol.com", []string{"https://*.trendyol.com", "https://www.trendyol.com"}, true},
		{"", defaultOrigins, false},
		{"", []string{"*"}, false},
		{"chrome-extension://abcdefg12345", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := isAllowedOrigin(tt.origin, tt.allowed); got != tt.want {
				t.Errorf("isAllowedOrigin(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
			}
		})
	}
}

func corsRouter() *gin.Engine {
	router := gin.New()
	router.Use(CORSMiddleware(defaultOrigins))
	router.POST("/api/v1/products/search", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return router
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantCORS   bool
	}{
		{"extension search", "chrome-extension://abcdefg12345", http.MethodPost, http.StatusOK, true},
		{"web client search", "http://localhost:3000", http.MethodPost, http.StatusOK, true},
		{"web client preflight", "http://localhost:3000", http.MethodOptions, http.StatusNoContent, true},
		{"foreign site search", "http://evil.com", http.MethodPost, http.StatusOK, false},
		{"foreign site preflight", "http://evil.com", http.MethodOptions, http.StatusNoContent, false},
		{"server to server call", "", http.MethodPost, http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/products/search", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			corsRouter().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			h := w.Header()
			if !tt.wantCORS {
				for _, name := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Methods", "Access-Control-Allow-Headers"} {
					if got := h.Get(name); got != "" {
						t.Errorf("%s = %q, want unset", name, got)
					}
				}
				return
			}

			if got := h.Get("Access-Control-Allow-Origin"); got != tt.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.origin)
			}
			if got := h.Get("Access-Control-Allow-Credentials"); got != "true" {
				t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
			}
			if got := h.Get("Access-Control-Allow-Methods"); got != "POST, GET, OPTIONS" {
				t.Errorf("Access-Control-Allow-Methods = %q, want POST, GET, OPTIONS", got)
			}
			allowHeaders := h.Get("Access-Control-Allow-Headers")
			for _, want := range []string{"Content-Type", "X-Request-ID"} {
				if !strings.Contains(allowHeaders, want) {
					t.Errorf("Access-Control-Allow-Headers = %q, missing %s", allowHeaders, want)
				}
			}
			if got := h.Get("Access-Control-Max-Age"); got != "3600" {
				t.Errorf("Access-Control-Max-Age = %q, want 3600", got)
			}
		})
	}
}

func TestIPLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(60, 2)
	l.now = func() time.Time { return now }

	if wait := l.reserve("10.0.0.1"); wait != 0 {
		t.Fatalf("first request wait = %v, want 0", wait)
	}
	if wait := l.reserve("10.0.0.1"); wait != 0 {
		t.Fatalf("second request wait = %v, want 0 within burst", wait)
	}
	if wait := l.reserve("10.0.0.1"); wait <= 0 || wait > time.Second {
		t.Errorf("third request wait = %v, want (0, 1s]", wait)
	}

	// other clients have their own bucket
	if wait := l.reserve("10.0.0.2"); wait != 0 {
		t.Errorf("other client wait = %v, want 0", wait)
	}

	// a denied request does not consume a token
	now = now.Add(time.Second)
	if wait := l.reserve("10.0.0.1"); wait != 0 {
		t.Errorf("wait after refill = %v, want 0", wait)
	}

	// idle clients are swept
	now = now.Add(11 * time.Minute)
	l.reserve("10.0.0.3")
	if _, ok := l.clients["10.0.0.1"]; ok {
		t.Errorf("idle client 10.0.0.1 should have been swept")
	}
	if len(l.clients) != 1 {
		t.Errorf("clients = %d, want 1", len(l.clients))
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitMiddleware(0, 0))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: Status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimitMiddleware_RetryAfterHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitMiddleware(30, 1))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	// 30 per minute refills one token every 2s
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %s, want 2", got)
	}
}
