package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/bottlecrm/bottlecrm/internal/telemetry"
)

// ---------------------------------------------------------------------------
// RequestIDMiddleware
// ---------------------------------------------------------------------------

func newRequestIDRouter(seen *string) *gin.Engine {
	e := gin.New()
	e.Use(RequestIDMiddleware())
	e.GET("/", func(c *gin.Context) {
		*seen = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})
	return e
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	var seen string
	w := doRequest(newRequestIDRouter(&seen), requestOpts{})

	got := w.Header().Get(RequestIDHeader)
	if len(got) != 36 {
		t.Errorf("generated request id %q is not a UUID", got)
	}
	if seen != got {
		t.Errorf("context id %q != header id %q", seen, got)
	}
}

func TestRequestIDMiddleware_ReusesInbound(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	w := httptest.NewRecorder()
	newRequestIDRouter(&seen).ServeHTTP(w, req)

	if seen != "upstream-123" || w.Header().Get(RequestIDHeader) != "upstream-123" {
		t.Errorf("inbound id not reused: ctx=%q header=%q", seen, w.Header().Get(RequestIDHeader))
	}
}

func TestRequestIDMiddleware_ReplacesOversized(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	w := httptest.NewRecorder()
	newRequestIDRouter(&seen).ServeHTTP(w, req)

	if len(seen) != 36 {
		t.Errorf("oversized id was not replaced: %d chars", len(seen))
	}
}

// ---------------------------------------------------------------------------
// SecurityHeadersMiddleware
// ---------------------------------------------------------------------------

func TestSecurityHeadersMiddleware_API(t *testing.T) {
	e := gin.New()
	e.Use(SecurityHeadersMiddleware(APISecurityHeadersConfig()))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := doRequest(e, requestOpts{})

	want := map[string]string{
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":           "no-referrer",
	}
	for h, v := range want {
		if got := w.Header().Get(h); got != v {
			t.Errorf("%s = %q, want %q", h, got, v)
		}
	}
}

func TestSecurityHeadersMiddleware_HSTSDisabled(t *testing.T) {
	e := gin.New()
	e.Use(SecurityHeadersMiddleware(SecurityHeadersConfig{}))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := doRequest(e, requestOpts{})

	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set with zero max-age")
	}
	if w.Header().Get("X-Frame-Options") != "" {
		t.Error("X-Frame-Options set with empty config")
	}
}

// ---------------------------------------------------------------------------
// CORSMiddleware
// ---------------------------------------------------------------------------

func corsRequest(origins []string, method, origin string) *httptest.ResponseRecorder {
	e := gin.New()
	e.Use(CORSMiddleware(origins))
	e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("allowed origin is echoed", func(t *testing.T) {
		w := corsRequest([]string{"https://app.bottlecrm.io"}, http.MethodGet, "https://app.bottlecrm.io")
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.bottlecrm.io" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), OrganizationHeader) {
			t.Error("organization header not allowed")
		}
	})

	t.Run("other origin gets no headers", func(t *testing.T) {
		w := corsRequest([]string{"https://app.bottlecrm.io"}, http.MethodGet, "https://evil.example")
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		w := corsRequest([]string{"*"}, http.MethodGet, "https://anywhere.example")
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
			t.Errorf("Allow-Origin = %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		w := corsRequest([]string{"*"}, http.MethodOptions, "https://anywhere.example")
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", w.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// LoggerMiddleware
// ---------------------------------------------------------------------------

func TestLoggerMiddleware_EmitsRequestRecord(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	e := gin.New()
	e.Use(RequestIDMiddleware(), LoggerMiddleware())
	e.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	doRequest(e, requestOpts{path: "/missing"})

	out := buf.String()
	for _, want := range []string{`"msg":"http request"`, `"level":"WARN"`, `"status":404`, `"path":"/missing"`, `"request_id":"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

// ---------------------------------------------------------------------------
// MetricsMiddleware
// ---------------------------------------------------------------------------

func requestCount(t *testing.T, method, path, status string) float64 {
	t.Helper()
	var m dto.Metric
	c, err := telemetry.HTTPRequestsTotal.GetMetricWith(prometheus.Labels{"method": method, "path": path, "status": status})
	if err != nil {
		t.Fatalf("GetMetricWith: %v", err)
	}
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	e := gin.New()
	e.Use(MetricsMiddleware())
	e.GET("/api/leads/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := requestCount(t, "GET", "/api/leads/:id", "200")
	doRequest(e, requestOpts{path: "/api/leads/123"})
	doRequest(e, requestOpts{path: "/api/leads/456"})
	if got := requestCount(t, "GET", "/api/leads/:id", "200") - before; got != 2 {
		t.Errorf("counter moved by %.0f, want 2", got)
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	e := gin.New()
	e.Use(MetricsMiddleware())

	before := requestCount(t, "GET", "<no-route>", "404")
	doRequest(e, requestOpts{path: "/nope"})
	if got := requestCount(t, "GET", "<no-route>", "404") - before; got != 1 {
		t.Errorf("counter moved by %.0f, want 1", got)
	}
}
