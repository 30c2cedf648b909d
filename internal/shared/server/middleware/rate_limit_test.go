package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllowRefills(t *testing.T) {
	now := time.Unix(0, 0)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 2}

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected first call allowed")
	}
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected second call allowed (burst)")
	}
	ok, retryAfter := limiter.Allow("k", rule)
	if ok {
		t.Fatalf("expected third call denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %s", retryAfter)
	}

	now = now.Add(2 * time.Second)
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected call allowed after refill")
	}
}

func TestRateLimitMiddlewareDenies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Unix(0, 0)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Rules:   map[string]RateLimitRule{defaultRateLimitGroup: {Rate: 1, Burst: 1}},
		Limiter: limiter,
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/x", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/x", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestIdentityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Identity())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFromContext(c))
	})

	missing := httptest.NewRecorder()
	r.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if missing.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", missing.Code)
	}

	guestReq := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	guestReq.Header.Set("X-Guest-Id", "abc")
	guest := httptest.NewRecorder()
	r.ServeHTTP(guest, guestReq)
	if guest.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", guest.Code)
	}
	if guest.Body.String() != "guest:abc" {
		t.Fatalf("expected guest id, got %q", guest.Body.String())
	}
}
