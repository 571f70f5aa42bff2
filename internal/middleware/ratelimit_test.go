package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

// authPost は指定IPからのログインPOSTリクエストを生成する。
func authPost(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRateLimit_AllowsRequestsWithinLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		AuthRate:        2, // 2 req/sec
		AuthBurst:       5, // バースト5
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.AuthMiddleware()(okHandler())

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authPost("192.0.2.1:1234"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}
}

func TestAuthRateLimit_Returns429WhenLimitExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		AuthRate:        1,
		AuthBurst:       3,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.AuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), authPost("192.0.2.2:1000"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authPost("192.0.2.2:1001"))

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
	if handlerCallCount != 3 {
		t.Errorf("handler called %d times, want 3", handlerCallCount)
	}
}

func TestAuthRateLimit_Returns429WithRetryAfterHeader(t *testing.T) {
	cfg := AuthRateLimiterConfig(1) // 1 req/min
	cfg.AuthBurst = 1

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.AuthMiddleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), authPost("192.0.2.3:1"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authPost("192.0.2.3:1"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	retrySeconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After header should be a number, got %q", resp.Header.Get("Retry-After"))
	}
	if retrySeconds < 60 || retrySeconds > 61 {
		t.Errorf("Retry-After = %d, want about 60", retrySeconds)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Too many attempts") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestAuthRateLimit_IsolatesClients(t *testing.T) {
	cfg := RateLimiterConfig{
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.AuthMiddleware()(okHandler())

	// クライアントAはバーストを使い切る
	handler.ServeHTTP(httptest.NewRecorder(), authPost("198.51.100.1:5000"))
	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, authPost("198.51.100.1:5001"))
	if wA.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("client A second request: status = %d, want %d", wA.Result().StatusCode, http.StatusTooManyRequests)
	}

	// クライアントBは影響を受けない
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, authPost("198.51.100.2:5000"))
	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("client B: status = %d, want %d", wB.Result().StatusCode, http.StatusOK)
	}

	if count := rl.LimiterCount(); count != 2 {
		t.Errorf("LimiterCount() = %d, want 2", count)
	}
}

func TestAuthRateLimit_GETIsNotLimited(t *testing.T) {
	cfg := RateLimiterConfig{
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.AuthMiddleware()(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.RemoteAddr = "203.0.113.9:80"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusOK {
			t.Fatalf("GET %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}
	if rl.LimiterCount() != 0 {
		t.Errorf("GET requests should not create limiter entries")
	}
}

// --- クリーンアップのテスト ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := RateLimiterConfig{
		AuthRate:        2,
		AuthBurst:       5,
		CleanupInterval: 50 * time.Millisecond, // テスト用に短く
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.AuthMiddleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), authPost("192.0.2.50:1"))

	if rl.LimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// TTLはCleanupIntervalの2倍（100ms）なので200ms待てば削除される
	time.Sleep(200 * time.Millisecond)

	if count := rl.LimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.7", "192.0.2.7"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

// --- デフォルト設定値のテスト ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	want := 20.0 / 60.0
	if float64(cfg.AuthRate) != want {
		t.Errorf("AuthRate = %f, want %f", cfg.AuthRate, want)
	}
	if cfg.AuthBurst != 20 {
		t.Errorf("AuthBurst = %d, want 20", cfg.AuthBurst)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
}

func TestAuthRateLimiterConfig_ClampsToOne(t *testing.T) {
	cfg := AuthRateLimiterConfig(0)
	if cfg.AuthBurst != 1 {
		t.Errorf("AuthBurst = %d, want 1", cfg.AuthBurst)
	}
}
