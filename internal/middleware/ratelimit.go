package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	AuthRate        rate.Limit    // 認証フォーム送信のレート（req/sec）。20/60
	AuthBurst       int           // 認証フォーム送信のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 認証フォーム送信 20 req/min/IP
func DefaultRateLimiterConfig() RateLimiterConfig {
	return AuthRateLimiterConfig(20)
}

// AuthRateLimiterConfig は1分あたりの許容リクエスト数からレート制限設定を生成する。
func AuthRateLimiterConfig(perMinute int) RateLimiterConfig {
	if perMinute < 1 {
		perMinute = 1
	}
	return RateLimiterConfig{
		AuthRate:        rate.Limit(float64(perMinute) / 60.0),
		AuthBurst:       perMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// ログイン・登録・パスワード再設定フォームの総当たりを抑止する。
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

// AuthMiddleware は認証フォーム送信（POST）のレート制限ミドルウェアを返す。
// フォーム表示（GET）は制限しない。
func (rl *RateLimiter) AuthMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !rl.getOrCreateLimiter(ip).Allow() {
				writeRateLimitResponse(w, rl.config.AuthRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("path", r.URL.Path),
					slog.String("limit_type", "auth"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// getOrCreateLimiter はクライアントのリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, exists := rl.limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.config.AuthRate, rl.config.AuthBurst)
	rl.limiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
	rl.mu.Unlock()
}

// clientIP はリクエスト元のIPアドレスを返す。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte("Too many attempts. Please wait a moment and try again.\n"))
}
