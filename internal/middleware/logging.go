package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/storefront/internal/session"
)

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewLoggingMiddleware はリクエストのJSON構造化ログ（http_request）を出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_msに加え、セッションがあればcart_items、
// ログイン中であればuser_idを含む。
// セッション情報を出力するにはNewSessionMiddlewareの内側に配置する。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			durationMs := float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
			}

			// ハンドラーで変更された後のセッション状態を記録する
			if st := session.FromContext(r.Context()); st != nil {
				attrs = append(attrs, slog.Int("cart_items", st.Cart().Count()))
			}
			if userID, err := UserIDFromContext(r.Context()); err == nil {
				attrs = append(attrs, slog.Int64("user_id", userID))
			}

			level := slog.LevelInfo
			switch {
			case rec.statusCode >= 500:
				level = slog.LevelError
			case rec.statusCode >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http_request", attrs...)
		})
	}
}
