package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker はデータベースの疎通確認を行うインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// healthCheckTimeout はヘルスチェック時のDB疎通確認の上限時間。
const healthCheckTimeout = 2 * time.Second

// NewHealthHandler はDBへの疎通を確認するヘルスチェックハンドラーを返す。
// 疎通できない場合は503を返す。
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
