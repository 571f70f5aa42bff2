// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// currentUserContextKey はリクエストコンテキストにログインユーザーを格納するためのキー。
var currentUserContextKey = contextKey("current_user")

// sessionWriter はレスポンスヘッダー送信直前にセッションを保存するResponseWriter。
type sessionWriter struct {
	http.ResponseWriter
	r     *http.Request
	state *session.State
	saved bool
}

func (sw *sessionWriter) save() {
	if sw.saved {
		return
	}
	sw.saved = true
	if err := sw.state.Save(sw.r, sw.ResponseWriter); err != nil {
		slog.Error("failed to save session",
			slog.String("path", sw.r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// WriteHeader はセッションを保存してから委譲する。
func (sw *sessionWriter) WriteHeader(code int) {
	sw.save()
	sw.ResponseWriter.WriteHeader(code)
}

// Write はセッションを保存してから委譲する。
func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.save()
	return sw.ResponseWriter.Write(b)
}

// Unwrap はhttp.ResponseControllerのために元のResponseWriterを返す。
func (sw *sessionWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// NewSessionMiddleware は署名付きCookieからセッションを読み込み、リクエストコンテキストに注入するミドルウェアを返す。
// セッションには常にカートが存在する。ハンドラーでの変更はレスポンス送信時に自動で保存される。
func NewSessionMiddleware(manager *session.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := manager.Load(r)
			r = r.WithContext(session.NewContext(r.Context(), st))

			sw := &sessionWriter{ResponseWriter: w, r: r, state: st}
			next.ServeHTTP(sw, r)

			// 何も書き込まれなかった場合
			sw.save()
		})
	}
}

// CurrentUserResolver はセッションのユーザーIDからユーザーを解決するインターフェース。
type CurrentUserResolver interface {
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// NewCurrentUserMiddleware はセッションのユーザーIDをユーザーに解決し、コンテキストに注入するミドルウェアを返す。
// 削除済みユーザーを指すセッションはログイン情報を消去し、未ログインとして扱う。
// NewSessionMiddlewareの後に配置する。
func NewCurrentUserMiddleware(resolver CurrentUserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := session.FromContext(r.Context())
			if st == nil || st.UserID() == 0 {
				next.ServeHTTP(w, r)
				return
			}

			userID := st.UserID()
			user, err := resolver.CurrentUser(r.Context(), userID)
			if err != nil {
				slog.Error("failed to resolve current user",
					slog.Int64("user_id", userID),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				slog.Info("clearing stale session user", slog.Int64("user_id", userID))
				st.ClearUser()
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithCurrentUser(r.Context(), user)))
		})
	}
}

// UserIDFromContext はリクエストコンテキストのセッションからログイン中のユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (int64, error) {
	st := session.FromContext(ctx)
	if st == nil || st.UserID() == 0 {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return st.UserID(), nil
}

// CurrentUserFromContext はコンテキストからログインユーザーを取得する。未ログインの場合はnil。
func CurrentUserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(currentUserContextKey).(*model.User)
	return user
}

// ContextWithCurrentUser はコンテキストにログインユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCurrentUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, currentUserContextKey, user)
}
