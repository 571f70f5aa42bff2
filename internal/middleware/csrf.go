package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	csrfCookieName = "csrf_token"

	// csrfHeaderName はリクエストヘッダーからCSRFトークンを読み取る際のヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	// CSRFFormField はフォームに埋め込むCSRFトークンのフィールド名。
	CSRFFormField = "csrf_token"
)

var csrfTokenContextKey = contextKey("csrf_token")

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
}

// NewCSRFMiddleware はCSRFトークンの生成・検証ミドルウェアを返す（ダブルサブミット方式）。
// 安全なメソッド（GET, HEAD, OPTIONS）はトークン検証をスキップし、
// CSRFトークンCookieを設定したうえでトークンをコンテキストに格納する。
// 状態変更メソッドはCookieのトークンとフォームフィールドまたはヘッダーのトークンの一致を必須とする。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				token := ensureCSRFCookie(w, r, config)
				next.ServeHTTP(w, r.WithContext(ContextWithCSRFToken(r.Context(), token)))
				return
			}

			cookieToken, err := r.Cookie(csrfCookieName)
			if err != nil || cookieToken.Value == "" {
				slog.Warn("CSRF validation failed: missing cookie token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			submitted := r.Header.Get(csrfHeaderName)
			if submitted == "" {
				submitted = r.PostFormValue(CSRFFormField)
			}
			if submitted == "" {
				slog.Warn("CSRF validation failed: missing submitted token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			if subtle.ConstantTimeCompare([]byte(cookieToken.Value), []byte(submitted)) != 1 {
				slog.Warn("CSRF validation failed: token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			// フォームを再表示する場合に同じトークンを埋め込めるようにする
			next.ServeHTTP(w, r.WithContext(ContextWithCSRFToken(r.Context(), cookieToken.Value)))
		})
	}
}

// CSRFTokenFromContext はフォームに埋め込むCSRFトークンを返す。
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenContextKey).(string)
	return token
}

// ContextWithCSRFToken はコンテキストにCSRFトークンを注入する。
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenContextKey, token)
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// ensureCSRFCookie はCSRFトークンCookieが未設定の場合に設定し、有効なトークンを返す。
// 生成に失敗した場合は空文字列を返す。
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, config CSRFConfig) string {
	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   86400, // 24時間
		HttpOnly: true,  // トークンはフォームに埋め込んで渡す
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// generateCSRFToken は暗号的に安全なCSRFトークンを生成する。
func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
