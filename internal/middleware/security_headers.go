package middleware

import "net/http"

// contentSecurityPolicy は画面が読み込めるリソースを自サイトのスタイルシートとフォーム送信に限定する。
// 画面はJavaScriptを使わないためscriptはすべて拒否する。
const contentSecurityPolicy = "default-src 'self'; script-src 'none'; style-src 'self'; " +
	"img-src 'self' data:; form-action 'self'; frame-ancestors 'none'; base-uri 'none'"

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// 認証済み画面がプロキシやブラウザにキャッシュされないようCache-Controlも設定する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
