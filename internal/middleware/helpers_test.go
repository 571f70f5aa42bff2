package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/storefront/internal/session"
)

func newTestSessionManager() *session.Manager {
	return session.NewManager(session.Options{
		Secret:         "middleware-test-secret-0123456789",
		RememberMaxAge: 30 * 24 * 60 * 60,
	})
}

// requestWithSessionUser はログイン済みセッションをコンテキストに持つリクエストを生成する。
func requestWithSessionUser(t *testing.T, method, target string, userID int64) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	st := newTestSessionManager().Load(req)
	st.SetUser(userID, false)
	return req.WithContext(session.NewContext(req.Context(), st))
}

// sessionCookieFrom はレスポンスからセッションCookieを取り出す。
func sessionCookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}
