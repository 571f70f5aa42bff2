package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
	"github.com/hitoshi/storefront/internal/session"
)

// --- モック定義 ---

type mockCatalogService struct {
	listProductsFn func(ctx context.Context) ([]*model.Product, error)
}

func (m *mockCatalogService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	if m.listProductsFn != nil {
		return m.listProductsFn(ctx)
	}
	return nil, nil
}

type mockProductFinder struct {
	getProductFn func(ctx context.Context, id int64) (*model.Product, error)
}

func (m *mockProductFinder) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if m.getProductFn != nil {
		return m.getProductFn(ctx, id)
	}
	return nil, nil
}

type mockAccountService struct {
	registerFn       func(ctx context.Context, username, password string) (*model.User, error)
	loginFn          func(ctx context.Context, username, password string) (*model.User, error)
	forgotPasswordFn func(ctx context.Context, username string) string
}

func (m *mockAccountService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, password)
	}
	return nil, nil
}

func (m *mockAccountService) Login(ctx context.Context, username, password string) (*model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, nil
}

func (m *mockAccountService) ForgotPassword(ctx context.Context, username string) string {
	if m.forgotPasswordFn != nil {
		return m.forgotPasswordFn(ctx, username)
	}
	return ""
}

type mockUserResolver struct {
	currentUserFn func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockUserResolver) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, nil
}

type mockHealthChecker struct {
	pingFn func(ctx context.Context) error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// コンパイル時にインターフェースの実装を検証する
var (
	_ CatalogServiceInterface        = (*mockCatalogService)(nil)
	_ CartServiceInterface           = (*cart.Service)(nil)
	_ cart.ProductFinder             = (*mockProductFinder)(nil)
	_ AccountServiceInterface        = (*mockAccountService)(nil)
	_ middleware.CurrentUserResolver = (*mockUserResolver)(nil)
	_ HealthChecker                  = (*mockHealthChecker)(nil)
)

// --- テストヘルパー ---

// testProducts はテスト用の商品一覧。
var testProducts = []*model.Product{
	{ID: 1, Name: "Wireless Mouse", Price: 2999, Description: "A comfortable <b>wireless</b> mouse."},
	{ID: 2, Name: "USB-C Charger", Price: 1999},
}

// newTestProductFinder はtestProductsを引くProductFinderを返す。
func newTestProductFinder() *mockProductFinder {
	return &mockProductFinder{
		getProductFn: func(_ context.Context, id int64) (*model.Product, error) {
			for _, p := range testProducts {
				if p.ID == id {
					return p, nil
				}
			}
			return nil, nil
		},
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	rd, err := NewRenderer(security.NewContentSanitizer())
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return rd
}

func newTestSessionManager() *session.Manager {
	return session.NewManager(session.Options{
		Secret:         "handler-test-secret-0123456789abcdef",
		RememberMaxAge: 30 * 24 * 60 * 60,
	})
}

// withSession はリクエストに新しいセッションを持たせ、その状態を返す。
func withSession(req *http.Request) (*http.Request, *session.State) {
	st := newTestSessionManager().Load(req)
	return req.WithContext(session.NewContext(req.Context(), st)), st
}

// newFormRequest はフォーム送信のPOSTリクエストを生成する。
func newFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}
