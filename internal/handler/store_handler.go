// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
)

// CatalogServiceInterface はストアハンドラーが必要とするカタログサービスインターフェース。
type CatalogServiceInterface interface {
	// ListProducts は全商品をID順に返す。
	ListProducts(ctx context.Context) ([]*model.Product, error)
}

// CartServiceInterface はストアハンドラーが必要とするカートサービスインターフェース。
type CartServiceInterface interface {
	// Add は商品を1つ追加する。存在しない商品の場合はfalseを返す。
	Add(ctx context.Context, c cart.Cart, productID int64) (bool, error)
	// Remove は商品を1つ減らす。
	Remove(c cart.Cart, productID int64) bool
	// ComputeTotals はカートの明細と合計を返す。
	ComputeTotals(ctx context.Context, c cart.Cart) (*cart.Summary, error)
	// Checkout は合計を返し、カートを空にする。
	Checkout(ctx context.Context, c cart.Cart) (*cart.Receipt, error)
}

// StoreHandler は商品一覧・カート・チェックアウトのHTTPハンドラー。
type StoreHandler struct {
	catalog  CatalogServiceInterface
	cart     CartServiceInterface
	renderer *Renderer
}

// NewStoreHandler はStoreHandlerを生成する。
func NewStoreHandler(catalog CatalogServiceInterface, cartService CartServiceInterface, renderer *Renderer) *StoreHandler {
	return &StoreHandler{
		catalog:  catalog,
		cart:     cartService,
		renderer: renderer,
	}
}

// Index は商品一覧を表示する。
// GET /
func (h *StoreHandler) Index(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.renderer.render(w, http.StatusOK, pageIndex, newPage(r, "Products", products))
}

// AddToCart は商品をカートに1つ追加して商品一覧に戻る。
// 存在しない商品IDや数値でないIDの場合はカートを変更せずに戻る。
// GET /add_to_cart/{product_id}
func (h *StoreHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())

	if productID, ok := productIDParam(r); ok {
		added, err := h.cart.Add(r.Context(), st.Cart(), productID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if added {
			st.MarkDirty()
			st.AddFlash("Added to your cart.")
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ViewCart はカートの明細と合計を表示する。
// GET /cart
func (h *StoreHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())

	summary, err := h.cart.ComputeTotals(r.Context(), st.Cart())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.renderer.render(w, http.StatusOK, pageCart, newPage(r, "Your cart", summary))
}

// RemoveFromCart は商品をカートから1つ減らしてカートに戻る。
// GET /remove_from_cart/{product_id}
func (h *StoreHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())

	if productID, ok := productIDParam(r); ok {
		if h.cart.Remove(st.Cart(), productID) {
			st.MarkDirty()
		}
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Checkout は注文サマリーを表示し、カートを空にする。
// GET /checkout
func (h *StoreHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())

	receipt, err := h.cart.Checkout(r.Context(), st.Cart())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	st.MarkDirty()

	h.renderer.render(w, http.StatusOK, pageCheckout, newPage(r, "Order summary", receipt))
}

// productIDParam はURLパラメータproduct_idを正の整数として解釈する。
func productIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
