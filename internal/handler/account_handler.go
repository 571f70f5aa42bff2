package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
)

// AccountServiceInterface はアカウントハンドラーが必要とするアカウントサービスインターフェース。
type AccountServiceInterface interface {
	// Register はユーザーを登録する。
	Register(ctx context.Context, username, password string) (*model.User, error)
	// Login はユーザー名とパスワードを検証する。
	Login(ctx context.Context, username, password string) (*model.User, error)
	// ForgotPassword は常に同じ受付メッセージを返す。
	ForgotPassword(ctx context.Context, username string) string
}

// AccountHandler は登録・ログイン・ログアウト・プロフィールのHTTPハンドラー。
type AccountHandler struct {
	accounts AccountServiceInterface
	renderer *Renderer
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(accounts AccountServiceInterface, renderer *Renderer) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		renderer: renderer,
	}
}

// RegisterForm は登録フォームを表示する。
// GET /register
func (h *AccountHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, pageRegister, newPage(r, "Register", ""))
}

// Register はユーザーを登録し、そのままログイン状態にする。
// 登録時のログインはブラウザセッション限りとする。
// POST /register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")

	user, err := h.accounts.Register(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		h.renderFormError(w, r, pageRegister, "Register", username, err)
		return
	}

	st := session.FromContext(r.Context())
	st.SetUser(user.ID, false)
	st.AddFlash("Registration successful. You are now logged in.")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginForm はログインフォームを表示する。
// GET /login
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, pageLogin, newPage(r, "Log in", ""))
}

// Login は認証に成功した場合にセッションへユーザーIDを設定する。
// rememberがチェックされている場合は永続セッションにする。
// POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")

	user, err := h.accounts.Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		h.renderFormError(w, r, pageLogin, "Log in", username, err)
		return
	}

	remember := r.PostFormValue("remember") != ""

	st := session.FromContext(r.Context())
	st.SetUser(user.ID, remember)
	st.AddFlash("Logged in successfully.")

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.Bool("remember", remember),
	)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はセッションのログイン情報を消去する。未ログインでも成功する。
// GET /logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.ClearUser()
	st.AddFlash("You have been logged out.")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Profile はログイン中のユーザー情報を表示する。
// 未ログインの場合はログインページにリダイレクトする。
// GET /profile
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUserFromContext(r.Context())
	if user == nil {
		session.FromContext(r.Context()).AddFlash("Please log in to view your profile.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.renderer.render(w, http.StatusOK, pageProfile, newPage(r, "Profile", user))
}

// ForgotPasswordForm はパスワード再設定フォームを表示する。
// GET /forgot_password
func (h *AccountHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, pageForgotPassword, newPage(r, "Forgot password", ""))
}

// ForgotPassword はユーザーの有無にかかわらず同じ受付メッセージを表示する。
// POST /forgot_password
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	message := h.accounts.ForgotPassword(r.Context(), r.PostFormValue("username"))
	h.renderer.render(w, http.StatusOK, pageForgotPassword, newPage(r, "Forgot password", message))
}

// renderFormError はドメインエラーをフォームに表示して再描画する。
// 入力検証エラーは422、認証エラーは401を返す。
func (h *AccountHandler) renderFormError(w http.ResponseWriter, r *http.Request, name, title, username string, err error) {
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		handleServiceError(w, err)
		return
	}

	page := newPage(r, title, username)
	page.Error = appErr.Message
	h.renderer.render(w, mapAppErrorToHTTPStatus(appErr), name, page)
}
