package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
	"github.com/hitoshi/storefront/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// ページテンプレート名
const (
	pageIndex          = "index"
	pageCart           = "cart"
	pageCheckout       = "checkout"
	pageRegister       = "register"
	pageLogin          = "login"
	pageProfile        = "profile"
	pageForgotPassword = "forgot_password"
)

var pageNames = []string{
	pageIndex,
	pageCart,
	pageCheckout,
	pageRegister,
	pageLogin,
	pageProfile,
	pageForgotPassword,
}

// pageData は全ページ共通のテンプレートデータ。
// Dataにはページ固有の値を入れる。
type pageData struct {
	Title        string
	CurrentUser  *model.User
	CartCount    int
	Flashes      []string
	Error        string
	CSRFToken    string
	RememberDays int
	Data         any
}

// Renderer はレイアウトとページテンプレートを組み合わせてHTMLを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は埋め込みテンプレートを読み込んでRendererを生成する。
// 商品説明はsanitizerを通してから埋め込む。
func NewRenderer(sanitizer security.ContentSanitizer) (*Renderer, error) {
	funcs := template.FuncMap{
		"safeDescription": func(raw string) template.HTML {
			return security.SafeHTML(sanitizer, raw)
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// StaticHandler は埋め込み静的ファイルを配信するハンドラーを返す。
// /static/ プレフィックスを取り除いてから渡すこと。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// 埋め込みパスは固定のため到達しない
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// newPage はリクエストのセッション・ログイン状態から共通データを組み立てる。
// フラッシュメッセージはここで消費される。
func newPage(r *http.Request, title string, data any) *pageData {
	p := &pageData{
		Title:       title,
		CurrentUser: middleware.CurrentUserFromContext(r.Context()),
		CSRFToken:   middleware.CSRFTokenFromContext(r.Context()),
		Data:        data,
	}
	if st := session.FromContext(r.Context()); st != nil {
		p.CartCount = st.Cart().Count()
		p.Flashes = st.Flashes()
		p.RememberDays = st.RememberDays()
	}
	return p
}

// render はページを描画して書き込む。
// 描画に失敗した場合は途中までの出力を捨て、500ページを返す。
func (rd *Renderer) render(w http.ResponseWriter, status int, name string, data *pageData) {
	tmpl, ok := rd.pages[name]
	if !ok {
		slog.Error("unknown template", slog.String("template", name))
		middleware.WriteInternalServerError(w)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
