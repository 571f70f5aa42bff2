package middleware

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// errorPageTemplate はハンドラーのテンプレートに依存しない最小限のエラーページ。
// パニック復旧時など、通常の描画処理が使えない場面でも表示できる。
var errorPageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .Action}}<p>{{.Action}}</p>{{end}}
<p><a href="/">Back to the shop</a></p>
</body>
</html>
`))

// errorPage はエラーページの表示内容。
type errorPage struct {
	Title   string
	Message string
	Action  string
}

// WriteErrorPage はAppErrorの内容をHTMLエラーページとして書き込む。
func WriteErrorPage(w http.ResponseWriter, statusCode int, appErr *model.AppError) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := errorPageTemplate.Execute(w, errorPage{
		Title:   http.StatusText(statusCode),
		Message: appErr.Message,
		Action:  appErr.Action,
	}); err != nil {
		slog.Error("failed to render error page", slog.String("error", err.Error()))
	}
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorPage(w, http.StatusInternalServerError, &model.AppError{
		Code:     "INTERNAL_ERROR",
		Message:  "Something went wrong on our side.",
		Category: model.CategorySystem,
		Action:   "Please wait a moment and try again.",
	})
}
