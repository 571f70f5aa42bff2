package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// handleServiceError はサービス層から返されたエラーをエラーページに変換する。
// AppError以外は内部エラーとしてログに記録し、詳細は返さない。
func handleServiceError(w http.ResponseWriter, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		middleware.WriteErrorPage(w, mapAppErrorToHTTPStatus(appErr), appErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAppErrorToHTTPStatus はAppErrorのカテゴリからHTTPステータスコードにマッピングする。
func mapAppErrorToHTTPStatus(appErr *model.AppError) int {
	switch appErr.Category {
	case model.CategoryValidation:
		return http.StatusUnprocessableEntity
	case model.CategoryAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
