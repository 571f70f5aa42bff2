// Package model はドメインモデルを定義する。
package model

import "fmt"

// AppError は利用者に提示できるドメインエラーを表す。
// 画面に表示するメッセージと対処方法を含む。
type AppError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategorySystem     = "system"
)

// NewRequiredFieldsError はユーザー名またはパスワードが未入力の場合のエラーを生成する。
func NewRequiredFieldsError() *AppError {
	return &AppError{
		Code:     ErrCodeValidation,
		Message:  "Username and password are required.",
		Category: CategoryValidation,
		Action:   "Fill in both fields and submit again.",
	}
}

// NewInvalidUsernameError はユーザー名が長すぎる、または不正な文字列の場合のエラーを生成する。
func NewInvalidUsernameError() *AppError {
	return &AppError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("Username must be valid text of at most %d characters.", MaxUsernameLength),
		Category: CategoryValidation,
		Action:   "Choose a shorter username.",
	}
}

// NewUsernameTakenError は既に使われているユーザー名で登録しようとした場合のエラーを生成する。
func NewUsernameTakenError() *AppError {
	return &AppError{
		Code:     ErrCodeUsernameTaken,
		Message:  "Username already exists.",
		Category: CategoryValidation,
		Action:   "Choose a different username.",
	}
}

// NewWeakPasswordError はパスワードが強度ポリシーを満たさない場合のエラーを生成する。
// reasonには満たしていない条件を渡す。
func NewWeakPasswordError(reason string) *AppError {
	return &AppError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("Password is too weak: %s.", reason),
		Category: CategoryValidation,
		Action:   "Use at least 8 characters with upper and lower case letters, a digit and a symbol.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid username or password.",
		Category: CategoryAuth,
		Action:   "Check your username and password and try again.",
	}
}

// IsValidation はエラーが入力検証エラーかどうかを判定する。
func (e *AppError) IsValidation() bool {
	return e.Category == CategoryValidation
}
