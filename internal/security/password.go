package security

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/hitoshi/storefront/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードの一方向ハッシュ化と照合のインターフェース。
// 平文パスワードは保存しない。
type PasswordHasher interface {
	// Hash はソルト付きのハッシュ文字列を返す。
	Hash(password string) (string, error)
	// Verify はパスワードがハッシュに一致するかを返す。
	// 不一致はエラーではなくfalseで表す。
	Verify(hash, password string) (bool, error)
}

// BcryptHasher はbcryptによるPasswordHasherの実装。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使う。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash はパスワードをbcryptでハッシュ化する。
func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify はパスワードとbcryptハッシュを照合する。
func (h *BcryptHasher) Verify(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify password: %w", err)
}

// PasswordPolicy はユーザー登録時のパスワード強度ポリシー。
type PasswordPolicy string

const (
	// PolicyStrict は8文字以上かつ小文字・大文字・数字・記号を各1文字以上要求する。
	PolicyStrict PasswordPolicy = "strict"
	// PolicyBasic は空でないことのみを要求する。
	PolicyBasic PasswordPolicy = "basic"
)

// minStrictLength はPolicyStrictの最小文字数。
const minStrictLength = 8

// maxPasswordBytes はbcryptが扱える最大バイト数。
const maxPasswordBytes = 72

// ParsePasswordPolicy は設定値からポリシーを解釈する。未知の値はPolicyStrictとして扱う。
func ParsePasswordPolicy(s string) PasswordPolicy {
	if PasswordPolicy(s) == PolicyBasic {
		return PolicyBasic
	}
	return PolicyStrict
}

// Check はパスワードがポリシーを満たすか検証する。
// 満たさない場合は最初に見つかった不足条件を含むWEAK_PASSWORDエラーを返す。
func (p PasswordPolicy) Check(password string) error {
	if len(password) > maxPasswordBytes {
		return model.NewWeakPasswordError(fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if p != PolicyStrict {
		return nil
	}

	if utf8.RuneCountInString(password) < minStrictLength {
		return model.NewWeakPasswordError(fmt.Sprintf("must be at least %d characters", minStrictLength))
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasLower:
		return model.NewWeakPasswordError("missing a lowercase letter")
	case !hasUpper:
		return model.NewWeakPasswordError("missing an uppercase letter")
	case !hasDigit:
		return model.NewWeakPasswordError("missing a digit")
	case !hasSymbol:
		return model.NewWeakPasswordError("missing a non-alphanumeric character")
	}

	return nil
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
