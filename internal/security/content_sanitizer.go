// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は商品説明に含まれるHTMLをサニタイズし、
// 一覧・カート画面に埋め込んでも安全なマークアップだけを残す。
// PasswordHasher はパスワードの一方向ハッシュ化と照合を行う。
package security

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は商品説明HTMLのサニタイズ機能のインターフェースを定義する。
type ContentSanitizer interface {
	// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, ul, ol, li, strong, em, b, i）のみを通過させ、
	// リンク・画像・script・style・on*イベント属性はすべて除去する。
	// 空文字列の入力には空文字列を返す。同一入力に対して常に同一出力を返す。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 商品説明は書式付きテキストのみ。リンクと画像は商品データの別フィールドで扱う。
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "b", "i",
	)

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// SafeHTML はサニタイズ済みのHTMLをテンプレートにそのまま埋め込める型で返す。
func SafeHTML(s ContentSanitizer, rawHTML string) template.HTML {
	return template.HTML(s.Sanitize(rawHTML))
}
