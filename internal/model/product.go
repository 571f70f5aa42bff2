package model

import (
	"fmt"
	"strconv"
)

// Product はカタログに並ぶ商品を表す。
// Priceは最小通貨単位（セント）の整数で保持し、表示時のみ小数に変換する。
// DescriptionとImageは空文字列を「未設定」として扱う。
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// PriceDisplay は価格を小数表記（例: "29.99"）で返す。
func (p *Product) PriceDisplay() string {
	return FormatMinor(p.Price)
}

// ProductKey はカート上で使う商品IDの文字列表現を返す。
func ProductKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// FormatMinor は最小通貨単位の金額を小数点以下2桁の文字列に変換する。
// 浮動小数点を経由しないため丸め誤差は発生しない。
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
