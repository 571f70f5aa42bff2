// Package model はドメインモデルを定義する。
package model

import "time"

// MaxUsernameLength はユーザー名の最大文字数。usersテーブルのusername列の長さと一致させる。
const MaxUsernameLength = 80

// User はストアに登録したユーザーを表す。
// Usernameは大文字小文字を区別して一意。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
