// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/storefront/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// 呼び出し側はerrors.Isで判定し、ドメインエラーに変換する。
var ErrDuplicate = errors.New("duplicate key")

// ProductRepository は商品カタログの永続化インターフェース。
type ProductRepository interface {
	// List は全商品をID昇順で返す。ページネーションやフィルタは行わない。
	List(ctx context.Context) ([]*model.Product, error)

	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Product, error)

	// Count は登録済み商品数を返す。
	Count(ctx context.Context) (int, error)

	// CreateBatch は複数の商品を同一トランザクションで作成し、採番されたIDを各商品に設定する。
	CreateBatch(ctx context.Context, products []*model.Product) error
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername はユーザー名の完全一致（大文字小文字を区別）でユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDと作成日時を設定する。
	// ユーザー名が重複する場合はErrDuplicateをラップしたエラーを返す。
	Create(ctx context.Context, user *model.User) error
}
