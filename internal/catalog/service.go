// Package catalog は商品カタログの参照と初期データ投入を提供する。
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// Service は商品カタログのサービス層。
// リクエスト処理中は読み取り専用で、書き込みはSeedIfEmptyのみ。
type Service struct {
	repo repository.ProductRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.ProductRepository) *Service {
	return &Service{repo: repo}
}

// ListProducts は全商品をID順に返す。
func (s *Service) ListProducts(ctx context.Context) ([]*model.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct は指定IDの商品を返す。
// 見つからない場合はエラーではなく(nil, nil)を返し、呼び出し側で扱う。
func (s *Service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// SeedIfEmpty は商品が1件もない場合のみサンプル商品を投入し、投入件数を返す。
// 既に商品がある場合は何もしないため、何度呼んでも結果は変わらない。
func (s *Service) SeedIfEmpty(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		slog.Debug("catalog already seeded", slog.Int("products", count))
		return 0, nil
	}

	products := SampleProducts()
	if err := s.repo.CreateBatch(ctx, products); err != nil {
		return 0, fmt.Errorf("failed to seed products: %w", err)
	}

	slog.Info("catalog seeded", slog.Int("products", len(products)))
	return len(products), nil
}

// SampleProducts は初期投入するサンプル商品を返す。
// 呼び出しごとに新しいスライスを返す。
func SampleProducts() []*model.Product {
	return []*model.Product{
		{
			Name:        "Wireless Mouse",
			Price:       2999,
			Description: "A comfortable and responsive wireless mouse.",
			Image:       "mouse.jpg",
		},
		{
			Name:        "Mechanical Keyboard",
			Price:       8499,
			Description: "A clicky, tactile mechanical keyboard with RGB backlight.",
			Image:       "keyboard.jpg",
		},
		{
			Name:        "USB-C Charger",
			Price:       1999,
			Description: "Fast-charging USB-C power adapter for phones and laptops.",
			Image:       "charger.jpg",
		},
		{
			Name:        "Noise Cancelling Headphones",
			Price:       12999,
			Description: "Over-ear headphones with active noise cancellation.",
			Image:       "headphones.jpg",
		},
	}
}
