package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
)

// ProductFinder はカート計算に必要な商品参照のインターフェース。
type ProductFinder interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// LineItem は合計計算で解決されたカートの1行。
type LineItem struct {
	Product   *model.Product
	Quantity  int
	LineTotal int64
}

// LineTotalDisplay は行合計を小数表記で返す。
func (l LineItem) LineTotalDisplay() string {
	return model.FormatMinor(l.LineTotal)
}

// Summary はカートの明細と合計金額。
type Summary struct {
	Lines []LineItem
	Total int64
}

// TotalDisplay は合計金額を小数表記で返す。
func (s *Summary) TotalDisplay() string {
	return model.FormatMinor(s.Total)
}

// IsEmpty は解決できた明細が1件もないかどうかを返す。
func (s *Summary) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Receipt はチェックアウト結果の表示用サマリー。
// 注文は永続化しないため、Referenceは画面表示にのみ使う。
type Receipt struct {
	Summary
	Reference string
	PlacedAt  time.Time
}

// Service はカート操作のサービス層。
type Service struct {
	products ProductFinder
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewService はServiceを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(products ProductFinder, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		products: products,
		metrics:  collector,
		now:      time.Now,
	}
}

// Add は指定商品の数量を1増やす。
// 商品が存在しない場合はカートを変更せずfalseを返す。
func (s *Service) Add(ctx context.Context, c Cart, productID int64) (bool, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("failed to look up product for cart: %w", err)
	}
	if product == nil {
		return false, nil
	}

	c.Increment(model.ProductKey(product.ID))
	s.metrics.RecordCartAdd()
	return true, nil
}

// Remove は指定商品の数量を1減らす。カートにない場合はfalseを返す。
func (s *Service) Remove(c Cart, productID int64) bool {
	if !c.RemoveOne(model.ProductKey(productID)) {
		return false
	}
	s.metrics.RecordCartRemove()
	return true
}

// ComputeTotals はカートの各エントリを商品ID昇順で解決し、明細と合計を返す。
// 削除済みの商品や数値でないキーは黙ってスキップする。カート自体は変更しない。
func (s *Service) ComputeTotals(ctx context.Context, c Cart) (*Summary, error) {
	summary := &Summary{Lines: []LineItem{}}
	for _, e := range c.sortedEntries() {
		product, err := s.products.GetProduct(ctx, e.id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cart line %d: %w", e.id, err)
		}
		if product == nil {
			slog.Debug("skipping dangling cart entry", slog.Int64("product_id", e.id))
			continue
		}

		line := LineItem{
			Product:   product,
			Quantity:  e.qty,
			LineTotal: product.Price * int64(e.qty),
		}
		summary.Lines = append(summary.Lines, line)
		summary.Total += line.LineTotal
	}
	return summary, nil
}

// Checkout は合計を計算した後、カートをその場で空にする。
// 合計計算に失敗した場合はカートを変更しない。
func (s *Service) Checkout(ctx context.Context, c Cart) (*Receipt, error) {
	summary, err := s.ComputeTotals(ctx, c)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		Summary:   *summary,
		Reference: uuid.NewString(),
		PlacedAt:  s.now(),
	}
	c.Clear()

	s.metrics.RecordCheckout(receipt.Total)
	slog.Info("checkout completed",
		slog.String("reference", receipt.Reference),
		slog.Int("lines", len(receipt.Lines)),
		slog.Int64("total_minor", receipt.Total),
	)
	return receipt, nil
}
