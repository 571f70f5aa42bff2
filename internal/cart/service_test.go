package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
)

// --- モック ---

type mockProductFinder struct {
	getProductFn func(ctx context.Context, id int64) (*model.Product, error)
}

func (m *mockProductFinder) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return m.getProductFn(ctx, id)
}

var _ ProductFinder = (*mockProductFinder)(nil)

// catalogFinder は固定の商品一覧から検索するモックを返す。
func catalogFinder(products ...*model.Product) *mockProductFinder {
	byID := make(map[int64]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductFinder{
		getProductFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return byID[id], nil
		},
	}
}

// countingMetrics は記録回数を数えるMetricsCollector。
type countingMetrics struct {
	metrics.NopCollector
	adds      int
	removes   int
	checkouts []int64
}

func (m *countingMetrics) RecordCartAdd()              { m.adds++ }
func (m *countingMetrics) RecordCartRemove()           { m.removes++ }
func (m *countingMetrics) RecordCheckout(amount int64) { m.checkouts = append(m.checkouts, amount) }

var mouse = &model.Product{ID: 1, Name: "Wireless Mouse", Price: 2999}
var keyboard = &model.Product{ID: 2, Name: "Mechanical Keyboard", Price: 8499}

// --- テスト ---

func TestAdd_RepeatedAddsAccumulate(t *testing.T) {
	svc := NewService(catalogFinder(mouse), nil)
	c := New()

	for i := 0; i < 5; i++ {
		added, err := svc.Add(context.Background(), c, 1)
		if err != nil {
			t.Fatalf("Add returned error: %v", err)
		}
		if !added {
			t.Fatal("expected product to be added")
		}
	}

	if c["1"] != 5 {
		t.Errorf(`cart["1"] = %d, want 5`, c["1"])
	}
}

func TestAdd_UnknownProductIsNoOp(t *testing.T) {
	m := &countingMetrics{}
	svc := NewService(catalogFinder(mouse), m)
	c := Cart{"1": 1}

	added, err := svc.Add(context.Background(), c, 99)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if added {
		t.Error("expected unknown product not to be added")
	}
	if len(c) != 1 || c["1"] != 1 {
		t.Errorf("cart mutated: %v", c)
	}
	if m.adds != 0 {
		t.Errorf("adds recorded = %d, want 0", m.adds)
	}
}

func TestAdd_LookupErrorPropagates(t *testing.T) {
	svc := NewService(&mockProductFinder{
		getProductFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return nil, errors.New("db down")
		},
	}, nil)
	c := New()

	if _, err := svc.Add(context.Background(), c, 1); err == nil {
		t.Fatal("expected error")
	}
	if len(c) != 0 {
		t.Errorf("cart mutated on error: %v", c)
	}
}

func TestRemove_RecordsOnlyWhenRemoved(t *testing.T) {
	m := &countingMetrics{}
	svc := NewService(catalogFinder(mouse), m)
	c := Cart{"1": 2}

	if !svc.Remove(c, 1) {
		t.Fatal("expected removal")
	}
	if svc.Remove(c, 7) {
		t.Error("expected absent product removal to report false")
	}
	if c["1"] != 1 {
		t.Errorf(`cart["1"] = %d, want 1`, c["1"])
	}
	if m.removes != 1 {
		t.Errorf("removes recorded = %d, want 1", m.removes)
	}
}

func TestComputeTotals_SumsLinesInIDOrder(t *testing.T) {
	svc := NewService(catalogFinder(mouse, keyboard), nil)
	c := Cart{"2": 1, "1": 3}

	summary, err := svc.ComputeTotals(context.Background(), c)
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}

	if len(summary.Lines) != 2 {
		t.Fatalf("len(Lines) = %d, want 2", len(summary.Lines))
	}
	if summary.Lines[0].Product.ID != 1 || summary.Lines[1].Product.ID != 2 {
		t.Errorf("lines not in ascending id order: %d, %d",
			summary.Lines[0].Product.ID, summary.Lines[1].Product.ID)
	}
	if summary.Lines[0].LineTotal != 8997 {
		t.Errorf("line 1 total = %d, want 8997", summary.Lines[0].LineTotal)
	}
	if summary.Total != 8997+8499 {
		t.Errorf("Total = %d, want %d", summary.Total, 8997+8499)
	}
	if summary.TotalDisplay() != "174.96" {
		t.Errorf("TotalDisplay() = %q, want 174.96", summary.TotalDisplay())
	}
}

func TestComputeTotals_SkipsMissingAndInvalidEntries(t *testing.T) {
	svc := NewService(catalogFinder(mouse), nil)
	c := Cart{"1": 1, "42": 3, "not-a-number": 2}

	summary, err := svc.ComputeTotals(context.Background(), c)
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	if len(summary.Lines) != 1 {
		t.Fatalf("len(Lines) = %d, want 1", len(summary.Lines))
	}
	if summary.Total != 2999 {
		t.Errorf("Total = %d, want 2999", summary.Total)
	}
	if len(c) != 3 {
		t.Errorf("ComputeTotals must not modify the cart, got %v", c)
	}
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	svc := NewService(catalogFinder(mouse), nil)

	summary, err := svc.ComputeTotals(context.Background(), New())
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	if !summary.IsEmpty() || summary.Total != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	if summary.TotalDisplay() != "0.00" {
		t.Errorf("TotalDisplay() = %q, want 0.00", summary.TotalDisplay())
	}
}

func TestCheckout_EmptiesCartAndReturnsReceipt(t *testing.T) {
	m := &countingMetrics{}
	svc := NewService(catalogFinder(mouse, keyboard), m)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	c := Cart{"1": 1, "2": 2}

	receipt, err := svc.Checkout(context.Background(), c)
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}

	if len(c) != 0 {
		t.Errorf("cart after checkout = %v, want empty", c)
	}
	if receipt.Total != 2999+2*8499 {
		t.Errorf("receipt total = %d, want %d", receipt.Total, 2999+2*8499)
	}
	if receipt.Reference == "" {
		t.Error("expected receipt reference")
	}
	if !receipt.PlacedAt.Equal(fixed) {
		t.Errorf("PlacedAt = %v, want %v", receipt.PlacedAt, fixed)
	}
	if len(m.checkouts) != 1 || m.checkouts[0] != receipt.Total {
		t.Errorf("checkouts recorded = %v, want [%d]", m.checkouts, receipt.Total)
	}
}

func TestCheckout_ErrorKeepsCart(t *testing.T) {
	svc := NewService(&mockProductFinder{
		getProductFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return nil, errors.New("db down")
		},
	}, nil)
	c := Cart{"1": 2}

	if _, err := svc.Checkout(context.Background(), c); err == nil {
		t.Fatal("expected error")
	}
	if c["1"] != 2 {
		t.Errorf("cart changed on failed checkout: %v", c)
	}
}

// TestEndToEnd_AddAddTotalsCheckout は追加→合計→チェックアウトの一連の流れを検証する。
func TestEndToEnd_AddAddTotalsCheckout(t *testing.T) {
	svc := NewService(catalogFinder(mouse), nil)
	ctx := context.Background()
	c := New()

	svc.Add(ctx, c, 1)
	svc.Add(ctx, c, 1)
	if len(c) != 1 || c["1"] != 2 {
		t.Fatalf(`cart = %v, want {"1": 2}`, c)
	}

	summary, err := svc.ComputeTotals(ctx, c)
	if err != nil {
		t.Fatalf("ComputeTotals returned error: %v", err)
	}
	line := summary.Lines[0]
	if line.Quantity != 2 || line.LineTotalDisplay() != "59.98" || summary.TotalDisplay() != "59.98" {
		t.Errorf("got qty=%d line=%s total=%s, want 2 59.98 59.98",
			line.Quantity, line.LineTotalDisplay(), summary.TotalDisplay())
	}

	if _, err := svc.Checkout(ctx, c); err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if len(c) != 0 {
		t.Errorf("cart after checkout = %v, want {}", c)
	}
}
