package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
)

// --- モック ---

// memoryProductRepo はテスト用のインメモリ商品リポジトリ。
type memoryProductRepo struct {
	products []*model.Product
	countErr error
	creates  int
}

func (m *memoryProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	return m.products, nil
}

func (m *memoryProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memoryProductRepo) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.products), nil
}

func (m *memoryProductRepo) CreateBatch(ctx context.Context, products []*model.Product) error {
	m.creates++
	for _, p := range products {
		p.ID = int64(len(m.products) + 1)
		m.products = append(m.products, p)
	}
	return nil
}

var _ repository.ProductRepository = (*memoryProductRepo)(nil)

// --- テスト ---

func TestSeedIfEmpty_InsertsSampleProductsOnce(t *testing.T) {
	repo := &memoryProductRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	n, err := svc.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("SeedIfEmpty returned error: %v", err)
	}
	if n != 4 {
		t.Errorf("first seed inserted %d products, want 4", n)
	}

	n, err = svc.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("second SeedIfEmpty returned error: %v", err)
	}
	if n != 0 {
		t.Errorf("second seed inserted %d products, want 0", n)
	}
	if repo.creates != 1 {
		t.Errorf("CreateBatch calls = %d, want 1", repo.creates)
	}
	if len(repo.products) != 4 {
		t.Errorf("stored products = %d, want 4", len(repo.products))
	}
}

func TestSeedIfEmpty_SkipsNonEmptyStore(t *testing.T) {
	repo := &memoryProductRepo{products: []*model.Product{{ID: 1, Name: "Existing", Price: 100}}}
	svc := NewService(repo)

	n, err := svc.SeedIfEmpty(context.Background())
	if err != nil {
		t.Fatalf("SeedIfEmpty returned error: %v", err)
	}
	if n != 0 || repo.creates != 0 {
		t.Errorf("expected no insert, got n=%d creates=%d", n, repo.creates)
	}
}

func TestSeedIfEmpty_CountError(t *testing.T) {
	repo := &memoryProductRepo{countErr: errors.New("db down")}
	svc := NewService(repo)

	if _, err := svc.SeedIfEmpty(context.Background()); err == nil {
		t.Fatal("expected error when count fails")
	}
}

func TestGetProduct_NotFoundIsNil(t *testing.T) {
	svc := NewService(&memoryProductRepo{})

	p, err := svc.GetProduct(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetProduct returned error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil product, got %+v", p)
	}
}

func TestListProducts_ReturnsAll(t *testing.T) {
	repo := &memoryProductRepo{}
	svc := NewService(repo)
	svc.SeedIfEmpty(context.Background())

	products, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if len(products) != 4 {
		t.Fatalf("len(products) = %d, want 4", len(products))
	}
	if products[0].Name != "Wireless Mouse" || products[0].Price != 2999 {
		t.Errorf("first product = %+v, want Wireless Mouse @ 2999", products[0])
	}
}

func TestSampleProducts_NonNegativePrices(t *testing.T) {
	for _, p := range SampleProducts() {
		if p.Price < 0 {
			t.Errorf("product %q has negative price %d", p.Name, p.Price)
		}
	}
}
