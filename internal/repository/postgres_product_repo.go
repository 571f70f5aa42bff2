package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// List は全商品をID昇順で返す。
func (r *PostgresProductRepo) List(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price, description, image FROM products ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, price, description, image FROM products WHERE id = $1`,
		id,
	)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return p, nil
}

// Count は登録済み商品数を返す。
func (r *PostgresProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// CreateBatch は複数の商品を同一トランザクションで作成する。
func (r *PostgresProductRepo) CreateBatch(ctx context.Context, products []*model.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range products {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO products (name, price, description, image)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			p.Name, p.Price, nullString(p.Description), nullString(p.Image),
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*model.Product, error) {
	var (
		p           model.Product
		description sql.NullString
		image       sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Price, &description, &image); err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Image = image.String
	return &p, nil
}

// nullString は空文字列をNULLとして書き込むための変換を行う。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
