package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/denkiya/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
// specカラムはJSONBで、model.SpecとJSONの相互変換を行う。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, ma_sp, name, price, stock, type, details, image_url, spec, created_at, updated_at`

// rowScanner はsql.Rowとsql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	p := &model.Product{}
	var specJSON []byte
	err := row.Scan(&p.ID, &p.MaSP, &p.Name, &p.Price, &p.Stock, &p.Type,
		&p.Details, &p.ImageURL, &specJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(specJSON) > 0 {
		spec := &model.Spec{}
		if err := json.Unmarshal(specJSON, spec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal product spec: %w", err)
		}
		p.Spec = spec
	}
	return p, nil
}

func (r *PostgresProductRepo) queryOne(ctx context.Context, query string, args ...any) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *PostgresProductRepo) queryMany(ctx context.Context, query string, args ...any) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := r.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// FindByMaSP は商品コードで商品を検索する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByMaSP(ctx context.Context, maSP string) (*model.Product, error) {
	p, err := r.queryOne(ctx, `SELECT `+productColumns+` FROM products WHERE ma_sp = $1`, maSP)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by MaSP: %w", err)
	}
	return p, nil
}

// ListAll は全商品を作成日時降順で返す。
func (r *PostgresProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	products, err := r.queryMany(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListByType は指定カテゴリの商品を返す。
func (r *PostgresProductRepo) ListByType(ctx context.Context, productType string) ([]*model.Product, error) {
	products, err := r.queryMany(ctx,
		`SELECT `+productColumns+` FROM products WHERE type = $1 ORDER BY created_at DESC`,
		productType)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by type: %w", err)
	}
	return products, nil
}

// Search は商品名または商品コードの部分一致で商品を検索する。
func (r *PostgresProductRepo) Search(ctx context.Context, value string) ([]*model.Product, error) {
	products, err := r.queryMany(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE name ILIKE '%' || $1 || '%' OR ma_sp ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC`,
		value)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func marshalSpec(spec *model.Spec) ([]byte, error) {
	if spec == nil {
		return nil, nil
	}
	return json.Marshal(spec)
}

// unmarshalSpec はJSONB列のspecをmodel.Specに復元する。
func unmarshalSpec(data []byte, spec *model.Spec) error {
	if err := json.Unmarshal(data, spec); err != nil {
		return fmt.Errorf("failed to unmarshal product spec: %w", err)
	}
	return nil
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	specJSON, err := marshalSpec(product.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal product spec: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (id, ma_sp, name, price, stock, type, details, image_url, spec, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		product.ID, product.MaSP, product.Name, product.Price, product.Stock,
		product.Type, product.Details, product.ImageURL, specJSON,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update は商品情報を上書き更新する。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product) error {
	specJSON, err := marshalSpec(product.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal product spec: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, price = $3, stock = $4, type = $5, details = $6,
		     image_url = $7, spec = $8, updated_at = $9
		 WHERE id = $1`,
		product.ID, product.Name, product.Price, product.Stock, product.Type,
		product.Details, product.ImageURL, specJSON, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product not found: %s", product.ID)
	}
	return nil
}

// DeleteByID は指定IDの商品を削除する。
func (r *PostgresProductRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
