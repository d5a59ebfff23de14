package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/denkiya/internal/model"
)

// PostgresCustomerRepo はPostgreSQLを使用した顧客リポジトリ。
type PostgresCustomerRepo struct {
	db *sql.DB
}

// NewPostgresCustomerRepo はPostgresCustomerRepoを生成する。
func NewPostgresCustomerRepo(db *sql.DB) *PostgresCustomerRepo {
	return &PostgresCustomerRepo{db: db}
}

const customerColumns = `id, ma_kh, user_name, email, sdt, type_cs, password_hash, created_at, updated_at`

func scanCustomer(row *sql.Row) (*model.Customer, error) {
	c := &model.Customer{}
	err := row.Scan(&c.ID, &c.MaKH, &c.UserName, &c.Email, &c.SDT, &c.TypeCs,
		&c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDの顧客を取得する。見つからない場合はnilを返す。
func (r *PostgresCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by ID: %w", err)
	}
	return c, nil
}

// FindByMaKH は顧客コードで顧客を検索する。見つからない場合はnilを返す。
func (r *PostgresCustomerRepo) FindByMaKH(ctx context.Context, maKH string) (*model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE ma_kh = $1`, maKH))
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by MaKH: %w", err)
	}
	return c, nil
}

// FindByEmail はメールアドレスで顧客を検索する。見つからない場合はnilを返す。
func (r *PostgresCustomerRepo) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}
	return c, nil
}

// Create は顧客を作成する。
func (r *PostgresCustomerRepo) Create(ctx context.Context, customer *model.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, ma_kh, user_name, email, sdt, type_cs, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		customer.ID, customer.MaKH, customer.UserName, customer.Email,
		customer.SDT, customer.TypeCs, customer.PasswordHash,
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CustomerRepository = (*PostgresCustomerRepo)(nil)
