package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/denkiya/internal/model"
)

// PostgresAdminRepo はPostgreSQLを使用した管理者リポジトリ。
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo はPostgresAdminRepoを生成する。
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

func scanAdmin(row *sql.Row) (*model.Admin, error) {
	a := &model.Admin{}
	err := row.Scan(&a.ID, &a.UserName, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx,
		`SELECT id, user_name, email, password_hash, created_at FROM admins WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by ID: %w", err)
	}
	return a, nil
}

// FindByUserName はユーザー名で管理者を検索する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindByUserName(ctx context.Context, userName string) (*model.Admin, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx,
		`SELECT id, user_name, email, password_hash, created_at FROM admins WHERE user_name = $1`, userName))
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by user name: %w", err)
	}
	return a, nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
