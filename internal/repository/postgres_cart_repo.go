package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/denkiya/internal/model"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
// 行の取得時は商品情報をJOINで展開する。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// FindByMaKH は顧客コードでカートを取得する。商品情報を展開した行を含む。
// カートが存在しない場合はnilを返す。
func (r *PostgresCartRepo) FindByMaKH(ctx context.Context, maKH string) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, ma_kh, created_at, updated_at FROM carts WHERE ma_kh = $1`,
		maKH,
	).Scan(&cart.ID, &cart.MaKH, &cart.CreatedAt, &cart.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart by MaKH: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT ci.ma_sp, ci.so_luong,
		        p.id, p.ma_sp, p.name, p.price, p.stock, p.type,
		        p.details, p.image_url, p.spec, p.created_at, p.updated_at
		 FROM cart_items ci
		 JOIN products p ON p.ma_sp = ci.ma_sp
		 WHERE ci.cart_id = $1
		 ORDER BY ci.ma_sp`,
		cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line := model.CartLine{Product: &model.Product{}}
		p := line.Product
		var specJSON []byte
		err := rows.Scan(&line.MaSP, &line.SoLuong,
			&p.ID, &p.MaSP, &p.Name, &p.Price, &p.Stock, &p.Type,
			&p.Details, &p.ImageURL, &specJSON, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if len(specJSON) > 0 {
			spec := &model.Spec{}
			if err := unmarshalSpec(specJSON, spec); err != nil {
				return nil, err
			}
			p.Spec = spec
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return cart, nil
}

// Create は空のカートを作成する。
func (r *PostgresCartRepo) Create(ctx context.Context, cart *model.Cart) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO carts (id, ma_kh, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		cart.ID, cart.MaKH, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cart: %w", err)
	}
	return nil
}

// UpsertLine はカート行を指定数量でUPSERTする。soLuongは1以上であること。
func (r *PostgresCartRepo) UpsertLine(ctx context.Context, cartID, maSP string, soLuong int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cart_items (cart_id, ma_sp, so_luong) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, ma_sp) DO UPDATE SET so_luong = EXCLUDED.so_luong`,
		cartID, maSP, soLuong,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IncrementLine はカート行の数量をdeltaだけ加算する。行がなければdeltaで作成する。
// 既存数量への加算をDB側で行うため、同時追加でも増分が失われない。
func (r *PostgresCartRepo) IncrementLine(ctx context.Context, cartID, maSP string, delta int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cart_items (cart_id, ma_sp, so_luong) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, ma_sp) DO UPDATE
		 SET so_luong = cart_items.so_luong + EXCLUDED.so_luong`,
		cartID, maSP, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to increment cart item: %w", err)
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteLine はカート行を削除する。
func (r *PostgresCartRepo) DeleteLine(ctx context.Context, cartID, maSP string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND ma_sp = $2`,
		cartID, maSP,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClearLines はカートの全行を削除する。
func (r *PostgresCartRepo) ClearLines(ctx context.Context, cartID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteStaleEmpty は指定時刻より前に最終更新された空カートを削除し、件数を返す。
func (r *PostgresCartRepo) DeleteStaleEmpty(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM carts c
		 WHERE c.updated_at < $1
		   AND NOT EXISTS (SELECT 1 FROM cart_items ci WHERE ci.cart_id = c.id)`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale carts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// touchCart はカートのupdated_atを現在時刻に更新する。
func touchCart(ctx context.Context, tx *sql.Tx, cartID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
