package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/denkiya/internal/model"
)

// PostgresReceiptRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresReceiptRepo struct {
	db *sql.DB
}

// NewPostgresReceiptRepo はPostgresReceiptRepoを生成する。
func NewPostgresReceiptRepo(db *sql.DB) *PostgresReceiptRepo {
	return &PostgresReceiptRepo{db: db}
}

// Create は注文と注文行を同一トランザクションで作成する。
func (r *PostgresReceiptRepo) Create(ctx context.Context, receipt *model.Receipt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (id, ma_dh, ma_kh, date_order, voucher, payment_status, address, note, price_total, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		receipt.ID, receipt.MaDH, receipt.MaKH, receipt.DateOrder,
		receipt.Voucher, receipt.PaymentStatus, receipt.Address, receipt.Note,
		receipt.PriceTotal, receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	for _, line := range receipt.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_items (receipt_id, ma_sp, so_luong) VALUES ($1, $2, $3)`,
			receipt.ID, line.MaSP, line.SoLuong,
		)
		if err != nil {
			return fmt.Errorf("failed to insert receipt item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListByMaKH は顧客の注文一覧を注文日時降順で返す。
func (r *PostgresReceiptRepo) ListByMaKH(ctx context.Context, maKH string) ([]*model.Receipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ma_dh, ma_kh, date_order, voucher, payment_status, address, note, price_total, created_at
		 FROM receipts WHERE ma_kh = $1 ORDER BY date_order DESC`,
		maKH,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*model.Receipt
	for rows.Next() {
		rec := &model.Receipt{}
		err := rows.Scan(&rec.ID, &rec.MaDH, &rec.MaKH, &rec.DateOrder,
			&rec.Voucher, &rec.PaymentStatus, &rec.Address, &rec.Note,
			&rec.PriceTotal, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}

	// 注文行の展開
	for _, rec := range receipts {
		lines, err := r.listLines(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Lines = lines
	}

	return receipts, nil
}

func (r *PostgresReceiptRepo) listLines(ctx context.Context, receiptID string) ([]model.ReceiptLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ma_sp, so_luong FROM receipt_items WHERE receipt_id = $1 ORDER BY ma_sp`,
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipt items: %w", err)
	}
	defer rows.Close()

	var lines []model.ReceiptLine
	for rows.Next() {
		var line model.ReceiptLine
		if err := rows.Scan(&line.MaSP, &line.SoLuong); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// compile-time interface check
var _ ReceiptRepository = (*PostgresReceiptRepo)(nil)
