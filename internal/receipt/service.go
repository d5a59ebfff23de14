// Package receipt は注文（レシート）のビジネスロジックを提供する。
//
// 注文の作成時には顧客と全商品行の存在を検証し、
// 合計金額をサーバー側で商品単価から再計算する。
// 注文作成後にカートのクリアは行わない（クライアント側の責務）。
package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/denkiya/internal/model"
	"github.com/hitoshi/denkiya/internal/repository"
)

// MetricsRecorder は注文関連のメトリクス記録のインターフェースを定義する。
type MetricsRecorder interface {
	// RecordOrder は注文作成を記録する。
	RecordOrder()
}

// nopMetrics はメトリクス未設定時のデフォルト実装。
type nopMetrics struct{}

func (nopMetrics) RecordOrder() {}

// Service は注文操作を提供する。
type Service struct {
	receiptRepo  repository.ReceiptRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	metrics      MetricsRecorder
}

// NewService は注文サービスの新しいインスタンスを生成する。
// metricsにnilを渡した場合は記録を行わない。
func NewService(
	receiptRepo repository.ReceiptRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	metrics MetricsRecorder,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		receiptRepo:  receiptRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		metrics:      metrics,
	}
}

// CreateInput は注文作成の入力を表す。
type CreateInput struct {
	MaKH    string
	Lines   []model.ReceiptLine
	Voucher string
	Address string
	Note    string
}

// Create は新しい注文を作成する。
// 顧客と全商品行の存在を検証し、合計金額を商品単価から計算する。
// 数量が1未満の行はINVALID_QUANTITYエラーで拒否する。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.Receipt, error) {
	if input.MaKH == "" {
		return nil, model.NewMissingFieldError("MaKH")
	}
	if len(input.Lines) == 0 {
		return nil, model.NewMissingFieldError("products")
	}

	customer, err := s.customerRepo.FindByMaKH(ctx, input.MaKH)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return nil, model.NewCustomerNotFoundError(input.MaKH)
	}

	var total int64
	for _, line := range input.Lines {
		if line.SoLuong <= 0 {
			return nil, model.NewInvalidQuantityError(line.SoLuong)
		}
		product, err := s.productRepo.FindByMaSP(ctx, line.MaSP)
		if err != nil {
			return nil, fmt.Errorf("failed to find product: %w", err)
		}
		if product == nil {
			return nil, model.NewProductNotFoundError(line.MaSP)
		}
		total += product.Price * int64(line.SoLuong)
	}

	now := time.Now()
	receipt := &model.Receipt{
		ID:            uuid.New().String(),
		MaDH:          generateMaDH(),
		MaKH:          input.MaKH,
		Lines:         input.Lines,
		DateOrder:     now,
		Voucher:       input.Voucher,
		PaymentStatus: "pending",
		Address:       input.Address,
		Note:          input.Note,
		PriceTotal:    total,
		CreatedAt:     now,
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}

	s.metrics.RecordOrder()
	slog.Info("receipt created",
		"ma_dh", receipt.MaDH,
		"ma_kh", receipt.MaKH,
		"lines", len(receipt.Lines),
		"price_total", receipt.PriceTotal,
	)
	return receipt, nil
}

// ListByMaKH は顧客の注文履歴を新しい順で返す。
// 顧客が存在しない場合はCUSTOMER_NOT_FOUNDエラーを返す。
func (s *Service) ListByMaKH(ctx context.Context, maKH string) ([]*model.Receipt, error) {
	customer, err := s.customerRepo.FindByMaKH(ctx, maKH)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return nil, model.NewCustomerNotFoundError(maKH)
	}

	receipts, err := s.receiptRepo.ListByMaKH(ctx, maKH)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	return receipts, nil
}

// generateMaDH は注文の業務キーを生成する。
// "DH" + UUIDの先頭8文字（大文字）で、例: DH3F2A9B1C
func generateMaDH() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "DH" + strings.ToUpper(raw[:8])
}
