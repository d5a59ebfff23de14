// Package cart はショッピングカートのビジネスロジックを提供する。
//
// カートは顧客ごとに1つで、初回追加時に遅延生成される。
// すべての操作は操作後のカート全体を返し、クライアントはそれで
// ローカル状態を丸ごと置き換える（差分適用はしない）。
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/denkiya/internal/model"
	"github.com/hitoshi/denkiya/internal/repository"
)

// MetricsRecorder はカート操作の計測インターフェース。
type MetricsRecorder interface {
	RecordCartOperation(op string, outcome string)
}

// nopMetrics は計測なしのMetricsRecorder。
type nopMetrics struct{}

func (nopMetrics) RecordCartOperation(op string, outcome string) {}

// ServiceConfig はカートサービスの設定。
type ServiceConfig struct {
	MaxQuantity int // 1リクエストで指定できる数量の上限
}

// Service はカート操作のビジネスロジックを提供する。
type Service struct {
	cartRepo     repository.CartRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	metrics      MetricsRecorder
	config       ServiceConfig
}

// NewService はServiceを生成する。metricsはnil可（計測なし）。
func NewService(
	cartRepo repository.CartRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		cartRepo:     cartRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		metrics:      metrics,
		config:       config,
	}
}

// Add は商品をカートに追加し、追加後のカート全体を返す。
// 既にカートにある商品は行を増やさず数量を加算する（マージ）。
// カートが存在しない場合は作成する。数量は1以上であること。
func (s *Service) Add(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
	if maKH == "" || maSP == "" {
		return nil, model.NewMissingFieldError("MaSP, MaKH")
	}
	if soLuong <= 0 || (s.config.MaxQuantity > 0 && soLuong > s.config.MaxQuantity) {
		return nil, model.NewInvalidQuantityError(soLuong)
	}

	if err := s.requireCustomer(ctx, maKH); err != nil {
		s.metrics.RecordCartOperation("add", "rejected")
		return nil, err
	}
	if err := s.requireProduct(ctx, maSP); err != nil {
		s.metrics.RecordCartOperation("add", "rejected")
		return nil, err
	}

	cart, err := s.cartRepo.FindByMaKH(ctx, maKH)
	if err != nil {
		s.metrics.RecordCartOperation("add", "error")
		return nil, err
	}
	if cart == nil {
		now := time.Now()
		cart = &model.Cart{
			ID:        uuid.New().String(),
			MaKH:      maKH,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.cartRepo.Create(ctx, cart); err != nil {
			s.metrics.RecordCartOperation("add", "error")
			return nil, err
		}
	}

	// マージ: 既存行への加算はストレージ側で原子的に行う
	if err := s.cartRepo.IncrementLine(ctx, cart.ID, maSP, soLuong); err != nil {
		s.metrics.RecordCartOperation("add", "error")
		return nil, err
	}

	slog.Info("cart item added",
		slog.String("ma_kh", maKH),
		slog.String("ma_sp", maSP),
		slog.Int("so_luong", soLuong),
	)
	s.metrics.RecordCartOperation("add", "ok")

	return s.cartRepo.FindByMaKH(ctx, maKH)
}

// Get は顧客のカートを返す。カートが未作成の場合は空のカート表現を返す。
func (s *Service) Get(ctx context.Context, maKH string) (*model.Cart, error) {
	if err := s.requireCustomer(ctx, maKH); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.FindByMaKH(ctx, maKH)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		// 遅延生成のため、取得だけではカートを作らない
		return &model.Cart{MaKH: maKH, Lines: []model.CartLine{}}, nil
	}
	return cart, nil
}

// UpdateQuantity はカート行の数量を更新し、更新後のカート全体を返す。
// soLuongが0以下の場合は行そのものを削除する（0数量の行は保存しない）。
func (s *Service) UpdateQuantity(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error) {
	if maKH == "" || maSP == "" {
		return nil, model.NewMissingFieldError("MaSP, MaKH")
	}

	if err := s.requireCustomer(ctx, maKH); err != nil {
		s.metrics.RecordCartOperation("update", "rejected")
		return nil, err
	}
	if err := s.requireProduct(ctx, maSP); err != nil {
		s.metrics.RecordCartOperation("update", "rejected")
		return nil, err
	}

	cart, err := s.cartRepo.FindByMaKH(ctx, maKH)
	if err != nil {
		s.metrics.RecordCartOperation("update", "error")
		return nil, err
	}
	if cart == nil {
		s.metrics.RecordCartOperation("update", "rejected")
		return nil, model.NewCartNotFoundError(maKH)
	}
	if _, line := cart.FindLine(maSP); line == nil {
		s.metrics.RecordCartOperation("update", "rejected")
		return nil, model.NewCartLineNotFoundError(maSP)
	}

	if soLuong <= 0 {
		err = s.cartRepo.DeleteLine(ctx, cart.ID, maSP)
	} else {
		err = s.cartRepo.UpsertLine(ctx, cart.ID, maSP, soLuong)
	}
	if err != nil {
		s.metrics.RecordCartOperation("update", "error")
		return nil, err
	}

	slog.Info("cart item updated",
		slog.String("ma_kh", maKH),
		slog.String("ma_sp", maSP),
		slog.Int("so_luong", soLuong),
	)
	s.metrics.RecordCartOperation("update", "ok")

	return s.cartRepo.FindByMaKH(ctx, maKH)
}

// Remove はカート行を削除し、削除後のカート全体を返す。
func (s *Service) Remove(ctx context.Context, maKH, maSP string) (*model.Cart, error) {
	if maKH == "" || maSP == "" {
		return nil, model.NewMissingFieldError("MaSP, MaKH")
	}

	if err := s.requireCustomer(ctx, maKH); err != nil {
		s.metrics.RecordCartOperation("remove", "rejected")
		return nil, err
	}
	if err := s.requireProduct(ctx, maSP); err != nil {
		s.metrics.RecordCartOperation("remove", "rejected")
		return nil, err
	}

	cart, err := s.cartRepo.FindByMaKH(ctx, maKH)
	if err != nil {
		s.metrics.RecordCartOperation("remove", "error")
		return nil, err
	}
	if cart == nil {
		s.metrics.RecordCartOperation("remove", "rejected")
		return nil, model.NewCartNotFoundError(maKH)
	}
	if _, line := cart.FindLine(maSP); line == nil {
		s.metrics.RecordCartOperation("remove", "rejected")
		return nil, model.NewCartLineNotFoundError(maSP)
	}

	if err := s.cartRepo.DeleteLine(ctx, cart.ID, maSP); err != nil {
		s.metrics.RecordCartOperation("remove", "error")
		return nil, err
	}

	slog.Info("cart item removed",
		slog.String("ma_kh", maKH),
		slog.String("ma_sp", maSP),
	)
	s.metrics.RecordCartOperation("remove", "ok")

	return s.cartRepo.FindByMaKH(ctx, maKH)
}

// Clear はカートの全行を削除する。
func (s *Service) Clear(ctx context.Context, maKH string) error {
	if maKH == "" {
		return model.NewMissingFieldError("MaKH")
	}

	if err := s.requireCustomer(ctx, maKH); err != nil {
		s.metrics.RecordCartOperation("clear", "rejected")
		return err
	}

	cart, err := s.cartRepo.FindByMaKH(ctx, maKH)
	if err != nil {
		s.metrics.RecordCartOperation("clear", "error")
		return err
	}
	if cart == nil {
		s.metrics.RecordCartOperation("clear", "rejected")
		return model.NewCartNotFoundError(maKH)
	}

	if err := s.cartRepo.ClearLines(ctx, cart.ID); err != nil {
		s.metrics.RecordCartOperation("clear", "error")
		return err
	}

	slog.Info("cart cleared", slog.String("ma_kh", maKH))
	s.metrics.RecordCartOperation("clear", "ok")
	return nil
}

// requireCustomer は顧客コードの実在を確認する。
func (s *Service) requireCustomer(ctx context.Context, maKH string) error {
	customer, err := s.customerRepo.FindByMaKH(ctx, maKH)
	if err != nil {
		return fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return model.NewCustomerNotFoundError(maKH)
	}
	return nil
}

// requireProduct は商品コードの実在を確認する。
func (s *Service) requireProduct(ctx context.Context, maSP string) error {
	product, err := s.productRepo.FindByMaSP(ctx, maSP)
	if err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError(maSP)
	}
	return nil
}
