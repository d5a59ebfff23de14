// Package catalog は商品カタログのビジネスロジックを提供する。
//
// 商品の一覧・検索は公開操作、登録・更新・削除は管理者専用操作として
// ハンドラー層でセッション検証された後に呼び出される。
// 管理者入力の商品説明HTMLはサニタイズし、画像URLは内部ネットワークを
// 指していないことを検証してから保存する。
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/denkiya/internal/model"
	"github.com/hitoshi/denkiya/internal/repository"
	"github.com/hitoshi/denkiya/internal/security"
)

// Service は商品カタログ操作を提供する。
type Service struct {
	productRepo repository.ProductRepository
	sanitizer   security.DetailSanitizerService
	imageGuard  security.ImageURLGuardService
}

// NewService はカタログサービスの新しいインスタンスを生成する。
func NewService(
	productRepo repository.ProductRepository,
	sanitizer security.DetailSanitizerService,
	imageGuard security.ImageURLGuardService,
) *Service {
	return &Service{
		productRepo: productRepo,
		sanitizer:   sanitizer,
		imageGuard:  imageGuard,
	}
}

// List は商品の一覧を返す。
// productTypeが空の場合は全商品、指定された場合はそのカテゴリの商品のみを返す。
func (s *Service) List(ctx context.Context, productType string) ([]*model.Product, error) {
	if productType == "" {
		products, err := s.productRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		return products, nil
	}

	products, err := s.productRepo.ListByType(ctx, productType)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by type: %w", err)
	}
	return products, nil
}

// Get はMaSPで商品を1件取得する。
// 商品が存在しない場合はPRODUCT_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, maSP string) (*model.Product, error) {
	product, err := s.productRepo.FindByMaSP(ctx, maSP)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(maSP)
	}
	return product, nil
}

// Search は商品名の部分一致検索を行う。
// 検索語が空の場合は全商品を返す。
func (s *Service) Search(ctx context.Context, value string) ([]*model.Product, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.List(ctx, "")
	}

	products, err := s.productRepo.Search(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Create は新しい商品を登録する。管理者専用。
// MaSPの重複を拒否し、説明HTMLのサニタイズと画像URLの検証を行う。
func (s *Service) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product.MaSP == "" || product.Name == "" {
		return nil, model.NewMissingFieldError("MaSP, name")
	}

	if err := s.validateInput(product); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindByMaSP(ctx, product.MaSP)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate MaSP: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateMaSPError(product.MaSP)
	}

	product.ID = uuid.New().String()
	product.Details = s.sanitizer.Sanitize(product.Details)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	slog.Info("product created",
		slog.String("ma_sp", product.MaSP),
		slog.String("name", product.Name),
	)
	return product, nil
}

// Update は既存商品を更新する。管理者専用。
// 対象はIDで特定し、MaSPを別商品のものに変更することはできない。
func (s *Service) Update(ctx context.Context, id string, product *model.Product) (*model.Product, error) {
	current, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if current == nil {
		return nil, model.NewProductNotFoundError(id)
	}

	if err := s.validateInput(product); err != nil {
		return nil, err
	}

	if product.MaSP != "" && product.MaSP != current.MaSP {
		other, err := s.productRepo.FindByMaSP(ctx, product.MaSP)
		if err != nil {
			return nil, fmt.Errorf("failed to check duplicate MaSP: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, model.NewDuplicateMaSPError(product.MaSP)
		}
		current.MaSP = product.MaSP
	}

	if product.Name != "" {
		current.Name = product.Name
	}
	if product.Price > 0 {
		current.Price = product.Price
	}
	if product.Stock > 0 {
		current.Stock = product.Stock
	}
	if product.Type != "" {
		current.Type = product.Type
	}
	if product.Details != "" {
		current.Details = s.sanitizer.Sanitize(product.Details)
	}
	if product.ImageURL != "" {
		current.ImageURL = product.ImageURL
	}
	if product.Spec != nil {
		current.Spec = product.Spec
	}

	if err := s.productRepo.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	slog.Info("product updated",
		slog.String("product_id", id),
		slog.String("ma_sp", current.MaSP),
	)
	return current, nil
}

// Delete は商品をIDで削除する。管理者専用。
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}
	if current == nil {
		return model.NewProductNotFoundError(id)
	}

	if err := s.productRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	slog.Info("product deleted",
		slog.String("product_id", id),
		slog.String("ma_sp", current.MaSP),
	)
	return nil
}

// validateInput は管理者入力の共通検証を行う。
func (s *Service) validateInput(product *model.Product) error {
	if product.ImageURL != "" {
		if err := s.imageGuard.ValidateURL(product.ImageURL); err != nil {
			return model.NewInvalidImageURLError(err.Error())
		}
	}
	return nil
}
