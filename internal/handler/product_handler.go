package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/denkiya/internal/model"
)

// CatalogServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// List は商品一覧を返す。productTypeが空の場合は全商品。
	List(ctx context.Context, productType string) ([]*model.Product, error)
	// Get はMaSPで商品を1件取得する。
	Get(ctx context.Context, maSP string) (*model.Product, error)
	// Search は商品名の部分一致検索を行う。
	Search(ctx context.Context, value string) ([]*model.Product, error)
	// Create は商品を登録する。管理者専用。
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	// Update は商品を更新する。管理者専用。
	Update(ctx context.Context, id string, product *model.Product) (*model.Product, error)
	// Delete は商品を削除する。管理者専用。
	Delete(ctx context.Context, id string) error
}

// ProductHandler は商品カタログのHTTPハンドラー。
// 一覧・検索・詳細は公開、登録・更新・削除は管理者セッションミドルウェアの内側に配置する。
type ProductHandler struct {
	service CatalogServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// productRequest は商品登録・更新リクエストのボディ。
type productRequest struct {
	MaSP     string      `json:"MaSP"`
	Name     string      `json:"name"`
	Price    int64       `json:"price"`
	Stock    int         `json:"stock"`
	Type     string      `json:"type"`
	Details  string      `json:"details"`
	ImageURL string      `json:"image"`
	Spec     *model.Spec `json:"spec"`
}

// searchRequest は商品検索リクエストのボディ。
type searchRequest struct {
	Value string `json:"value"`
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID       string      `json:"_id"`
	MaSP     string      `json:"MaSP"`
	Name     string      `json:"name"`
	Price    int64       `json:"price"`
	Stock    int         `json:"stock"`
	Type     string      `json:"type"`
	Details  string      `json:"details,omitempty"`
	ImageURL string      `json:"image,omitempty"`
	Spec     *model.Spec `json:"spec,omitempty"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		MaSP:     p.MaSP,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Type:     p.Type,
		Details:  p.Details,
		ImageURL: p.ImageURL,
		Spec:     p.Spec,
	}
}

func toProductModel(req *productRequest) *model.Product {
	return &model.Product{
		MaSP:     req.MaSP,
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Type:     req.Type,
		Details:  req.Details,
		ImageURL: req.ImageURL,
		Spec:     req.Spec,
	}
}

func toProductListResponse(products []*model.Product) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	return resp
}

// List は商品一覧を処理する。typeクエリでカテゴリを絞り込める。
// GET /products/get?type=laptop
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductListResponse(products))
}

// Get は商品詳細を処理する。
// GET /products/get/{MaSP}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "MaSP"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductResponse(product))
}

// Search は商品名の部分一致検索を処理する。
// POST /products/search
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	products, err := h.service.Search(r.Context(), req.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductListResponse(products))
}

// Create は商品登録を処理する。管理者専用。
// POST /products/add
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	product, err := h.service.Create(r.Context(), toProductModel(&req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toProductResponse(product))
}

// Update は商品更新を処理する。管理者専用。
// PUT /products/update/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), toProductModel(&req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toProductResponse(product))
}

// Delete は商品削除を処理する。管理者専用。
// DELETE /products/del/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "商品を削除しました。",
	})
}
