package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/denkiya/internal/middleware"
	"github.com/hitoshi/denkiya/internal/model"
	"github.com/hitoshi/denkiya/internal/receipt"
)

// ReceiptServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type ReceiptServiceInterface interface {
	// Create は注文を作成する。
	Create(ctx context.Context, input receipt.CreateInput) (*model.Receipt, error)
	// ListByMaKH は顧客の注文履歴を返す。
	ListByMaKH(ctx context.Context, maKH string) ([]*model.Receipt, error)
}

// ReceiptHandler は注文のHTTPハンドラー。
// 全ルートは顧客セッションミドルウェアの内側に配置される。
type ReceiptHandler struct {
	service ReceiptServiceInterface
}

// NewReceiptHandler はReceiptHandlerを生成する。
func NewReceiptHandler(service ReceiptServiceInterface) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// receiptLineRequest は注文内の1商品行のリクエスト。
type receiptLineRequest struct {
	MaSP    string `json:"MaSP"`
	SoLuong int    `json:"soLuong"`
}

// createReceiptRequest は注文作成リクエストのボディ。
type createReceiptRequest struct {
	MaKH     string               `json:"MaKH"`
	Products []receiptLineRequest `json:"products"`
	Voucher  string               `json:"voucher"`
	Address  string               `json:"address"`
	Note     string               `json:"note"`
}

// receiptLineResponse は注文内の1商品行のAPIレスポンス。
type receiptLineResponse struct {
	MaSP    string `json:"MaSP"`
	SoLuong int    `json:"soLuong"`
}

// receiptResponse は注文のAPIレスポンス。
type receiptResponse struct {
	ID            string                `json:"_id"`
	MaDH          string                `json:"MaDH"`
	MaKH          string                `json:"MaKH"`
	Products      []receiptLineResponse `json:"products"`
	DateOrder     time.Time             `json:"dateOrder"`
	Voucher       string                `json:"voucher,omitempty"`
	PaymentStatus string                `json:"paymentStatus"`
	Address       string                `json:"address,omitempty"`
	Note          string                `json:"note,omitempty"`
	PriceTotal    int64                 `json:"priceTotal"`
}

func toReceiptResponse(rc *model.Receipt) receiptResponse {
	resp := receiptResponse{
		ID:            rc.ID,
		MaDH:          rc.MaDH,
		MaKH:          rc.MaKH,
		Products:      make([]receiptLineResponse, 0, len(rc.Lines)),
		DateOrder:     rc.DateOrder,
		Voucher:       rc.Voucher,
		PaymentStatus: rc.PaymentStatus,
		Address:       rc.Address,
		Note:          rc.Note,
		PriceTotal:    rc.PriceTotal,
	}
	for _, line := range rc.Lines {
		resp.Products = append(resp.Products, receiptLineResponse{
			MaSP:    line.MaSP,
			SoLuong: line.SoLuong,
		})
	}
	return resp
}

// Create は注文作成を処理する。
// POST /receipt/create
func (h *ReceiptHandler) Create(w http.ResponseWriter, r *http.Request) {
	maKH, err := middleware.MaKHFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	var req createReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if req.MaKH != "" && req.MaKH != maKH {
		writeAPIErrorResponse(w, http.StatusForbidden, &model.APIError{
			Code:     "FORBIDDEN",
			Message:  "他の顧客の注文は作成できません。",
			Category: "auth",
			Action:   "自分の顧客コードでリクエストしてください。",
		})
		return
	}

	lines := make([]model.ReceiptLine, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, model.ReceiptLine{MaSP: p.MaSP, SoLuong: p.SoLuong})
	}

	created, err := h.service.Create(r.Context(), receipt.CreateInput{
		MaKH:    maKH,
		Lines:   lines,
		Voucher: req.Voucher,
		Address: req.Address,
		Note:    req.Note,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toReceiptResponse(created))
}

// ListByCustomer は顧客の注文履歴取得を処理する。
// GET /receipt/getByCustomer/{MaKH}
func (h *ReceiptHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	maKH, err := middleware.MaKHFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	pathMaKH := chi.URLParam(r, "MaKH")
	if pathMaKH != "" && pathMaKH != maKH {
		writeAPIErrorResponse(w, http.StatusForbidden, &model.APIError{
			Code:     "FORBIDDEN",
			Message:  "他の顧客の注文履歴は閲覧できません。",
			Category: "auth",
			Action:   "自分の顧客コードでリクエストしてください。",
		})
		return
	}

	receipts, err := h.service.ListByMaKH(r.Context(), maKH)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]receiptResponse, 0, len(receipts))
	for _, rc := range receipts {
		resp = append(resp, toReceiptResponse(rc))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}
