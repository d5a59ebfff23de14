package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/denkiya/internal/middleware"
	"github.com/hitoshi/denkiya/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	// Add は商品をカートに追加する。同一商品は数量を加算する。
	Add(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error)
	// Get はカートを取得する。未作成の場合は空カート表現を返す。
	Get(ctx context.Context, maKH string) (*model.Cart, error)
	// UpdateQuantity は数量を上書きする。0以下の場合は行を削除する。
	UpdateQuantity(ctx context.Context, maKH, maSP string, soLuong int) (*model.Cart, error)
	// Remove は商品行を削除する。
	Remove(ctx context.Context, maKH, maSP string) (*model.Cart, error)
	// Clear はカートを空にする。
	Clear(ctx context.Context, maKH string) error
}

// CartHandler はカート操作のHTTPハンドラー。
// 全ルートは顧客セッションミドルウェアの内側に配置され、
// リクエストボディのMaKHはセッションの顧客コードと一致しなければならない。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

// cartItemRequest はカート変更リクエストのボディ。
type cartItemRequest struct {
	MaSP    string `json:"MaSP"`
	MaKH    string `json:"MaKH"`
	SoLuong *int   `json:"soLuong"`
}

// clearCartRequest はカートクリアリクエストのボディ。
type clearCartRequest struct {
	MaKH string `json:"MaKH"`
}

// cartLineResponse はカート行のAPIレスポンス。
type cartLineResponse struct {
	MaSP    string           `json:"MaSP"`
	SoLuong int              `json:"soLuong"`
	Product *productResponse `json:"product,omitempty"`
}

// cartResponse はカートのAPIレスポンス。
type cartResponse struct {
	ID    string             `json:"_id,omitempty"`
	MaKH  string             `json:"MaKH"`
	Lines []cartLineResponse `json:"products"`
}

func toCartResponse(cart *model.Cart) cartResponse {
	resp := cartResponse{
		ID:    cart.ID,
		MaKH:  cart.MaKH,
		Lines: make([]cartLineResponse, 0, len(cart.Lines)),
	}
	for _, line := range cart.Lines {
		lr := cartLineResponse{
			MaSP:    line.MaSP,
			SoLuong: line.SoLuong,
		}
		if line.Product != nil {
			pr := toProductResponse(line.Product)
			lr.Product = &pr
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

// Add は商品のカート追加を処理する。
// POST /user/cart/add
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	maKH, ok := h.sessionMaKH(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if !h.maKHMatches(w, maKH, req.MaKH) {
		return
	}
	if req.MaSP == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("MaSP"))
		return
	}

	// soLuong未指定は1個追加として扱う
	soLuong := 1
	if req.SoLuong != nil {
		soLuong = *req.SoLuong
	}

	cart, err := h.service.Add(r.Context(), maKH, req.MaSP, soLuong)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toCartResponse(cart))
}

// Get はカートの取得を処理する。
// GET /user/cart/{MaKH}
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	maKH, ok := h.sessionMaKH(w, r)
	if !ok {
		return
	}
	if !h.maKHMatches(w, maKH, chi.URLParam(r, "MaKH")) {
		return
	}

	cart, err := h.service.Get(r.Context(), maKH)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toCartResponse(cart))
}

// Update はカート行の数量変更を処理する。
// PUT /user/cart/update
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	maKH, ok := h.sessionMaKH(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if !h.maKHMatches(w, maKH, req.MaKH) {
		return
	}
	if req.MaSP == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("MaSP"))
		return
	}
	if req.SoLuong == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("soLuong"))
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), maKH, req.MaSP, *req.SoLuong)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toCartResponse(cart))
}

// Remove はカート行の削除を処理する。
// DELETE /user/cart/remove
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	maKH, ok := h.sessionMaKH(w, r)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if !h.maKHMatches(w, maKH, req.MaKH) {
		return
	}
	if req.MaSP == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("MaSP"))
		return
	}

	cart, err := h.service.Remove(r.Context(), maKH, req.MaSP)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toCartResponse(cart))
}

// Clear はカートの全行削除を処理する。
// DELETE /user/cart/clear
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	maKH, ok := h.sessionMaKH(w, r)
	if !ok {
		return
	}

	var req clearCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}
	if !h.maKHMatches(w, maKH, req.MaKH) {
		return
	}

	if err := h.service.Clear(r.Context(), maKH); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "カートを空にしました。",
	})
}

// sessionMaKH はコンテキストからセッションの顧客コードを取り出す。
// 取り出せない場合は401を書き込んでfalseを返す。
func (h *CartHandler) sessionMaKH(w http.ResponseWriter, r *http.Request) (string, bool) {
	maKH, err := middleware.MaKHFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return "", false
	}
	return maKH, true
}

// maKHMatches はリクエスト中のMaKHがセッションの顧客コードと一致するかを検証する。
// 空のMaKHはセッション値を使用するものとして許容する。
// 他人の顧客コードを指定した場合は403を書き込んでfalseを返す。
func (h *CartHandler) maKHMatches(w http.ResponseWriter, sessionMaKH, requestMaKH string) bool {
	if requestMaKH == "" || requestMaKH == sessionMaKH {
		return true
	}
	writeAPIErrorResponse(w, http.StatusForbidden, &model.APIError{
		Code:     "FORBIDDEN",
		Message:  "他の顧客のカートは操作できません。",
		Category: "auth",
		Action:   "自分の顧客コードでリクエストしてください。",
	})
	return false
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidBodyResponse はJSONボディの解析失敗レスポンスを書き込む。
func writeInvalidBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeLoginFailed:
		return http.StatusUnauthorized
	case model.ErrCodeCustomerNotFound, model.ErrCodeProductNotFound,
		model.ErrCodeCartNotFound, model.ErrCodeCartLineNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidQuantity, model.ErrCodeMissingField, model.ErrCodeInvalidImageURL:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateEmail, model.ErrCodeDuplicateMaSP:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
