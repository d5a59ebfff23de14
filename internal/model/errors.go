// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, cart, catalog, order, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeLoginFailed      = "LOGIN_FAILED"
	ErrCodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	ErrCodeProductNotFound  = "PRODUCT_NOT_FOUND"
	ErrCodeCartNotFound     = "CART_NOT_FOUND"
	ErrCodeCartLineNotFound = "CART_LINE_NOT_FOUND"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	ErrCodeDuplicateMaSP    = "DUPLICATE_MASP"
	ErrCodeInvalidImageURL  = "INVALID_IMAGE_URL"
	ErrCodeMissingField     = "MISSING_FIELD"
)

// NewLoginFailedError はログイン失敗エラーを生成する。
// 資格情報の誤りと未登録を区別しない（列挙攻撃対策）。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewCustomerNotFoundError は顧客未検出エラーを生成する。
func NewCustomerNotFoundError(maKH string) *APIError {
	return &APIError{
		Code:     ErrCodeCustomerNotFound,
		Message:  fmt.Sprintf("指定された顧客が見つかりません: %s", maKH),
		Category: "cart",
		Action:   "顧客コードを確認してください。",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(maSP string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", maSP),
		Category: "catalog",
		Action:   "商品コードを確認してください。",
	}
}

// NewCartNotFoundError はカート未検出エラーを生成する。
func NewCartNotFoundError(maKH string) *APIError {
	return &APIError{
		Code:     ErrCodeCartNotFound,
		Message:  fmt.Sprintf("顧客のカートが見つかりません: %s", maKH),
		Category: "cart",
		Action:   "商品をカートに追加してから操作してください。",
	}
}

// NewCartLineNotFoundError はカート内に対象商品行がない場合のエラーを生成する。
func NewCartLineNotFoundError(maSP string) *APIError {
	return &APIError{
		Code:     ErrCodeCartLineNotFound,
		Message:  fmt.Sprintf("カートに該当商品がありません: %s", maSP),
		Category: "cart",
		Action:   "カートの内容を再取得してください。",
	}
}

// NewInvalidQuantityError は数量が不正な場合のエラーを生成する。
// カート追加時は数量が1以上であることが必須。
func NewInvalidQuantityError(soLuong int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuantity,
		Message:  fmt.Sprintf("数量が不正です: %d", soLuong),
		Category: "validation",
		Action:   "数量には1以上の整数を指定してください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewDuplicateMaSPError は商品コード重複エラーを生成する。
func NewDuplicateMaSPError(maSP string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateMaSP,
		Message:  fmt.Sprintf("この商品コードは既に使用されています: %s", maSP),
		Category: "validation",
		Action:   "別の商品コードを指定してください。",
	}
}

// NewInvalidImageURLError は商品画像URLが検証を通らない場合のエラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("商品画像URLが不正です: %s", reason),
		Category: "validation",
		Action:   "公開されているhttpsのURLを指定してください。",
	}
}

// NewMissingFieldError は必須フィールド欠落エラーを生成する。
func NewMissingFieldError(fields string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  fmt.Sprintf("必須項目が不足しています: %s", fields),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
