package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/denkiya/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// codeは機械可読な識別子、actionはユーザー向けの対処方法。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// internalErrorBody は詳細を伏せた500レスポンス。詳細はログにのみ残す。
var internalErrorBody = ErrorResponseBody{
	Code:     "INTERNAL_ERROR",
	Message:  "内部エラーが発生しました。",
	Category: "system",
	Action:   "しばらく待ってから再度お試しください。",
}

// WriteErrorResponse はmodel.APIErrorを統一フォーマットのJSONとして書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	if apiErr == nil {
		WriteInternalServerError(w)
		return
	}
	writeBody(w, statusCode, ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
func WriteInternalServerError(w http.ResponseWriter) {
	writeBody(w, http.StatusInternalServerError, internalErrorBody)
}

func writeBody(w http.ResponseWriter, statusCode int, body ErrorResponseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
