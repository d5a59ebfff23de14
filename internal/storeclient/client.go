// Package storeclient は電器屋ストアのREST APIを利用するGoクライアント。
//
// セッション解決（SessionResolver）とカート集約（CartAggregator）の
// 2つの状態コンテナを中心に構成される。どちらもグローバルシングルトンではなく、
// 依存性注入されたサービスオブジェクトとして生成する。
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

// defaultTimeout はHTTPクライアントのデフォルトタイムアウト。
const defaultTimeout = 10 * time.Second

// APIError はサーバーが返す統一エラーフォーマット。
type APIError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`

	// StatusCode はHTTPステータスコード。
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client はストアAPIへのHTTP呼び出しを担うベースクライアント。
// Cookieジャーでセッション・CSRFトークンのCookieを保持する。
type Client struct {
	baseURL string
	http    *http.Client

	mu        sync.Mutex
	csrfToken string
}

// NewClient はClientを生成する。httpClientがnilの場合は
// Cookieジャー付きのデフォルトクライアントを使用する。
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURLが指定されていない")
	}

	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookiejarの生成に失敗: %w", err)
		}
		httpClient = &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

// get はGETリクエストを送り、2xxのボディをoutにデコードする。
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// post はJSONボディ付きのPOSTリクエストを送る。
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// put はJSONボディ付きのPUTリクエストを送る。
func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// delete はJSONボディ付きのDELETEリクエストを送る。
func (c *Client) delete(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodDelete, path, body, out)
}

// do はリクエストを組み立てて実行する。状態変更メソッドには
// CSRFトークンヘッダーを付与する。非2xxはAPIErrorとして返す。
// キャッシュ済みトークンがサーバー側のCookie失効で拒否された場合は、
// トークンを取り直して1回だけ再送する。
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗: %w", err)
		}
	}

	err := c.send(ctx, method, path, encoded, out)
	if !isSafeMethod(method) && isCSRFRejection(err) {
		c.invalidateCSRFToken()
		err = c.send(ctx, method, path, encoded, out)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, encoded []byte, out any) error {
	var reader io.Reader
	if encoded != nil {
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("リクエストの生成に失敗: %w", err)
	}
	if encoded != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !isSafeMethod(method) {
		token, err := c.ensureCSRFToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("X-CSRF-Token", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("リクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("レスポンスのデコードに失敗: %w", err)
	}
	return nil
}

// invalidateCSRFToken はキャッシュ済みトークンを破棄し、次回の取得を強制する。
func (c *Client) invalidateCSRFToken() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

// isCSRFRejection はサーバーのCSRF検証拒否（403）かどうかを判定する。
func isCSRFRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.StatusCode == http.StatusForbidden &&
		apiErr.Code == "CSRF_VALIDATION_FAILED"
}

// ensureCSRFToken はCSRFトークンを取得する。取得済みの場合は再利用する。
func (c *Client) ensureCSRFToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.csrfToken != "" {
		return c.csrfToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/csrf-token", nil)
	if err != nil {
		return "", fmt.Errorf("CSRFトークンリクエストの生成に失敗: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("CSRFトークンの取得に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("CSRFトークンの取得に失敗: status=%d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("CSRFトークンのデコードに失敗: %w", err)
	}

	c.csrfToken = body.Token
	return c.csrfToken, nil
}

// decodeAPIError は非2xxレスポンスからAPIErrorを復元する。
// 統一フォーマットでない場合もステータスコード付きのAPIErrorにまとめる。
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
