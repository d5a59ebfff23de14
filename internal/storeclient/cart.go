package storeclient

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
)

// ErrNotCustomer は顧客コード付きの顧客として認証されていない状態で
// カート操作を呼び出した場合に返される。ネットワーク呼び出しは行われない。
var ErrNotCustomer = errors.New("顧客としてログインしていないため、カートを操作できません")

// IdentitySource は現在のIdentityの供給元。通常はSessionResolver。
type IdentitySource interface {
	Current() Identity
}

// Product はカート行に展開された商品情報。
type Product struct {
	ID       string `json:"_id"`
	MaSP     string `json:"MaSP"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	Type     string `json:"type"`
	ImageURL string `json:"image,omitempty"`
}

// CartLine はカート内の1商品行。
type CartLine struct {
	MaSP    string   `json:"MaSP"`
	SoLuong int      `json:"soLuong"`
	Product *Product `json:"product,omitempty"`
}

// Cart は顧客ごとに1つだけ存在するショッピングカート。
type Cart struct {
	ID       string     `json:"_id"`
	MaKH     string     `json:"MaKH"`
	Products []CartLine `json:"products"`
}

// CartAggregator は認証済み顧客のカートをリモートストアと同期しながら保持する。
//
// 全操作は呼び出し前に顧客コード付きの顧客セッションを要求し、
// 満たさない場合はネットワーク呼び出しなしでErrNotCustomerを返す。
// 失敗したリモート呼び出しがローカル状態を部分的に変更することはない。
// ミューテックスで変更操作を直列化するため、同一カートへの連続した変更が
// 応答順の逆転で失われることはない。
type CartAggregator struct {
	client  *Client
	session IdentitySource

	mu   sync.Mutex
	cart *Cart
}

// NewCartAggregator はCartAggregatorを生成する。
func NewCartAggregator(client *Client, session IdentitySource) *CartAggregator {
	return &CartAggregator{
		client:  client,
		session: session,
	}
}

// Snapshot は最後に成功した同期時点のカートのコピーを返す。
// 一度も同期していない場合はnil。
func (a *CartAggregator) Snapshot() *Cart {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyCart(a.cart)
}

// Add は商品を数量1でカートに追加する。
func (a *CartAggregator) Add(ctx context.Context, maSP string) (*Cart, error) {
	return a.AddQuantity(ctx, maSP, 1)
}

// AddQuantity は商品を指定数量でカートに追加する。
// 既にカートにある商品は行が複製されず数量が加算される。
// 数量はそのままリモートに転送され、正値の検証はリモート側が行う。
func (a *CartAggregator) AddQuantity(ctx context.Context, maSP string, soLuong int) (*Cart, error) {
	maKH, err := a.requireCustomer("add")
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var updated Cart
	err = a.client.post(ctx, "/user/cart/add", map[string]any{
		"MaSP":    maSP,
		"MaKH":    maKH,
		"soLuong": soLuong,
	}, &updated)
	if err != nil {
		return nil, err
	}

	a.cart = &updated
	return copyCart(a.cart), nil
}

// Fetch は現在の顧客のカートをリモートから取得してローカル状態を置き換える。
// リモートにカートが未生成の場合も空のカート表現が返る。
func (a *CartAggregator) Fetch(ctx context.Context) (*Cart, error) {
	maKH, err := a.requireCustomer("fetch")
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var fetched Cart
	if err := a.client.get(ctx, "/user/cart/"+url.PathEscape(maKH), &fetched); err != nil {
		return nil, err
	}

	a.cart = &fetched
	return copyCart(a.cart), nil
}

// UpdateQuantity はカート内の商品の数量を更新する。
// 0以下の数量の行削除はリモート側の責務であり、クライアントは値を転送するだけ。
func (a *CartAggregator) UpdateQuantity(ctx context.Context, maSP string, soLuong int) (*Cart, error) {
	maKH, err := a.requireCustomer("update")
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var updated Cart
	err = a.client.put(ctx, "/user/cart/update", map[string]any{
		"MaSP":    maSP,
		"MaKH":    maKH,
		"soLuong": soLuong,
	}, &updated)
	if err != nil {
		return nil, err
	}

	a.cart = &updated
	return copyCart(a.cart), nil
}

// Remove はカートから商品の行を削除する。
func (a *CartAggregator) Remove(ctx context.Context, maSP string) (*Cart, error) {
	maKH, err := a.requireCustomer("remove")
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var updated Cart
	err = a.client.delete(ctx, "/user/cart/remove", map[string]string{
		"MaSP": maSP,
		"MaKH": maKH,
	}, &updated)
	if err != nil {
		return nil, err
	}

	a.cart = &updated
	return copyCart(a.cart), nil
}

// Clear はカートの全行を削除し、ローカル状態を空にする。
func (a *CartAggregator) Clear(ctx context.Context) error {
	maKH, err := a.requireCustomer("clear")
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = a.client.delete(ctx, "/user/cart/clear", map[string]string{
		"MaKH": maKH,
	}, nil)
	if err != nil {
		return err
	}

	a.cart = &Cart{MaKH: maKH, Products: []CartLine{}}
	return nil
}

// Discard はローカルに保持しているカートを破棄する。ログアウト時に呼び出す。
func (a *CartAggregator) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cart = nil
}

// requireCustomer は顧客コード付きの顧客セッションを要求する。
// ゲスト・管理者の場合はErrNotCustomerを返し、理由をログに残す。
func (a *CartAggregator) requireCustomer(op string) (string, error) {
	identity := a.session.Current()
	if !identity.IsCustomer() {
		slog.Debug("cart operation refused: not an authenticated customer",
			slog.String("op", op),
			slog.String("role", string(identity.Role)),
		)
		return "", ErrNotCustomer
	}
	return identity.Customer.MaKH, nil
}

// copyCart はカートの独立したコピーを返す。
func copyCart(c *Cart) *Cart {
	if c == nil {
		return nil
	}
	copied := *c
	copied.Products = make([]CartLine, len(c.Products))
	copy(copied.Products, c.Products)
	return &copied
}
