// Package model はドメインモデルを定義する。
package model

import "time"

// Cart は顧客ごとに1つだけ存在するショッピングカートを表す。
// 初回のカート追加時に遅延生成される。
//
// 不変条件:
//   - 同一商品の行は高々1つ（既存商品の追加は数量加算）
//   - 行が存在する間は SoLuong >= 1（0以下への更新は行削除）
type Cart struct {
	ID        string
	MaKH      string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine はカート内の1商品行（商品と数量の組）を表す。
// Product はレスポンス用に商品情報を展開したもの。
type CartLine struct {
	MaSP    string
	SoLuong int
	Product *Product
}

// FindLine は指定商品コードの行を返す。存在しない場合は-1とnilを返す。
func (c *Cart) FindLine(maSP string) (int, *CartLine) {
	for i := range c.Lines {
		if c.Lines[i].MaSP == maSP {
			return i, &c.Lines[i]
		}
	}
	return -1, nil
}
