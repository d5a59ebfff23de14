// Package model はドメインモデルを定義する。
package model

import "time"

// Receipt は注文（レシート）を表す。
// MaDH は注文の業務キー、MaKH は注文主の顧客コード。
type Receipt struct {
	ID            string
	MaDH          string
	MaKH          string
	Lines         []ReceiptLine
	DateOrder     time.Time
	Voucher       string
	PaymentStatus string
	Address       string
	Note          string
	PriceTotal    int64
	CreatedAt     time.Time
}

// ReceiptLine は注文内の1商品行を表す。
// 注文時点の数量のみ保持し、商品情報は表示時にMaSPで引く。
type ReceiptLine struct {
	MaSP    string
	SoLuong int
}
