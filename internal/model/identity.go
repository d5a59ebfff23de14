// Package model はドメインモデルを定義する。
package model

import "time"

// Role はセッション主体の役割を表す。
type Role string

const (
	// RoleCustomer は購入者（ストアフロント利用者）を示す。
	RoleCustomer Role = "customer"
	// RoleAdmin はバックオフィス管理者を示す。
	RoleAdmin Role = "admin"
)

// Customer はストアの顧客を表す。
// MaKH は業務キー（顧客コード）であり、カート・注文との結合に使用する。
// 内部ID（ID）とは別物で、顧客レコードには必ず非空のMaKHが存在する。
type Customer struct {
	ID           string
	MaKH         string
	UserName     string
	Email        string
	SDT          string // 電話番号（任意）
	TypeCs       string // 顧客区分タグ（任意）
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Admin はバックオフィス管理者を表す。カートは持たない。
type Admin struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session はログインセッションを表す。
// 顧客セッションと管理者セッションを同一テーブルでRole付きで管理する。
type Session struct {
	ID          string
	PrincipalID string // Customer.ID または Admin.ID
	Role        Role
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
