// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/denkiya/internal/model"
)

// CustomerRepository は顧客データの永続化インターフェース。
type CustomerRepository interface {
	// FindByID は指定IDの顧客を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Customer, error)

	// FindByMaKH は顧客コードで顧客を検索する。見つからない場合はnilを返す。
	FindByMaKH(ctx context.Context, maKH string) (*model.Customer, error)

	// FindByEmail はメールアドレスで顧客を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Customer, error)

	// Create は顧客を作成する。
	Create(ctx context.Context, customer *model.Customer) error
}

// AdminRepository は管理者データの永続化インターフェース。
type AdminRepository interface {
	// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Admin, error)

	// FindByUserName はユーザー名で管理者を検索する。見つからない場合はnilを返す。
	FindByUserName(ctx context.Context, userName string) (*model.Admin, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// 顧客セッションと管理者セッションをRole付きで管理する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを一括削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// FindByMaSP は商品コードで商品を検索する。見つからない場合はnilを返す。
	FindByMaSP(ctx context.Context, maSP string) (*model.Product, error)

	// ListAll は全商品を作成日時降順で返す。
	ListAll(ctx context.Context) ([]*model.Product, error)

	// ListByType は指定カテゴリの商品を返す。
	ListByType(ctx context.Context, productType string) ([]*model.Product, error)

	// Search は商品名または商品コードの部分一致で商品を検索する。
	Search(ctx context.Context, value string) ([]*model.Product, error)

	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// Update は商品情報を上書き更新する。
	Update(ctx context.Context, product *model.Product) error

	// DeleteByID は指定IDの商品を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// CartRepository はカートデータの永続化インターフェース。
// 行単位の更新操作を提供し、削除の判断はサービス層が行う。
type CartRepository interface {
	// FindByMaKH は顧客コードでカートを取得する。商品情報を展開した行を含む。
	// カートが存在しない場合はnilを返す。
	FindByMaKH(ctx context.Context, maKH string) (*model.Cart, error)

	// Create は空のカートを作成する。
	Create(ctx context.Context, cart *model.Cart) error

	// UpsertLine はカート行を指定数量でUPSERTする。soLuongは1以上であること。
	UpsertLine(ctx context.Context, cartID, maSP string, soLuong int) error

	// IncrementLine はカート行の数量をdeltaだけ加算する。行がなければdeltaで作成する。
	// 加算はストレージ側で原子的に行われ、同時追加でも増分が失われない。
	IncrementLine(ctx context.Context, cartID, maSP string, delta int) error

	// DeleteLine はカート行を削除する。
	DeleteLine(ctx context.Context, cartID, maSP string) error

	// ClearLines はカートの全行を削除する。
	ClearLines(ctx context.Context, cartID string) error

	// DeleteStaleEmpty は指定時刻より前に最終更新された空カートを削除し、件数を返す。
	DeleteStaleEmpty(ctx context.Context, olderThan time.Time) (int64, error)
}

// ReceiptRepository は注文データの永続化インターフェース。
type ReceiptRepository interface {
	// Create は注文と注文行を同一トランザクションで作成する。
	Create(ctx context.Context, receipt *model.Receipt) error

	// ListByMaKH は顧客の注文一覧を注文日時降順で返す。
	ListByMaKH(ctx context.Context, maKH string) ([]*model.Receipt, error)
}
