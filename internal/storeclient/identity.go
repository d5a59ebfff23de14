package storeclient

// Role は訪問者のロールを表すタグ。
type Role string

const (
	// RoleGuest は未認証の訪問者。
	RoleGuest Role = "guest"
	// RoleCustomer は認証済みの顧客。
	RoleCustomer Role = "customer"
	// RoleAdmin は認証済みの管理者。
	RoleAdmin Role = "admin"
)

// CustomerIdentity は認証済み顧客の識別情報。
// MaKHはカート操作の外部キーであり、空の場合は未認証として扱う。
type CustomerIdentity struct {
	ID       string `json:"_id"`
	MaKH     string `json:"MaKH"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	SDT      string `json:"SDT,omitempty"`
	TypeCs   string `json:"typeCs,omitempty"`
}

// AdminIdentity は認証済み管理者の識別情報。管理者にカートは存在しない。
type AdminIdentity struct {
	ID       string `json:"_id"`
	UserName string `json:"userName"`
	Email    string `json:"email,omitempty"`
	Position string `json:"position,omitempty"`
}

// Identity は現在の訪問者の識別情報。Roleに応じてCustomerまたはAdminの
// どちらか一方のみが設定されるタグ付きユニオン。ロールの決定は
// ログイン・セッション解決の信頼境界で一度だけ行う。
type Identity struct {
	Role     Role              `json:"role"`
	Customer *CustomerIdentity `json:"customer,omitempty"`
	Admin    *AdminIdentity    `json:"admin,omitempty"`
}

// GuestIdentity は未認証状態のIdentityを返す。
func GuestIdentity() Identity {
	return Identity{Role: RoleGuest}
}

// IsCustomer は顧客コード付きの顧客として認証済みかどうかを返す。
// MaKHが空の場合はセッションフラグに関わらず未認証として扱う。
func (i Identity) IsCustomer() bool {
	return i.Role == RoleCustomer && i.Customer != nil && i.Customer.MaKH != ""
}

// IsAdmin は管理者として認証済みかどうかを返す。
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin && i.Admin != nil
}
