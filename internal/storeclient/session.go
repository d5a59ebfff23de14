package storeclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// loginFallbackMessage はサーバーがメッセージを返さない場合の汎用ログイン失敗メッセージ。
const loginFallbackMessage = "ログインに失敗しました。入力内容を確認してください。"

// identityProbe はセッション解決の1プローブ戦略。
// 成功時はタグ付きIdentityを、該当なしの場合はnilを返す。
type identityProbe struct {
	name string
	run  func(ctx context.Context) (*Identity, error)
}

// SessionResolver は訪問者の識別情報をリモート認証局に対して解決する。
// 管理者チェック→顧客チェックの固定優先順でプローブし、
// 最初に成功した結果を採用する。
type SessionResolver struct {
	client *Client
	store  StateStore

	mu        sync.Mutex
	current   Identity
	lastError string
}

// NewSessionResolver はSessionResolverを生成する。
// storeがnilの場合はメモリ内ストアを使用する。
func NewSessionResolver(client *Client, store StateStore) *SessionResolver {
	if store == nil {
		store = NewMemoryStateStore()
	}
	return &SessionResolver{
		client:  client,
		store:   store,
		current: GuestIdentity(),
	}
}

// Current は現在のIdentityを返す。
func (r *SessionResolver) Current() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// LastError は直近の解決失敗理由を返す。解決に成功している場合は空文字。
// 解決失敗はゲスト扱いへの暗黙のフォールバックであり、
// 呼び出し側にエラーとしては伝播しない。
func (r *SessionResolver) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}

// Resolve は現在の訪問者の識別情報を解決する。
//
// 永続ストアに認証済みの状態が残っている場合はネットワーク呼び出しなしで
// それを採用する（高速パス）。それ以外は管理者チェック、顧客チェックの順に
// プローブし、最初の成功を採用する。顧客チェックはMaKHが空の場合を
// 失敗として扱う。全プローブが失敗した場合はゲスト状態に落とし、
// 失敗理由を記録する。
//
// 冪等であり、同時に複数回呼び出しても安全。重複呼び出しの単一化は行わず、
// それぞれが独立にプローブを実行しうる。
func (r *SessionResolver) Resolve(ctx context.Context) Identity {
	if cached, err := r.store.Load(); err == nil && cached != nil && cached.IsAuthenticated {
		if cached.User.IsCustomer() || cached.User.IsAdmin() {
			r.setCurrent(cached.User, "")
			return cached.User
		}
	}

	var failures []string
	for _, probe := range r.probes() {
		identity, err := probe.run(ctx)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", probe.name, err))
			continue
		}
		if identity == nil {
			failures = append(failures, fmt.Sprintf("%s: 該当なし", probe.name))
			continue
		}

		r.persist(*identity)
		r.setCurrent(*identity, "")
		return *identity
	}

	reason := fmt.Sprintf("セッション解決に失敗: %v", failures)
	slog.Debug("session resolution failed, falling back to guest",
		slog.String("reason", reason),
	)

	r.store.Clear()
	guest := GuestIdentity()
	r.setCurrent(guest, reason)
	return guest
}

// probes は優先順のプローブ一覧を返す。管理者チェックが常に先。
func (r *SessionResolver) probes() []identityProbe {
	return []identityProbe{
		{name: "admin-check", run: r.probeAdmin},
		{name: "customer-check", run: r.probeCustomer},
	}
}

func (r *SessionResolver) probeAdmin(ctx context.Context) (*Identity, error) {
	var admin AdminIdentity
	if err := r.client.get(ctx, "/admin/check", &admin); err != nil {
		return nil, err
	}
	if admin.ID == "" && admin.UserName == "" {
		return nil, nil
	}

	admin.Position = "admin"
	return &Identity{Role: RoleAdmin, Admin: &admin}, nil
}

func (r *SessionResolver) probeCustomer(ctx context.Context) (*Identity, error) {
	var customer CustomerIdentity
	if err := r.client.get(ctx, "/user/check", &customer); err != nil {
		return nil, err
	}
	// 顧客コードなしの2xxは未認証として扱う
	if customer.MaKH == "" {
		return nil, nil
	}

	return &Identity{Role: RoleCustomer, Customer: &customer}, nil
}

// Login は認証情報をサーバーに送り、成功時にIdentityを確立する。
// asAdminがtrueの場合はidentifierをユーザー名として管理者ログインに、
// falseの場合はメールアドレスとして顧客ログインに送る。
// 失敗時はサーバーのメッセージ（なければ汎用メッセージ）を持つエラーを返し、
// 以前のセッション状態は消去された状態のままにする。
func (r *SessionResolver) Login(ctx context.Context, identifier, secret string, asAdmin bool) (Identity, error) {
	if identifier == "" || secret == "" {
		return GuestIdentity(), errors.New(loginFallbackMessage)
	}

	var identity Identity
	var err error
	if asAdmin {
		identity, err = r.loginAdmin(ctx, identifier, secret)
	} else {
		identity, err = r.loginCustomer(ctx, identifier, secret)
	}
	if err != nil {
		r.store.Clear()
		r.setCurrent(GuestIdentity(), "")
		return GuestIdentity(), loginError(err)
	}

	r.persist(identity)
	r.setCurrent(identity, "")
	return identity, nil
}

func (r *SessionResolver) loginAdmin(ctx context.Context, userName, password string) (Identity, error) {
	var admin AdminIdentity
	err := r.client.post(ctx, "/admin/login", map[string]string{
		"userName": userName,
		"password": password,
	}, &admin)
	if err != nil {
		return GuestIdentity(), err
	}

	// バックエンドがロールを返さない場合に備えてクライアント側で刻印する
	admin.Position = "admin"
	return Identity{Role: RoleAdmin, Admin: &admin}, nil
}

func (r *SessionResolver) loginCustomer(ctx context.Context, email, password string) (Identity, error) {
	var customer CustomerIdentity
	err := r.client.post(ctx, "/user/login", map[string]string{
		"email":    email,
		"password": password,
	}, &customer)
	if err != nil {
		return GuestIdentity(), err
	}

	return Identity{Role: RoleCustomer, Customer: &customer}, nil
}

// Logout は現在のロールに応じたログアウトエンドポイントを呼び出し、
// リモート呼び出しの成否に関わらずローカル状態と永続ストアを消去する。
// リモート側のエラーは戻り値として返すが、ローカルの消去は保証される。
func (r *SessionResolver) Logout(ctx context.Context) error {
	current := r.Current()

	var remoteErr error
	switch {
	case current.IsAdmin():
		remoteErr = r.client.post(ctx, "/admin/logout", nil, nil)
	case current.Role == RoleCustomer:
		remoteErr = r.client.post(ctx, "/user/logout", nil, nil)
	}

	r.store.Clear()
	r.setCurrent(GuestIdentity(), "")

	if remoteErr != nil {
		slog.Debug("remote logout failed, local state cleared anyway",
			slog.String("error", remoteErr.Error()),
		)
	}
	return remoteErr
}

func (r *SessionResolver) setCurrent(identity Identity, lastError string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = identity
	r.lastError = lastError
}

func (r *SessionResolver) persist(identity Identity) {
	err := r.store.Save(&SessionState{User: identity, IsAuthenticated: true})
	if err != nil {
		slog.Warn("failed to persist session state", slog.String("error", err.Error()))
	}
}

// loginError はサーバーのエラーメッセージを保ちつつ、
// メッセージがない場合は汎用メッセージに差し替える。
func loginError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr
	}
	return fmt.Errorf("%s: %w", loginFallbackMessage, err)
}
