// Package auth はパスワード認証とロール別セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/denkiya/internal/model"
	"github.com/hitoshi/denkiya/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// 顧客と管理者は別テーブルで管理し、セッションにロールを記録する。
type Service struct {
	customerRepo repository.CustomerRepository
	adminRepo    repository.AdminRepository
	sessionRepo  repository.SessionRepository
	config       ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	customerRepo repository.CustomerRepository,
	adminRepo repository.AdminRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		customerRepo: customerRepo,
		adminRepo:    adminRepo,
		sessionRepo:  sessionRepo,
		config:       config,
	}
}

// LoginCustomer はメールアドレスとパスワードで顧客を認証し、セッションを発行する。
// 資格情報が無効な場合はmodel.APIError（LOGIN_FAILED）を返す。
func (s *Service) LoginCustomer(ctx context.Context, email, password string) (*model.Customer, *model.Session, error) {
	customer, err := s.customerRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return nil, nil, model.NewLoginFailedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		slog.Warn("customer login failed",
			slog.String("email", email),
		)
		return nil, nil, model.NewLoginFailedError()
	}

	session, err := s.createSession(ctx, customer.ID, model.RoleCustomer)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("customer logged in",
		slog.String("ma_kh", customer.MaKH),
	)
	return customer, session, nil
}

// LoginAdmin はユーザー名とパスワードで管理者を認証し、セッションを発行する。
func (s *Service) LoginAdmin(ctx context.Context, userName, password string) (*model.Admin, *model.Session, error) {
	admin, err := s.adminRepo.FindByUserName(ctx, userName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, nil, model.NewLoginFailedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		slog.Warn("admin login failed",
			slog.String("user_name", userName),
		)
		return nil, nil, model.NewLoginFailedError()
	}

	session, err := s.createSession(ctx, admin.ID, model.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("admin logged in",
		slog.String("user_name", admin.UserName),
	)
	return admin, session, nil
}

// SignupCustomer は新規顧客を登録し、セッションを発行する。
// 顧客コード（MaKH）はサーバー側で採番する。
func (s *Service) SignupCustomer(ctx context.Context, userName, email, password, sdt string) (*model.Customer, *model.Session, error) {
	existing, err := s.customerRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing customer: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewDuplicateEmailError(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	customer := &model.Customer{
		ID:           uuid.New().String(),
		MaKH:         generateMaKH(),
		UserName:     userName,
		Email:        email,
		SDT:          sdt,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, nil, fmt.Errorf("failed to create customer: %w", err)
	}

	session, err := s.createSession(ctx, customer.ID, model.RoleCustomer)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("new customer registered",
		slog.String("ma_kh", customer.MaKH),
		slog.String("email", email),
	)
	return customer, session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentCustomer はセッションから現在の顧客を取得する。
// セッションが無効、ロールが顧客でない、または顧客コードが空の場合はnilを返す。
// 顧客コードの確認は、カート操作の前提条件（有効な業務キーの存在）を
// 信頼境界のこの1箇所で保証するためのもの。
func (s *Service) CurrentCustomer(ctx context.Context, sessionID string) (*model.Customer, error) {
	session, err := s.findSession(ctx, sessionID, model.RoleCustomer)
	if err != nil || session == nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByID(ctx, session.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil || customer.MaKH == "" {
		return nil, nil
	}

	return customer, nil
}

// CurrentAdmin はセッションから現在の管理者を取得する。
// セッションが無効またはロールが管理者でない場合はnilを返す。
func (s *Service) CurrentAdmin(ctx context.Context, sessionID string) (*model.Admin, error) {
	session, err := s.findSession(ctx, sessionID, model.RoleAdmin)
	if err != nil || session == nil {
		return nil, err
	}

	admin, err := s.adminRepo.FindByID(ctx, session.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return admin, nil
}

// findSession はセッションを取得し、ロールが一致しない場合はnilを返す。
func (s *Service) findSession(ctx context.Context, sessionID string, role model.Role) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.Role != role {
		return nil, nil
	}
	return session, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, principalID string, role model.Role) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:          sessionID,
		PrincipalID: principalID,
		Role:        role,
		ExpiresAt:   time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt:   time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// generateMaKH は顧客コードを採番する。
// "KH" + UUID先頭8桁の大文字。業務キーとして十分な一意性を持つ。
func generateMaKH() string {
	return "KH" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
