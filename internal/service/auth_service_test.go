package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gradff/backend/config"
	"gradff/backend/internal/dto"
	"gradff/backend/internal/model"
	"gradff/backend/pkg/jwt"
)

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
	err     error
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.entries[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.entries[jti]
	return ok, m.err
}

func setupTestAuthService() (AuthService, *mockUserRepo, *mockBlacklist, *jwt.Manager) {
	authCfg := &config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: 15 * time.Minute,
	}
	repo, _, _, _, userRepo := newMockRepository()
	blacklist := &mockBlacklist{entries: map[string]time.Duration{}}
	jwtMgr := jwt.NewManager(authCfg)

	svc := NewAuthService(repo, jwtMgr, blacklist, zap.NewNop())
	return svc, userRepo, blacklist, jwtMgr
}

func createTestUser(userRepo *mockUserRepo, email, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       "user-" + email,
		Name:         "Servidor",
		Email:        email,
		PasswordHash: string(hash),
	}
	_ = userRepo.Create(context.Background(), user)
	return user
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, userRepo, _, jwtMgr := setupTestAuthService()
	createTestUser(userRepo, "staff@example.com", "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    " Staff@Example.com ",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}

	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("Token 应可解析: %v", err)
	}
	if claims.UserID != "user-staff@example.com" {
		t.Errorf("Token 中的用户错误: %s", claims.UserID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, userRepo, _, _ := setupTestAuthService()
	createTestUser(userRepo, "staff@example.com", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "staff@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "nobody@example.com", Password: "x"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── 注册测试 ──

func TestRegister_CreatesHashedUser(t *testing.T) {
	svc, userRepo, _, _ := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Nova", Email: "Nova@Example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if resp.Email != "nova@example.com" {
		t.Errorf("邮箱应规范化为小写，实际 %s", resp.Email)
	}

	u, _ := userRepo.GetByEmail(context.Background(), "nova@example.com")
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) != nil {
		t.Error("密码应以 bcrypt 哈希保存")
	}

	_, err = svc.Register(context.Background(), &dto.RegisterRequest{Name: "Dup", Email: "nova@example.com", Password: "password123"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际 %v", err)
	}
}

// ── 注销 / 当前用户 ──

func TestLogout_Blacklists(t *testing.T) {
	svc, _, blacklist, _ := setupTestAuthService()

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Logout 失败: %v", err)
	}
	if ttl, ok := blacklist.entries["jti-1"]; !ok || ttl <= 0 || ttl > 10*time.Minute {
		t.Errorf("黑名单 TTL 错误: %v", ttl)
	}

	// 已过期的 Token 无需加入黑名单
	if err := svc.Logout(context.Background(), "jti-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, ok := blacklist.entries["jti-2"]; ok {
		t.Error("已过期 Token 不应写入黑名单")
	}
}

func TestLogout_NilBlacklist(t *testing.T) {
	repo, _, _, _, _ := newMockRepository()
	svc := NewAuthService(repo, jwt.NewManager(&config.AuthConfig{JWTSecret: "0123456789abcdef", AccessTokenTTL: time.Minute}), nil, zap.NewNop())
	if err := svc.Logout(context.Background(), "jti", time.Now().Add(time.Minute)); err != nil {
		t.Errorf("无黑名单时应直接成功: %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, userRepo, _, _ := setupTestAuthService()
	u := createTestUser(userRepo, "staff@example.com", "password123")

	me, err := svc.Me(context.Background(), u.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if me.Email != "staff@example.com" {
		t.Errorf("期望 staff@example.com，实际 %s", me.Email)
	}
	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
}
