package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AnkitCodesJU/RollCall/config"
	"github.com/AnkitCodesJU/RollCall/internal/dto"
	"github.com/AnkitCodesJU/RollCall/internal/repository"
	"github.com/AnkitCodesJU/RollCall/pkg/jwt"
)

func newTestAuthService(repo *repository.Repository) AuthService {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-0123456789abcdef",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
	}
	return NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newTestRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Ankit", Email: "ankit@example.com", Password: "password123", Role: "teacher",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("注册应返回 Token 对")
	}
	if resp.User.Role != "teacher" {
		t.Errorf("角色期望 teacher，实际 %s", resp.User.Role)
	}

	// 邮箱查重
	_, err = svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Other", Email: "ankit@example.com", Password: "password456", Role: "student",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际 %v", err)
	}

	// 登录
	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "ankit@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Error("登录应返回同一用户")
	}

	// 错误密码
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "ankit@example.com", Password: "wrong",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际 %v", err)
	}
}

func TestRefresh(t *testing.T) {
	repo := newTestRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "S", Email: "s@example.com", Password: "password123", Role: "student",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	if err != nil {
		t.Fatalf("刷新失败: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("刷新应返回新 AccessToken")
	}

	// Access Token 不可用于刷新
	if _, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: resp.AccessToken}); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("期望 ErrInvalidRefresh，实际 %v", err)
	}

	if _, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{RefreshToken: "garbage"}); !errors.Is(err, ErrInvalidRefresh) {
		t.Errorf("期望 ErrInvalidRefresh，实际 %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newTestRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "S", Email: "s@example.com", Password: "password123", Role: "student",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), resp.User.ID, &dto.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "newpassword1",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码错误期望 ErrInvalidCredentials，实际 %v", err)
	}

	if err := svc.ChangePassword(context.Background(), resp.User.ID, &dto.ChangePasswordRequest{
		OldPassword: "password123", NewPassword: "newpassword1",
	}); err != nil {
		t.Fatalf("修改密码失败: %v", err)
	}

	// 新密码生效
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "s@example.com", Password: "newpassword1",
	}); err != nil {
		t.Errorf("新密码登录失败: %v", err)
	}
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "s@example.com", Password: "password123",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("旧密码应失效，实际 %v", err)
	}
}

func TestLogout_RedisDegraded(t *testing.T) {
	repo := newTestRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "S", Email: "s@example.com", Password: "password123", Role: "student",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	// Redis 未连接时登出降级为空操作
	if err := svc.Logout(context.Background(), resp.AccessToken); err != nil {
		t.Errorf("降级登出应成功: %v", err)
	}
	// 无效 Token 登出视为成功
	if err := svc.Logout(context.Background(), "garbage"); err != nil {
		t.Errorf("无效 Token 登出应成功: %v", err)
	}
}
