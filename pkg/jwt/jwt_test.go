package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/NoBody217/WeClass/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-at-least-16-chars",
		AccessTokenTTL:  ttl,
		RefreshTokenTTL: ttl * 2,
	})
}

func TestGenerateAndParse(t *testing.T) {
	mgr := newTestManager(30 * time.Minute)

	token, err := mgr.GenerateAccessToken("uid-1", "user1")
	if err != nil {
		t.Fatalf("生成 AccessToken 失败: %v", err)
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if claims.UserID != "uid-1" || claims.Owner != "user1" {
		t.Errorf("声明内容错误: %+v", claims)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType 期望 access, 实际 %s", claims.TokenType)
	}
	if claims.ID == "" {
		t.Error("应生成 JWT ID")
	}
	if claims.Issuer != "weclass" {
		t.Errorf("Issuer 期望 weclass, 实际 %s", claims.Issuer)
	}
}

func TestRefreshTokenType(t *testing.T) {
	mgr := newTestManager(30 * time.Minute)

	token, err := mgr.GenerateRefreshToken("uid-1", "user2")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("TokenType 期望 refresh, 实际 %s", claims.TokenType)
	}
	if claims.Owner != "user2" {
		t.Errorf("Owner 期望 user2, 实际 %s", claims.Owner)
	}
}

func TestParseToken_Expired(t *testing.T) {
	mgr := newTestManager(-time.Minute)

	token, err := mgr.GenerateAccessToken("uid-1", "user1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.ParseToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("过期 Token 期望 ErrTokenExpired, 实际 %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	mgr := newTestManager(30 * time.Minute)
	other := NewManager(&config.AuthConfig{
		JWTSecret:       "another-secret-16-chars-long",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})

	token, err := mgr.GenerateAccessToken("uid-1", "user1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("错误密钥期望 ErrTokenInvalid, 实际 %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	mgr := newTestManager(30 * time.Minute)
	if _, err := mgr.ParseToken("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("垃圾输入期望 ErrTokenInvalid, 实际 %v", err)
	}
}
