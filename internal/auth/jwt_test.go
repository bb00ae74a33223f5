package auth

import (
	"testing"
	"time"

	"chatlobby/config"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "chatlobby-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateAccessToken(cfg, 42, "a@b.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAccessToken(cfg, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "a@b.com" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	tok, err := GenerateRefreshToken(cfg, 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	userID, err := ParseRefreshToken(cfg, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 7 {
		t.Fatalf("userID = %d, want 7", userID)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	cfg := testJWTConfig()
	refresh, _ := GenerateRefreshToken(cfg, 7)
	if _, err := ParseAccessToken(cfg, refresh); err == nil {
		t.Fatal("refresh token must not parse as access token")
	}
	access, _ := GenerateAccessToken(cfg, 7, "a@b.com")
	if _, err := ParseRefreshToken(cfg, access); err == nil {
		t.Fatal("access token must not parse as refresh token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessExpiry = -time.Minute
	tok, _ := GenerateAccessToken(cfg, 1, "a@b.com")
	if _, err := ParseAccessToken(cfg, tok); err == nil {
		t.Fatal("expired token must be rejected")
	}
}
