package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("secret", 2, 7)

	tokenString, err := m.GenerateToken(7, "operator", "USER")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("VerifyToken returned error: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "operator" || claims.Role != "USER" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tokenString, err := NewJWTManager("secret-a", 2, 7).GenerateToken(1, "u", "USER")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewJWTManager("secret-b", 2, 7).VerifyToken(tokenString); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := NewJWTManager("secret", 2, 7)
	claims := CustomClaims{
		UserID:   1,
		Username: "u",
		Role:     "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.VerifyToken(tokenString); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	m := NewJWTManager("secret", 1, 7)

	access, err := m.GenerateToken(1, "u", "USER")
	if err != nil {
		t.Fatal(err)
	}
	refresh, err := m.GenerateRefreshToken(1, "u", "USER")
	if err != nil {
		t.Fatal(err)
	}

	accessClaims, err := m.VerifyToken(access)
	if err != nil {
		t.Fatal(err)
	}
	refreshClaims, err := m.VerifyToken(refresh)
	if err != nil {
		t.Fatal(err)
	}
	if !refreshClaims.ExpiresAt.After(accessClaims.ExpiresAt.Time) {
		t.Error("refresh token must expire after the access token")
	}
}
