package utils

import "testing"

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateAccessToken("user-1", "alex@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alex@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-a")
	token, err := GenerateAccessToken("user-1", "alex@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-b")
	if _, err := ParseAccessToken(token); err == nil {
		t.Fatal("expected parse to fail under a different secret")
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	a, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken error: %v", err)
	}
	b, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken error: %v", err)
	}
	if a == b {
		t.Fatal("refresh tokens must be random")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
