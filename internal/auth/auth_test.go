package auth

import (
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash must not equal the plaintext password")
	}
	if !CheckPasswordHash("secret123", hash) {
		t.Fatal("correct password should verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("wrong password should not verify")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret-test-secret-test-secret!")

	token, err := GenerateJWT(secret, 42, "archuser", "Archive Test", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateJWT(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != 42 || claims.ExternalUserID != "archuser" || claims.DisplayName != "Archive Test" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	token, err := GenerateJWT([]byte("secret-one-secret-one-secret-one!!!!"), 1, "u", "U", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateJWT([]byte("secret-two-secret-two-secret-two!!!!"), token); err == nil {
		t.Fatal("token signed with a different secret should not validate")
	}
}

func TestValidateJWT_Expired(t *testing.T) {
	secret := []byte("test-secret-test-secret-test-secret!")

	token, err := GenerateJWT(secret, 1, "u", "U", -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := ValidateJWT(secret, token); err == nil {
		t.Fatal("expired token should not validate")
	}
}
