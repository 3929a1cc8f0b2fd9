package auth

import (
	"testing"

	"fieldvisit-backend/internal/models"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("password stored in clear")
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "fieldvisit-backend", 1)
	token, err := m.GenerateToken(&models.User{ID: 7, Name: "alice", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 || claims.Name != "alice" || claims.Role != models.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejectsOtherSecretAndIssuer(t *testing.T) {
	token, err := NewJWTManager("secret", "fieldvisit-backend", 1).GenerateToken(&models.User{ID: 1, Name: "bob"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewJWTManager("other", "fieldvisit-backend", 1).ValidateToken(token); err == nil {
		t.Error("token accepted with wrong secret")
	}
	if _, err := NewJWTManager("secret", "someone-else", 1).ValidateToken(token); err == nil {
		t.Error("token accepted with wrong issuer")
	}
	if _, err := NewJWTManager("secret", "fieldvisit-backend", 1).ValidateToken("garbage"); err == nil {
		t.Error("garbage token accepted")
	}
}
