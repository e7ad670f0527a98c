package session

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const secret = "0123456789abcdef0123456789abcdef"

func mint(t *testing.T, signingSecret string, claims accessClaims) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims() accessClaims {
	return accessClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
		StoreID: "main-store",
		Role:    "cashier",
		Name:    "Kasir A",
	}
}

func TestParseValidToken(t *testing.T) {
	sess, err := Parse(secret, mint(t, secret, validClaims()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sess.UserID != "user-1" || sess.StoreID != "main-store" || sess.Role != "cashier" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.ExpiresAt.IsZero() {
		t.Fatalf("expected expiry to be carried over")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	if _, err := Parse(secret, mint(t, "another-secret-that-is-long-enough", validClaims())); err == nil {
		t.Fatalf("expected signature rejection")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwtlib.NewNumericDate(time.Now().Add(-time.Minute))
	if _, err := Parse(secret, mint(t, secret, claims)); err == nil {
		t.Fatalf("expected expired token rejection")
	}
}

func TestParseRequiresSubjectAndStore(t *testing.T) {
	claims := validClaims()
	claims.Subject = ""
	if _, err := Parse(secret, mint(t, secret, claims)); err == nil {
		t.Fatalf("expected missing subject rejection")
	}

	claims = validClaims()
	claims.StoreID = ""
	if _, err := Parse(secret, mint(t, secret, claims)); err == nil {
		t.Fatalf("expected missing store binding rejection")
	}
}
