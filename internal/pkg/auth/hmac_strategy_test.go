package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

func TestNewHMACStrategyDefaults(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	if string(strategy.secret) != "secret" {
		t.Fatalf("unexpected secret: %q", string(strategy.secret))
	}
	if strategy.ttl != 24*time.Hour {
		t.Fatalf("unexpected ttl: %s", strategy.ttl)
	}
}

func TestHMACStrategyRoundTripKeepsRole(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{TTL: time.Minute})
	token, err := strategy.IssueToken(Claims{UserID: 42, Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	claims, err := strategy.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != 42 || claims.Role != model.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestHMACStrategyDefaultsRoleToStudent(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	token, _ := strategy.IssueToken(Claims{UserID: 1})
	claims, err := strategy.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != model.RoleStudent {
		t.Fatalf("expected student role, got %q", claims.Role)
	}
}

func TestHMACStrategyRejectsTampering(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{TTL: time.Minute})
	token, _ := strategy.IssueToken(Claims{UserID: 7, Role: model.RoleStudent})
	raw, _ := base64.RawURLEncoding.DecodeString(token)
	parts := strings.Split(string(raw), ":")
	parts[1] = string(model.RoleAdmin)
	forged := base64.RawURLEncoding.EncodeToString([]byte(strings.Join(parts, ":")))
	if _, err := strategy.ParseToken(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for escalated role, got %v", err)
	}
}

func TestHMACStrategyParseFailures(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	signed := func(payload string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + strategy.sign(payload)))
	}
	future := time.Now().Add(time.Minute).Unix()
	cases := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%"},
		{"wrong parts", base64.RawURLEncoding.EncodeToString([]byte("only:two"))},
		{"bad user", signed(fmt.Sprintf("abc:student:%d", future))},
		{"bad expiry", signed("10:student:never")},
		{"expired", signed(fmt.Sprintf("10:student:%d", time.Now().Add(-time.Minute).Unix()))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := strategy.ParseToken(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestHMACStrategyRejectsRoleWithSeparator(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	if _, err := strategy.IssueToken(Claims{UserID: 1, Role: "a:b"}); err == nil {
		t.Fatal("expected error")
	}
}
