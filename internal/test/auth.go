package test

import (
	"context"
	"errors"

	"github.com/polkiloo/coursemart/internal/domain/model"
	pkgAuth "github.com/polkiloo/coursemart/internal/pkg/auth"
)

// StubHash is the value HasherStub stores for password.
func StubHash(password string) string {
	return "stub$" + password
}

// HasherStub hashes by prefixing and never asks for a rehash unless told to.
type HasherStub struct {
	HashFn        func(string) (string, error)
	CompareFn     func(string, string) error
	NeedsRehashFn func(string) bool
}

func (h HasherStub) Hash(password string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(password)
	}
	return StubHash(password), nil
}

func (h HasherStub) Compare(hash string, password string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, password)
	}
	if hash != StubHash(password) {
		return errors.New("password mismatch")
	}
	return nil
}

func (h HasherStub) NeedsRehash(hash string) bool {
	return h.NeedsRehashFn != nil && h.NeedsRehashFn(hash)
}

// StrategyStub issues a fixed token and parses every token as student 1 unless overridden.
type StrategyStub struct {
	IssueFn func(pkgAuth.Claims) (string, error)
	ParseFn func(string) (pkgAuth.Claims, error)
}

func (s StrategyStub) IssueToken(claims pkgAuth.Claims) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(claims)
	}
	return "token", nil
}

func (s StrategyStub) ParseToken(token string) (pkgAuth.Claims, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return pkgAuth.Claims{UserID: 1, Role: model.RoleStudent}, nil
}

// TokenParserStub returns Claims or Err, or delegates to ParseFn when set.
type TokenParserStub struct {
	Claims  pkgAuth.Claims
	Err     error
	ParseFn func(string) (pkgAuth.Claims, error)
}

func (s TokenParserStub) ParseToken(token string) (pkgAuth.Claims, error) {
	switch {
	case s.ParseFn != nil:
		return s.ParseFn(token)
	case s.Err != nil:
		return pkgAuth.Claims{}, s.Err
	default:
		return s.Claims, nil
	}
}

// AuthFacadeStub answers register and login with "token" unless overridden.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseFn        func(string) (pkgAuth.Claims, error)
}

func (s AuthFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return "token", nil
}

func (s AuthFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return "token", nil
}

func (s AuthFacadeStub) ParseToken(token string) (pkgAuth.Claims, error) {
	return StrategyStub{ParseFn: s.ParseFn}.ParseToken(token)
}

var (
	_ pkgAuth.PasswordHasher = HasherStub{}
	_ pkgAuth.Strategy       = StrategyStub{}
)
