package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
	pkgAuth "github.com/polkiloo/coursemart/internal/pkg/auth"
)

// AuthParams lists AuthUseCase dependencies.
type AuthParams struct {
	fx.In

	Users  repository.UserRepository
	Hasher pkgAuth.PasswordHasher
	Tokens pkgAuth.Strategy
	Logger *slog.Logger
}

// AuthUseCase registers accounts and turns credentials into signed tokens.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
	logger *slog.Logger
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(p AuthParams) *AuthUseCase {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthUseCase{users: p.Users, hasher: p.Hasher, tokens: p.Tokens, logger: logger}
}

// Register creates a student account and returns it together with a fresh token.
func (u *AuthUseCase) Register(ctx context.Context, login, password string) (*model.User, string, error) {
	login, ok := credentials(login, password)
	if !ok {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(password)
	switch {
	case errors.Is(err, pkgAuth.ErrPasswordTooLong):
		return nil, "", domainErrors.ErrInvalidCredentials
	case err != nil:
		return nil, "", err
	}

	usr, err := u.users.Create(ctx, login, hash, model.RoleStudent)
	if err != nil {
		return nil, "", err
	}
	return u.session(usr)
}

// Authenticate checks credentials and returns the account with a fresh token.
// Unknown logins and wrong passwords are indistinguishable to the caller.
func (u *AuthUseCase) Authenticate(ctx context.Context, login, password string) (*model.User, string, error) {
	login, ok := credentials(login, password)
	if !ok {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByLogin(ctx, login)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if u.hasher.Compare(usr.PasswordHash, password) != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	if u.hasher.NeedsRehash(usr.PasswordHash) {
		u.rehash(ctx, usr, password)
	}
	return u.session(usr)
}

// ParseToken extracts caller claims from provided token.
func (u *AuthUseCase) ParseToken(token string) (pkgAuth.Claims, error) {
	if token == "" {
		return pkgAuth.Claims{}, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

// GetByID fetches user by identifier.
func (u *AuthUseCase) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}

// rehash upgrades a stored hash to the current cost. Login succeeds either way.
func (u *AuthUseCase) rehash(ctx context.Context, usr *model.User, password string) {
	hash, err := u.hasher.Hash(password)
	if err == nil {
		err = u.users.UpdatePasswordHash(ctx, usr.ID, hash)
	}
	if err != nil {
		u.logger.Warn("password hash not upgraded", slog.Int64("user_id", usr.ID), slog.Any("error", err))
		return
	}
	usr.PasswordHash = hash
}

func (u *AuthUseCase) session(usr *model.User) (*model.User, string, error) {
	token, err := u.tokens.IssueToken(pkgAuth.Claims{UserID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

func credentials(login, password string) (string, bool) {
	login = strings.TrimSpace(login)
	return login, login != "" && password != ""
}
