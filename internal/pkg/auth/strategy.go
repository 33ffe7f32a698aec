package auth

import (
	"time"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// Claims identify the caller carried by an auth token.
type Claims struct {
	UserID int64
	Role   model.Role
}

// Strategy issues and verifies auth tokens.
type Strategy interface {
	IssueToken(claims Claims) (string, error)
	ParseToken(token string) (Claims, error)
}

type Options struct {
	TTL time.Duration
}
