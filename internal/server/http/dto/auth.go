package dto

// AuthRequest describes login/password payload.
type AuthRequest struct {
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// TokenResponse echoes the issued token for clients that cannot read cookies.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}
