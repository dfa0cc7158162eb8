package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the body of an access token. The chat bot requests one per acting
// user with the roles that user holds in the guild.
type Claims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type TokenRequest struct {
	UserID   string   `json:"user_id" binding:"required"`
	Username string   `json:"username" binding:"required"`
	Roles    []string `json:"roles"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
	TokenType   string `json:"token_type"`
}
