package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"

	"rankbot-api/packages/auth/models"
)

const DefaultAccessTokenExpiry = 15 * time.Minute

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no user id")
)

type TokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	if expiry <= 0 {
		expiry = DefaultAccessTokenExpiry
	}
	return &TokenManager{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (m *TokenManager) Expiry() time.Duration {
	return m.expiry
}

// GenerateToken signs an HS256 access token for the given user.
func (m *TokenManager) GenerateToken(req models.TokenRequest) (*models.TokenResponse, error) {
	if req.UserID == "" {
		return nil, ErrMissingSubject
	}
	now := m.now()
	claims := models.Claims{
		UserID:   req.UserID,
		Username: req.Username,
		Roles:    req.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, eris.Wrap(err, "failed to sign access token")
	}
	return &models.TokenResponse{
		AccessToken: signed,
		ExpiresIn:   int64(m.expiry.Seconds()),
		TokenType:   "Bearer",
	}, nil
}

// ParseToken verifies the signature and expiry of an access token.
func (m *TokenManager) ParseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Wrapf(ErrInvalidToken, "unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, eris.Wrap(ErrInvalidToken, err.Error())
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
