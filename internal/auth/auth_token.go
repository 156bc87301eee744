package auth

import (
	"time"

	autherrors "performa/internal/auth/errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeRefresh = "refresh"
)

type Claims struct {
	UserID    string
	CompanyID string
	Role      string
	SessionID string
}

type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue signs an access and a refresh token for the same session.
func (t *TokenIssuer) Issue(c Claims) (access, refresh string, err error) {
	access, err = t.sign(c, "", AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = t.sign(c, tokenTypeRefresh, RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (t *TokenIssuer) sign(c Claims, typ string, expiry time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id":    c.UserID,
		"company_id": c.CompanyID,
		"role":       c.Role,
		"session_id": c.SessionID,
		"iat":        now.Unix(),
		"exp":        now.Add(expiry).Unix(),
	}
	if typ != "" {
		claims["typ"] = typ
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ParseRefresh accepts only tokens minted as refresh tokens.
func (t *TokenIssuer) ParseRefresh(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return Claims{}, autherrors.ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, autherrors.ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeRefresh {
		return Claims{}, autherrors.ErrInvalidRefreshToken
	}

	out := Claims{}
	out.UserID, _ = claims["user_id"].(string)
	out.CompanyID, _ = claims["company_id"].(string)
	out.Role, _ = claims["role"].(string)
	out.SessionID, _ = claims["session_id"].(string)
	if out.UserID == "" || out.CompanyID == "" {
		return Claims{}, autherrors.ErrInvalidToken
	}
	return out, nil
}
