package usecase

import (
	"errors"
	"fmt"

	"merkado/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

var errInvalidAccessToken = errors.New("invalid access token")

// AccessClaims はアクセストークンの中身。tv は users.token_version と突き合わせる
type AccessClaims struct {
	UserID       int64      `json:"sub"`
	Role         model.Role `json:"role"`
	TokenVersion int        `json:"tv"`
	IssuedAt     int64      `json:"iat"`
	ExpiresAt    int64      `json:"exp"`
}

// Valid はjwt.Claimsの実装。期限切れと欠けた項目を弾く
func (c AccessClaims) Valid() error {
	if c.UserID <= 0 || c.Role == "" || c.TokenVersion < 0 {
		return errInvalidAccessToken
	}
	if c.ExpiresAt == 0 || jwt.TimeFunc().Unix() >= c.ExpiresAt {
		return fmt.Errorf("%w: expired", errInvalidAccessToken)
	}
	return nil
}

func signAccessToken(secret string, claims AccessClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAccessToken はHS256の署名とclaimsを検証する
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return AccessClaims{}, errInvalidAccessToken
	}
	return claims, nil
}
