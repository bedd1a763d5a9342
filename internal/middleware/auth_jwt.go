package middleware

import (
	"net/http"
	"strings"

	"merkado/internal/config"
	"merkado/internal/domain/model"
	"merkado/internal/usecase"

	"github.com/labstack/echo/v4"
)

const ctxPrincipalKey = "principal"

// Principal は認証済みリクエストの主体
type Principal struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// PrincipalFrom はAuthJWTが載せた主体を取り出す
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(ctxPrincipalKey).(Principal)
	if !ok || p.UserID <= 0 {
		return Principal{}, false
	}
	return p, true
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.JWT) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := usecase.ParseAccessToken(cfg.Secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(ctxPrincipalKey, Principal{
				UserID:       claims.UserID,
				Role:         claims.Role,
				TokenVersion: claims.TokenVersion,
			})
			return next(c)
		}
	}
}

// "Bearer <token>" からtokenを抜く
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
