package middleware

import (
	"context"
	"net/http"

	"merkado/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// UserFinder はguardが必要とする最小限のユーザー参照
type UserFinder interface {
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}

// TokenVersionGuard はJWTのtvとDBのtoken_versionを突き合わせる。
// 通ったらroleはDBの値で上書きするので、ロール変更は次のリクエストから効く
func TokenVersionGuard(users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := users.FindByID(c.Request().Context(), p.UserID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			// 強制ログアウト済み
			if user.TokenVersion != p.TokenVersion {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !user.IsActive {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			if user.Role != "" {
				p.Role = user.Role
				c.Set(ctxPrincipalKey, p)
			}
			return next(c)
		}
	}
}
