package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"merkado/internal/config"
	mw "merkado/internal/middleware"
	"merkado/internal/validator"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// New は共通ミドルウェアを積んだechoを返す
func New(cfg config.Config, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(middleware.Recover())
	// /uploads の中身をブラウザに推測させない
	e.Use(middleware.Secure())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(mw.RequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.FEURL},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-Idempotency-Key",
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))
	// 支払い証明の上限 + multipartの余白
	e.Use(middleware.BodyLimit(bodyLimit(cfg.Upload.MaxProofBytes)))

	// 保存した支払い証明・QR画像
	e.Static("/uploads", cfg.Upload.Dir)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// "6M" のような形式
func bodyLimit(maxProof int64) string {
	return strconv.FormatInt(maxProof>>20+1, 10) + "M"
}

// Start はctxが終わるまで待ち受け、終わったらShutdownする
func Start(ctx context.Context, e *echo.Echo, addr string, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server started", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("http server shutting down")
	return e.Shutdown(shutdownCtx)
}
