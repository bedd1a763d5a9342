package handler

import (
	"net/http"

	"merkado/internal/config"
	"merkado/internal/domain/model"
	"merkado/internal/domain/storehours"
	"merkado/internal/middleware"
	"merkado/internal/repository"
	"merkado/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 営業時間と店舗プロフィール
type StoreHandler struct {
	uc *usecase.StoreUsecase
}

func NewStoreHandler(uc *usecase.StoreUsecase) *StoreHandler {
	return &StoreHandler{uc: uc}
}

type StoreProfileRequest struct {
	StoreName     string   `json:"store_name" validate:"required,max=255"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	PaymentQRPath string   `json:"payment_qr_path" validate:"max=500"`
}

func (h *StoreHandler) RegisterRoutes(e *echo.Echo, cfg config.JWT, userRepo repository.UserRepository) {
	e.GET("/stores/:seller_id/hours", h.hours)
	e.GET("/stores/:seller_id/status", h.status)

	seller := authGroup(e, "/seller", cfg, userRepo, middleware.RoleGuard(model.RoleSeller))
	seller.GET("/store-hours", h.myHours)
	seller.PUT("/store-hours", h.putMyHours)
	seller.GET("/profile", h.profile)
	seller.PUT("/profile", h.putProfile)

	admin := authGroup(e, "/admin", cfg, userRepo, middleware.RoleGuard(model.RoleAdmin))
	admin.GET("/store-hours", h.defaultHours)
	admin.PUT("/store-hours", h.putDefaultHours)
}

func (h *StoreHandler) hours(c echo.Context) error {
	sellerID, ok := parseIDParam(c, "seller_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid seller_id"})
	}

	s, err := h.uc.GetHours(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *StoreHandler) status(c echo.Context) error {
	sellerID, ok := parseIDParam(c, "seller_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid seller_id"})
	}

	st, err := h.uc.GetStatus(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StoreHandler) myHours(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	s, err := h.uc.GetHours(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *StoreHandler) putMyHours(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return h.replaceHours(c, sellerID)
}

func (h *StoreHandler) defaultHours(c echo.Context) error {
	s, err := h.uc.GetDefaultHours(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *StoreHandler) putDefaultHours(c echo.Context) error {
	return h.replaceHours(c, model.GlobalStoreHoursSellerID)
}

// bodyは7曜日分の配列
func (h *StoreHandler) replaceHours(c echo.Context, sellerID int64) error {
	var days storehours.Schedule
	if err := (&echo.DefaultBinder{}).BindBody(c, &days); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	s, err := h.uc.SetHours(c.Request().Context(), sellerID, days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *StoreHandler) profile(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	p, err := h.uc.GetProfile(c.Request().Context(), sellerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *StoreHandler) putProfile(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req StoreProfileRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	p, err := h.uc.UpdateProfile(c.Request().Context(), sellerID, usecase.UpdateProfileInput{
		StoreName:     req.StoreName,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PaymentQRPath: req.PaymentQRPath,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
