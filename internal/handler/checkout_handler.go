package handler

import (
	"net/http"

	"merkado/internal/config"
	"merkado/internal/domain/geo"
	"merkado/internal/domain/model"
	"merkado/internal/middleware"
	"merkado/internal/repository"
	"merkado/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type DistanceRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type ProofUploadResponse struct {
	Path string `json:"path"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.JWT, userRepo repository.UserRepository) {
	g := authGroup(e, "/checkout", cfg, userRepo, middleware.RoleGuard(model.RoleBuyer))

	g.POST("/begin", h.begin)
	g.POST("/distance", h.distance)
	g.POST("/proof", h.uploadProof)
}

func (h *CheckoutHandler) begin(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.BeginCheckout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) distance(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req DistanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Latitude == nil || req.Longitude == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Please set your delivery location"})
	}

	out, err := h.uc.PreviewDistance(c.Request().Context(), userID, geo.Point{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// multipartの proof フィールド
func (h *CheckoutHandler) uploadProof(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	fh, err := c.FormFile("proof")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Please upload proof of payment"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not read upload"})
	}
	defer f.Close()

	path, err := h.uc.UploadProof(c.Request().Context(), userID, fh.Size, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ProofUploadResponse{Path: path})
}
