package handler

import (
	"net/http"

	"merkado/internal/config"
	"merkado/internal/domain/model"
	"merkado/internal/middleware"
	"merkado/internal/repository"
	"merkado/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /seller/products の出品者API
type SellerProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewSellerProductHandler(uc *usecase.ProductUsecase) *SellerProductHandler {
	return &SellerProductHandler{uc: uc}
}

type ProductCreateRequest struct {
	Name      string           `json:"name" validate:"required,max=255"`
	Category  string           `json:"category" validate:"required,max=100"`
	Unit      string           `json:"unit" validate:"max=50"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
	Stock     *int64           `json:"stock" validate:"required,gte=0"`
	Freshness string           `json:"freshness" validate:"omitempty,oneof=Fresh Chilled Frozen"`
	ImagePath string           `json:"image_path" validate:"max=500"`
}

// 送られた項目だけ更新する
type ProductUpdateRequest struct {
	Name      *string          `json:"name" validate:"omitempty,max=255"`
	Category  *string          `json:"category" validate:"omitempty,max=100"`
	Unit      *string          `json:"unit" validate:"omitempty,max=50"`
	Price     *decimal.Decimal `json:"price"`
	Stock     *int64           `json:"stock" validate:"omitempty,gte=0"`
	Freshness *string          `json:"freshness" validate:"omitempty,oneof=Fresh Chilled Frozen"`
	ImagePath *string          `json:"image_path" validate:"omitempty,max=500"`
	Reason    string           `json:"reason" validate:"max=255"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func (h *SellerProductHandler) RegisterRoutes(e *echo.Echo, cfg config.JWT, userRepo repository.UserRepository) {
	g := authGroup(e, "/seller/products", cfg, userRepo, middleware.RoleGuard(model.RoleSeller))

	g.GET("", h.list)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/price-history", h.priceHistory)
	g.GET("/:id/price-analysis", h.priceAnalysis)
}

func (h *SellerProductHandler) list(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	in, ok, msg := listProductsInput(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
	}

	out, err := h.uc.SellerListProducts(c.Request().Context(), sellerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SellerProductHandler) create(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ProductCreateRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	p, err := h.uc.SellerCreateProduct(c.Request().Context(), sellerID, usecase.CreateProductInput{
		Name:      req.Name,
		Category:  req.Category,
		Unit:      req.Unit,
		Price:     *req.Price,
		Stock:     *req.Stock,
		Freshness: req.Freshness,
		ImagePath: req.ImagePath,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h *SellerProductHandler) update(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ProductUpdateRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	p, err := h.uc.SellerUpdateProduct(c.Request().Context(), sellerID, id, usecase.UpdateProductInput{
		Name:      req.Name,
		Category:  req.Category,
		Unit:      req.Unit,
		Price:     req.Price,
		Stock:     req.Stock,
		Freshness: req.Freshness,
		ImagePath: req.ImagePath,
		Reason:    req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *SellerProductHandler) delete(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.SellerDeleteProduct(c.Request().Context(), sellerID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *SellerProductHandler) priceHistory(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	list, err := h.uc.PriceHistory(c.Request().Context(), sellerID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// ?cost= があれば利益・利益率つきの提案になる
func (h *SellerProductHandler) priceAnalysis(c echo.Context) error {
	sellerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var cost *decimal.Decimal
	if v := c.QueryParam("cost"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cost"})
		}
		cost = &d
	}

	out, err := h.uc.PriceAnalysis(c.Request().Context(), sellerID, id, cost)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
