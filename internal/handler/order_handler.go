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

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCustomerRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Contact   string   `json:"contact"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// 各項目のメッセージはusecase側で出し分ける
type OrderCreateRequest struct {
	Customer         OrderCustomerRequest `json:"customer"`
	Cart             []int64              `json:"cart"`
	Total            *decimal.Decimal     `json:"total"`
	PaymentMode      string               `json:"payment_mode"`
	ProofOfPayment   string               `json:"proof_of_payment"`
	PaymentConfirmed bool                 `json:"payment_confirmed"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.JWT, userRepo repository.UserRepository) {
	g := authGroup(e, "/orders", cfg, userRepo)

	// 一覧と詳細は出品者も見る。注文できるのは買い手だけ
	g.POST("", h.create, middleware.RoleGuard(model.RoleBuyer))
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID, usecase.PlaceOrderInput{
		CustomerName:     req.Customer.Name,
		CustomerAddress:  req.Customer.Address,
		CustomerContact:  req.Customer.Contact,
		Latitude:         req.Customer.Latitude,
		Longitude:        req.Customer.Longitude,
		CartItemIDs:      req.Cart,
		Total:            req.Total,
		PaymentMode:      req.PaymentMode,
		ProofOfPayment:   req.ProofOfPayment,
		PaymentConfirmed: req.PaymentConfirmed,
		IdempotencyKey:   idemKey,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	in, ok, msg := listOrdersInput(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// page（default 1） limit（default 20） status
func listOrdersInput(c echo.Context) (usecase.ListOrdersInput, bool, string) {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return usecase.ListOrdersInput{}, false, "invalid page"
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return usecase.ListOrdersInput{}, false, "invalid limit"
	}
	return usecase.ListOrdersInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
	}, true, ""
}
