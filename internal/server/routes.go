package server

import (
	"merkado/internal/config"
	"merkado/internal/handler"
	"merkado/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Product       *handler.ProductHandler
	SellerProduct *handler.SellerProductHandler
	Store         *handler.StoreHandler
	Cart          *handler.CartHandler
	Checkout      *handler.CheckoutHandler
	Order         *handler.OrderHandler
	SellerOrder   *handler.SellerOrderHandler
	Address       *handler.AddressHandler
	Notification  *handler.NotificationHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.JWT, userRepo repository.UserRepository, h Handlers) {
	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.Product.RegisterRoutes(e)
	h.SellerProduct.RegisterRoutes(e, cfg, userRepo)
	h.Store.RegisterRoutes(e, cfg, userRepo)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Checkout.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.SellerOrder.RegisterRoutes(e, cfg, userRepo)
	h.Address.RegisterRoutes(e, cfg, userRepo)
	h.Notification.RegisterRoutes(e, cfg, userRepo)
}
