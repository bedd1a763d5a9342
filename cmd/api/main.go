package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merkado/internal/config"
	"merkado/internal/handler"
	"merkado/internal/infra/cache"
	"merkado/internal/infra/db"
	"merkado/internal/infra/event"
	"merkado/internal/infra/logger"
	infraRepo "merkado/internal/infra/repository"
	"merkado/internal/infra/storage"
	repo "merkado/internal/repository"
	"merkado/internal/server"
	"merkado/internal/usecase"
	"merkado/internal/validator"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// bcryptのコスト
const bcryptCost = 12

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	// 金額はJSONで数値として返す
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.Postgres, !cfg.IsProd())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	priceHistoryRepo := infraRepo.NewPriceHistoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB)
	profileRepo := infraRepo.NewSellerProfileGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	var hoursRepo repo.StoreHoursRepository = infraRepo.NewStoreHoursGormRepository(gormDB)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// 落ちていてもDBに素通しで動く
			log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		hoursRepo = cache.NewCachedStoreHoursRepository(hoursRepo, rdb, cfg.Redis.CacheTTL, log)
	}

	var events usecase.OrderEventPublisher = event.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := event.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, log)
		if err != nil {
			return err
		}
		defer kp.Close()
		events = kp
	}

	proofs, err := storage.NewLocalProofStore(cfg.Upload.Dir)
	if err != nil {
		return err
	}

	//Usecase生成
	clock := usecase.SystemClock{}
	storeUC := usecase.NewStoreUsecase(hoursRepo, profileRepo, userRepo, clock)
	authUC := usecase.NewAuthUsecase(cfg.JWT, userRepo, auditRepo, validator.NewAuthValidator(userRepo), bcryptCost, clock)
	productUC := usecase.NewProductUsecase(productRepo, priceHistoryRepo, txm, clock, log)
	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartItemRepo, productRepo, storeUC)
	checkoutUC := usecase.NewCheckoutUsecase(cartRepo, cartItemRepo, productRepo, profileRepo, storeUC, proofs, cfg.Upload.MaxProofBytes)
	orderUC := usecase.NewOrderUsecase(txm, profileRepo, storeUC, proofs, events, clock, log)
	sellerOrderUC := usecase.NewSellerOrderUsecase(txm, events, clock, log)
	addressUC := usecase.NewAddressUsecase(addressRepo, clock)
	notificationUC := usecase.NewNotificationUsecase(notificationRepo, clock)

	//Handler生成
	e := server.New(cfg, log)
	server.RegisterRoutes(e, cfg.JWT, userRepo, server.Handlers{
		Auth:          handler.NewAuthHandler(authUC),
		Product:       handler.NewProductHandler(productUC),
		SellerProduct: handler.NewSellerProductHandler(productUC),
		Store:         handler.NewStoreHandler(storeUC),
		Cart:          handler.NewCartHandler(cartUC),
		Checkout:      handler.NewCheckoutHandler(checkoutUC),
		Order:         handler.NewOrderHandler(orderUC),
		SellerOrder:   handler.NewSellerOrderHandler(sellerOrderUC),
		Address:       handler.NewAddressHandler(addressUC),
		Notification:  handler.NewNotificationHandler(notificationUC),
	})

	//Server起動
	return server.Start(ctx, e, cfg.Addr(), log)
}
