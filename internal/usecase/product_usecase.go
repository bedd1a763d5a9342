package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"merkado/internal/domain/model"
	"merkado/internal/domain/pricing"
	"merkado/internal/infra/logger"
	repo "merkado/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	priceHistory repo.PriceHistoryRepository
	tx           repo.TransactionManager
	clock        Clock
	log          *zap.Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	priceHistory repo.PriceHistoryRepository,
	tx repo.TransactionManager,
	clock Clock,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:  productRepo,
		priceHistory: priceHistory,
		tx:           tx,
		clock:        clock,
		log:          log,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page      int
	Limit     int
	Q         string
	Category  string
	Freshness string
	SellerID  *int64
	Sort      string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type CreateProductInput struct {
	Name      string
	Category  string
	Unit      string
	Price     decimal.Decimal
	Stock     int64
	Freshness string
	ImagePath string
}

// nilの項目は変更しない
type UpdateProductInput struct {
	Name      *string
	Category  *string
	Unit      *string
	Price     *decimal.Decimal
	Stock     *int64
	Freshness *string
	ImagePath *string
	// 在庫調整の理由
	Reason string
}

// 価格分析の返却形
type PriceAnalysisOutput struct {
	ProductName            string               `json:"productName"`
	CurrentPrice           decimal.Decimal      `json:"currentPrice"`
	TotalUpdates           int                  `json:"totalUpdates"`
	History                []pricing.Change     `json:"history"`
	CanGenerateSuggestions bool                 `json:"canGenerateSuggestions"`
	Suggestions            []pricing.Suggestion `json:"suggestions"`
	Trend                  pricing.Trend        `json:"trend"`
	Progress               string               `json:"progress"`
	Message                string               `json:"message"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if err := validateListInput(in); err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:      in.Page,
		Limit:     in.Limit,
		Q:         strings.TrimSpace(in.Q),
		Category:  strings.TrimSpace(in.Category),
		Freshness: in.Freshness,
		SellerID:  in.SellerID,
		Sort:      in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 出品者の管理画面用。在庫0も返す
func (u *ProductUsecase) SellerListProducts(ctx context.Context, sellerID int64, in ListProductsInput) (ProductListOutput, error) {
	if sellerID <= 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateListInput(in); err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:           in.Page,
		Limit:          in.Limit,
		Q:              strings.TrimSpace(in.Q),
		Category:       strings.TrimSpace(in.Category),
		Freshness:      in.Freshness,
		SellerID:       &sellerID,
		IncludeSoldOut: true,
		Sort:           in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) SellerCreateProduct(ctx context.Context, sellerID int64, in CreateProductInput) (model.Product, error) {
	if sellerID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "category is required")
	}
	if in.Price.IsNegative() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	freshness, err := parseFreshness(in.Freshness)
	if err != nil {
		return model.Product{}, err
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "kg"
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		SellerID:  sellerID,
		Name:      name,
		Category:  category,
		Unit:      unit,
		Price:     in.Price.Round(2),
		Stock:     in.Stock,
		Freshness: freshness,
		ImagePath: strings.TrimSpace(in.ImagePath),
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// SellerUpdateProduct は行ロックを取り、価格が変わったら
// previous_price と価格履歴を同じトランザクションで書く。
func (u *ProductUsecase) SellerUpdateProduct(ctx context.Context, sellerID, productID int64, in UpdateProductInput) (model.Product, error) {
	if sellerID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "category is required")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	var freshness *model.Freshness
	if in.Freshness != nil {
		f, err := parseFreshness(*in.Freshness)
		if err != nil {
			return model.Product{}, err
		}
		freshness = &f
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		//他人の商品は見えないものとして扱う
		if p.SellerID != sellerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		now := u.clock.Now()
		oldPrice := p.Price
		oldStock := p.Stock

		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Category != nil {
			p.Category = strings.TrimSpace(*in.Category)
		}
		if in.Unit != nil && strings.TrimSpace(*in.Unit) != "" {
			p.Unit = strings.TrimSpace(*in.Unit)
		}
		if freshness != nil {
			p.Freshness = *freshness
		}
		if in.ImagePath != nil {
			p.ImagePath = strings.TrimSpace(*in.ImagePath)
		}

		priceChanged := in.Price != nil && !in.Price.Round(2).Equal(oldPrice)
		if priceChanged {
			prev := oldPrice
			p.PreviousPrice = &prev
			p.Price = in.Price.Round(2)
		}
		if in.Stock != nil {
			p.Stock = *in.Stock
		}

		if err := r.Products().Update(ctx, p); err != nil {
			return err
		}

		if priceChanged {
			if err := r.PriceHistory().Append(ctx, model.PriceChangeRecord{
				ProductID:  p.ID,
				OldPrice:   oldPrice,
				NewPrice:   p.Price,
				ChangeDate: now,
			}); err != nil {
				return err
			}
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  sellerID,
				Action:       model.AuditActionUpdatePrice,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   p.ID,
				BeforeJSON:   fmt.Sprintf(`{"price":"%s"}`, oldPrice.StringFixed(2)),
				AfterJSON:    fmt.Sprintf(`{"price":"%s"}`, p.Price.StringFixed(2)),
				CreatedAt:    now,
			}); err != nil {
				return err
			}
		}

		if delta := p.Stock - oldStock; delta != 0 {
			reason := strings.TrimSpace(in.Reason)
			if reason == "" {
				reason = "manual update"
			}
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   p.ID,
				ActorUserID: sellerID,
				Source:      model.AdjustmentSourceManual,
				Delta:       delta,
				StockAfter:  p.Stock,
				Reason:      reason,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  sellerID,
				Action:       model.AuditActionUpdateStock,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   p.ID,
				BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, oldStock),
				AfterJSON:    fmt.Sprintf(`{"stock":%d}`, p.Stock),
				CreatedAt:    now,
			}); err != nil {
				return err
			}
		}

		updated = p
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Product{}, err
		}
		logger.Error(ctx, u.log, "update product failed", zap.Int64("product_id", productID), zap.Error(err))
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

func (u *ProductUsecase) SellerDeleteProduct(ctx context.Context, sellerID, productID int64) error {
	if _, err := u.ownedProduct(ctx, sellerID, productID); err != nil {
		return err
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 新しい順の価格変更履歴
func (u *ProductUsecase) PriceHistory(ctx context.Context, sellerID, productID int64) ([]model.PriceChangeRecord, error) {
	if _, err := u.ownedProduct(ctx, sellerID, productID); err != nil {
		return nil, err
	}
	recs, err := u.priceHistory.ListByProductID(ctx, productID, 0)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return recs, nil
}

// PriceAnalysis は履歴から価格候補を出す。cost があれば利益も付ける
func (u *ProductUsecase) PriceAnalysis(ctx context.Context, sellerID, productID int64, cost *decimal.Decimal) (PriceAnalysisOutput, error) {
	if cost != nil && cost.IsNegative() {
		return PriceAnalysisOutput{}, NewHTTPError(http.StatusBadRequest, "cost must be >= 0")
	}
	p, err := u.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return PriceAnalysisOutput{}, err
	}

	recs, err := u.priceHistory.ListByProductID(ctx, productID, 0)
	if err != nil {
		return PriceAnalysisOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	history := make([]pricing.Change, 0, len(recs))
	for _, rec := range recs {
		history = append(history, pricing.Change{
			OldPrice:   rec.OldPrice,
			NewPrice:   rec.NewPrice,
			ChangeDate: rec.ChangeDate,
		})
	}

	a, err := pricing.Analyze(pricing.Input{CurrentPrice: p.Price, History: history, Cost: cost})
	if err != nil {
		return PriceAnalysisOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return PriceAnalysisOutput{
		ProductName:            p.Name,
		CurrentPrice:           p.Price,
		TotalUpdates:           a.TotalUpdates,
		History:                history,
		CanGenerateSuggestions: a.CanGenerateSuggestions,
		Suggestions:            a.Suggestions,
		Trend:                  a.Trend,
		Progress:               a.Progress,
		Message:                a.Message,
	}, nil
}

func (u *ProductUsecase) ownedProduct(ctx context.Context, sellerID, productID int64) (model.Product, error) {
	if sellerID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.SellerID != sellerID {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

func validateListInput(in ListProductsInput) error {
	if in.Page < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.Freshness != "" {
		if _, err := parseFreshness(in.Freshness); err != nil {
			return err
		}
	}
	switch in.Sort {
	case "", "new", "name", "price_asc", "price_desc":
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid sort")
	}
	return nil
}

// 空ならFresh
func parseFreshness(v string) (model.Freshness, error) {
	switch model.Freshness(strings.TrimSpace(v)) {
	case "", model.FreshnessFresh:
		return model.FreshnessFresh, nil
	case model.FreshnessChilled:
		return model.FreshnessChilled, nil
	case model.FreshnessFrozen:
		return model.FreshnessFrozen, nil
	default:
		return "", NewHTTPError(http.StatusBadRequest, "freshness must be one of Fresh, Chilled, Frozen")
	}
}
