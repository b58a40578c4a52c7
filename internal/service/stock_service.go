package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/repo"
)

// StockService 规格库存业务接口。
// 定制流程只读取库存；扣减发生在订单确认后，由结账方携带冻结的购物车行调用 Commit。
type StockService interface {
	Restock(ctx context.Context, variantID int64, req *domain.RestockRequest) (*domain.Variant, error)
	Commit(ctx context.Context, req *domain.StockCommitRequest) error
}

type stockService struct {
	variantRepo repo.VariantRepository
	logger      *zap.Logger
}

// NewStockService 创建库存服务实例
func NewStockService(variantRepo repo.VariantRepository, logger *zap.Logger) StockService {
	return &stockService{
		variantRepo: variantRepo,
		logger:      logger,
	}
}

// Restock 补货
func (s *stockService) Restock(ctx context.Context, variantID int64, req *domain.RestockRequest) (*domain.Variant, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}

	v, err := s.variantRepo.Restock(ctx, variantID, req.Quantity, req.Reason)
	if err != nil {
		return nil, fmt.Errorf("failed to restock variant: %w", err)
	}
	if v == nil {
		return nil, ErrVariantNotFound
	}

	s.logger.Info("variant restocked",
		zap.Int64("variant_id", variantID),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock", v.StockQuantity),
	)
	return v, nil
}

// Commit 按冻结的购物车行扣减库存；同一规格的多行合并，按规格ID顺序扣减
func (s *stockService) Commit(ctx context.Context, req *domain.StockCommitRequest) error {
	if req.OrderRef == "" || len(req.LineItems) == 0 {
		return fmt.Errorf("%w: order_ref and line_items are required", ErrValidation)
	}

	totals := make(map[int64]int, len(req.LineItems))
	for _, item := range req.LineItems {
		if item.VariantID <= 0 || item.Quantity <= 0 {
			return fmt.Errorf("%w: line item %s has no variant or quantity", ErrValidation, item.ID)
		}
		totals[item.VariantID] += item.Quantity
	}

	items := make([]repo.StockDeduction, 0, len(totals))
	for id, qty := range totals {
		items = append(items, repo.StockDeduction{VariantID: id, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].VariantID < items[j].VariantID })

	if err := s.variantRepo.Commit(ctx, req.OrderRef, items); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			s.logger.Warn("stock commit rejected",
				zap.String("order_ref", req.OrderRef),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", ErrInsufficientStock, err)
		}
		return fmt.Errorf("failed to commit stock: %w", err)
	}

	s.logger.Info("stock committed",
		zap.String("order_ref", req.OrderRef),
		zap.Int("variants", len(items)),
	)
	return nil
}
