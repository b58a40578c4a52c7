package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/mq"
)

// 事件装饰器：业务操作成功后发布领域事件。
// 发布失败只记录日志，已完成的操作不回滚。

type eventingCustomizationService struct {
	CustomizationService
	publisher mq.Publisher
	source    string
	logger    *zap.Logger
}

// WithCustomizationEvents 冻结购物车行后发布事件
func WithCustomizationEvents(inner CustomizationService, publisher mq.Publisher, source string, logger *zap.Logger) CustomizationService {
	return &eventingCustomizationService{CustomizationService: inner, publisher: publisher, source: source, logger: logger}
}

func (s *eventingCustomizationService) FreezeLineItem(ctx context.Context, productID int64, req *domain.FreezeLineItemRequest) (*domain.CartLineItemSnapshot, error) {
	snapshot, err := s.CustomizationService.FreezeLineItem(ctx, productID, req)
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, s.publisher, s.logger, mq.NewMessage(mq.MessageTypeLineItemFrozen, s.source, lineItemData(snapshot, "")))
	return snapshot, nil
}

type eventingSessionService struct {
	SessionService
	publisher mq.Publisher
	source    string
	logger    *zap.Logger
}

// WithSessionEvents 会话定稿后发布事件
func WithSessionEvents(inner SessionService, publisher mq.Publisher, source string, logger *zap.Logger) SessionService {
	return &eventingSessionService{SessionService: inner, publisher: publisher, source: source, logger: logger}
}

func (s *eventingSessionService) Finalize(ctx context.Context, id string, req *domain.FinalizeSessionRequest) (*SessionView, error) {
	view, err := s.SessionService.Finalize(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if view.Session != nil && view.Session.LineItem != nil {
		data := lineItemData(view.Session.LineItem, view.Session.ID)
		publishEvent(ctx, s.publisher, s.logger, mq.NewMessage(mq.MessageTypeSessionFinalized, s.source, data))
	}
	return view, nil
}

type eventingStockService struct {
	StockService
	publisher mq.Publisher
	source    string
	logger    *zap.Logger
}

// WithStockEvents 扣减库存后发布事件
func WithStockEvents(inner StockService, publisher mq.Publisher, source string, logger *zap.Logger) StockService {
	return &eventingStockService{StockService: inner, publisher: publisher, source: source, logger: logger}
}

func (s *eventingStockService) Commit(ctx context.Context, req *domain.StockCommitRequest) error {
	if err := s.StockService.Commit(ctx, req); err != nil {
		return err
	}
	data := mq.StockCommittedData{OrderRef: req.OrderRef, Items: make([]mq.StockLineData, 0, len(req.LineItems))}
	for _, item := range req.LineItems {
		data.Items = append(data.Items, mq.StockLineData{VariantID: item.VariantID, SKU: item.SKU, Quantity: item.Quantity})
	}
	publishEvent(ctx, s.publisher, s.logger, mq.NewMessage(mq.MessageTypeStockCommitted, s.source, data))
	return nil
}

func lineItemData(item *domain.CartLineItemSnapshot, sessionID string) mq.LineItemData {
	return mq.LineItemData{
		LineItemID:     item.ID,
		ProductID:      item.ProductID,
		VariantID:      item.VariantID,
		SKU:            item.SKU,
		Quantity:       item.Quantity,
		PrintConfig:    item.Customization.PrintConfigType,
		SurfaceVersion: item.Customization.SurfaceVersion,
		SessionID:      sessionID,
	}
}

func publishEvent(ctx context.Context, publisher mq.Publisher, logger *zap.Logger, msg *mq.Message) {
	if err := publisher.Publish(ctx, msg); err != nil {
		logger.Warn("failed to publish event",
			zap.String("message_id", msg.ID),
			zap.String("type", string(msg.Type)),
			zap.Error(err))
		return
	}
	logger.Debug("event published", zap.String("message_id", msg.ID), zap.String("type", string(msg.Type)))
}
