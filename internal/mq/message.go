package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType 消息类型，同时作为路由键
type MessageType string

const (
	MessageTypeLineItemFrozen   MessageType = "customization.line_item.frozen"  // 直接冻结的购物车行
	MessageTypeSessionFinalized MessageType = "customization.session.finalized" // 会话定稿
	MessageTypeStockCommitted   MessageType = "inventory.stock.committed"       // 下单扣减库存
)

// messageVersion 消息结构版本
const messageVersion = "1"

// Message 事件消息基础结构
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Data      interface{} `json:"data"`
}

// NewMessage 创建事件消息
func NewMessage(msgType MessageType, source string, data interface{}) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Version:   messageVersion,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Data:      data,
	}
}

// RoutingKey 路由键
func (m *Message) RoutingKey() string {
	return string(m.Type)
}

// ToJSON 序列化消息
func (m *Message) ToJSON() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	return body, nil
}

// LineItemData 冻结购物车行事件数据
type LineItemData struct {
	LineItemID     string `json:"line_item_id"`
	ProductID      int64  `json:"product_id"`
	VariantID      int64  `json:"variant_id"`
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	PrintConfig    string `json:"print_config_type"`
	SurfaceVersion int    `json:"surface_version"`
	SessionID      string `json:"session_id,omitempty"`
}

// StockCommittedData 库存扣减事件数据
type StockCommittedData struct {
	OrderRef string          `json:"order_ref"`
	Items    []StockLineData `json:"items"`
}

// StockLineData 单行扣减
type StockLineData struct {
	VariantID int64  `json:"variant_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
}
