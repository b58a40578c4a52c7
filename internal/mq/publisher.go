package mq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPublisherClosed 发布器已关闭
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}

// NopPublisher 未配置消息队列时使用
type NopPublisher struct{}

// Publish 丢弃消息
func (NopPublisher) Publish(ctx context.Context, msg *Message) error { return nil }

// Close 无需释放资源
func (NopPublisher) Close() error { return nil }

// publishChannel 发布所需的通道操作
type publishChannel interface {
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
}

// dialFunc 建立连接与开启确认模式的通道
type dialFunc func(cfg *Config) (io.Closer, publishChannel, error)

// AMQPPublisher 基于 RabbitMQ 的事件发布器
// 通道在发布失败后丢弃，下次发布时重新建立连接
type AMQPPublisher struct {
	config *Config
	logger *zap.Logger
	dial   dialFunc

	mutex   sync.Mutex
	conn    io.Closer
	channel publishChannel
	closed  bool
}

// NewAMQPPublisher 连接 RabbitMQ 并声明交换机
func NewAMQPPublisher(cfg Config, logger *zap.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(cfg, dialBroker, logger)
}

func newAMQPPublisher(cfg Config, dial dialFunc, logger *zap.Logger) (*AMQPPublisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mq config: %w", err)
	}
	cfg.setDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &AMQPPublisher{config: &cfg, logger: logger, dial: dial}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, err := p.ensureChannel(); err != nil {
		return nil, err
	}
	return p, nil
}

// dialBroker 建立连接、声明 topic 交换机并开启发布确认
func dialBroker(cfg *Config) (io.Closer, publishChannel, error) {
	conn, err := amqp.DialConfig(cfg.GetConnectionURL(), amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to set confirm mode: %w", err)
	}
	return conn, ch, nil
}

// ensureChannel 调用方需持有锁
func (p *AMQPPublisher) ensureChannel() (publishChannel, error) {
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.channel != nil {
		return p.channel, nil
	}

	p.logger.Info("连接RabbitMQ", zap.String("url", p.config.redactedURL()))
	conn, ch, err := p.dial(p.config)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	p.channel = ch
	p.logger.Info("RabbitMQ连接成功", zap.String("exchange", p.config.Exchange))
	return ch, nil
}

// resetLocked 丢弃失效的连接，调用方需持有锁
func (p *AMQPPublisher) resetLocked() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn = nil
	p.channel = nil
}

// Publish 发布消息并等待 broker 确认，失败时按配置重试
func (p *AMQPPublisher) Publish(ctx context.Context, msg *Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return err
	}
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         string(msg.Type),
		AppId:        msg.Source,
		Body:         body,
	}

	maxAttempts := p.config.MaxRetryAttempts + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = p.publishOnce(ctx, msg.RoutingKey(), publishing)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrPublisherClosed) {
			return lastErr
		}

		p.logger.Warn("消息发布失败",
			zap.String("message_id", msg.ID),
			zap.String("routing_key", msg.RoutingKey()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(lastErr))

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(p.config.RetryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed to publish message after %d attempts: %w", maxAttempts, lastErr)
}

func (p *AMQPPublisher) publishOnce(ctx context.Context, routingKey string, publishing amqp.Publishing) error {
	// 同一通道上的发布与确认需要串行
	p.mutex.Lock()
	defer p.mutex.Unlock()

	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	confirm, err := ch.PublishWithDeferredConfirmWithContext(publishCtx, p.config.Exchange, routingKey, false, false, publishing)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("failed to publish message: %w", err)
	}
	if confirm == nil {
		return nil
	}

	confirmCtx, cancelConfirm := context.WithTimeout(ctx, p.config.ConfirmTimeout)
	defer cancelConfirm()
	ack, err := confirm.WaitContext(confirmCtx)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish confirmation failed: %w", err)
	}
	if !ack {
		return fmt.Errorf("message was nacked by broker")
	}
	return nil
}

// Close 关闭连接
func (p *AMQPPublisher) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	p.logger.Info("关闭RabbitMQ连接")
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn = nil
	p.channel = nil
	return err
}
