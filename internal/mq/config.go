// Package mq 将定制领域事件发布到 RabbitMQ
package mq

import (
	"fmt"
	"net/url"
	"time"
)

// Config RabbitMQ配置
type Config struct {
	// 连接配置
	Host     string
	Port     int
	Username string
	Password string
	VHost    string

	// 事件发往的 topic 交换机
	Exchange string

	// 发布配置
	PublishTimeout   time.Duration
	ConfirmTimeout   time.Duration
	MaxRetryAttempts int
	RetryInterval    time.Duration
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Exchange == "" {
		return fmt.Errorf("exchange is required")
	}
	if c.MaxRetryAttempts < 0 {
		return fmt.Errorf("max retry attempts cannot be negative")
	}
	return nil
}

// setDefaults 补齐未配置的超时
func (c *Config) setDefaults() {
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = 5 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 200 * time.Millisecond
	}
}

// GetConnectionURL 获取连接URL
func (c *Config) GetConnectionURL() string {
	u := url.URL{
		Scheme: "amqp",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.VHost,
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

// redactedURL 日志中使用的连接地址
func (c *Config) redactedURL() string {
	return fmt.Sprintf("amqp://%s:%d/%s", c.Host, c.Port, c.VHost)
}
