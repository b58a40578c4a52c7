// Package cache 提供缓存抽象，以及 Redis、内存和空实现
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrCacheMiss 键不存在、已过期或缓存被禁用
var ErrCacheMiss = errors.New("cache miss")

// Cache 定义缓存操作接口
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryCache 内存缓存实现（用于开发和测试）
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]*memoryCacheItem
	now  func() time.Time
}

type memoryCacheItem struct {
	value      []byte
	expiration time.Time // 零值表示永不过期
}

// NewMemoryCache 创建内存缓存实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]*memoryCacheItem),
		now:  time.Now,
	}
}

// lookup 调用方需持有锁
func (m *MemoryCache) lookup(key string) (*memoryCacheItem, bool) {
	item, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if !item.expiration.IsZero() && m.now().After(item.expiration) {
		delete(m.data, key)
		return nil, false
	}
	return item, true
}

func (m *MemoryCache) store(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	item := &memoryCacheItem{value: data}
	if expiration > 0 {
		item.expiration = m.now().Add(expiration)
	}
	m.data[key] = item
	return nil
}

// Get 获取缓存值
func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	item, ok := m.lookup(key)
	m.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(item.value, dest)
}

// Set 设置缓存值
func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(key, value, expiration)
}

// Del 删除缓存值
func (m *MemoryCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// DelPrefix 删除指定前缀的全部键
func (m *MemoryCache) DelPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

// Exists 检查键是否存在
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lookup(key)
	return ok, nil
}

// SetNX 仅当键不存在时设置
func (m *MemoryCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	if err := m.store(key, value, expiration); err != nil {
		return false, err
	}
	return true, nil
}

// Ping 检查连接
func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close 关闭缓存
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]*memoryCacheItem)
	return nil
}

// NullCache 空缓存实现（禁用缓存时使用）
type NullCache struct{}

// NewNullCache 创建空缓存实例
func NewNullCache() *NullCache {
	return &NullCache{}
}

func (n *NullCache) Get(ctx context.Context, key string, dest interface{}) error {
	return ErrCacheMiss
}

func (n *NullCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (n *NullCache) Del(ctx context.Context, keys ...string) error {
	return nil
}

func (n *NullCache) DelPrefix(ctx context.Context, prefix string) error {
	return nil
}

func (n *NullCache) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

// SetNX 空缓存不记录任何键，总是返回 true
func (n *NullCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}

func (n *NullCache) Ping(ctx context.Context) error {
	return nil
}

func (n *NullCache) Close() error {
	return nil
}
