package cache

import "fmt"

// 缓存键前缀
const (
	PrefixProduct     = "product:"
	PrefixSurface     = "print_surface:"
	PrefixSurfaceList = "print_surface:list"
	PrefixSession     = "customization:session:"
	PrefixIdempotency = "idempotency:"
)

// CatalogVersionKey 印刷面目录版本号，管理端写入后更新
const CatalogVersionKey = "print_surface:catalog:version"

// ProductKey 商品缓存键
func ProductKey(id int64) string {
	return fmt.Sprintf("%s%d", PrefixProduct, id)
}

// SurfaceKey 印刷面缓存键
func SurfaceKey(slug string) string {
	return PrefixSurface + "slug:" + slug
}

// SessionKey 定制会话键
func SessionKey(id string) string {
	return PrefixSession + id
}

// IdempotencyKey 幂等键
func IdempotencyKey(scope, key string) string {
	return PrefixIdempotency + scope + ":" + key
}
