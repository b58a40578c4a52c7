// Package storage 对接对象存储，把顾客的临时上传转存为永久可访问的设计图片。
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrUploadNotFound 临时上传不存在或已过期
var ErrUploadNotFound = errors.New("upload not found")

// ResolvedImage 转存后的图片引用
type ResolvedImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// ImageStore 对象存储协作者
type ImageStore interface {
	// Resolve 将临时上传转存到永久路径，返回永久地址与稳定标识
	Resolve(ctx context.Context, uploadKey string) (*ResolvedImage, error)
	Close() error
}

// objectAttrs 与 GCS 对象属性对应的最小集合
type objectAttrs struct {
	Name       string
	Size       int64
	Generation int64
	Metadata   map[string]string
}

// objectBucket 对单个 bucket 的对象操作
type objectBucket interface {
	Name() string
	Attrs(ctx context.Context, object string) (*objectAttrs, error)
	Copy(ctx context.Context, src, dst string) (*objectAttrs, error)
}

// GCSOptions GCS 存储配置
type GCSOptions struct {
	Bucket          string
	PublicBaseURL   string // 为空时使用 https://storage.googleapis.com
	CredentialsFile string
	UploadPrefix    string // 临时上传目录
	DesignPrefix    string // 永久设计目录
}

// GCSImageStore 基于 Google Cloud Storage 的实现
type GCSImageStore struct {
	client        *gcs.Client
	bucket        objectBucket
	publicBaseURL string
	uploadPrefix  string
	designPrefix  string
}

// NewGCSImageStore 创建 GCS 客户端
func NewGCSImageStore(ctx context.Context, opts GCSOptions) (*GCSImageStore, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("storage: bucket is empty")
	}
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs.NewClient failed: %w", err)
	}
	store := newImageStore(&gcsBucket{handle: client.Bucket(opts.Bucket), name: opts.Bucket}, opts)
	store.client = client
	return store, nil
}

func newImageStore(b objectBucket, opts GCSOptions) *GCSImageStore {
	base := strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + b.Name()
	}
	uploadPrefix := opts.UploadPrefix
	if uploadPrefix == "" {
		uploadPrefix = "uploads/"
	}
	designPrefix := opts.DesignPrefix
	if designPrefix == "" {
		designPrefix = "designs/"
	}
	return &GCSImageStore{
		bucket:        b,
		publicBaseURL: base,
		uploadPrefix:  uploadPrefix,
		designPrefix:  designPrefix,
	}
}

// Resolve 读取临时上传的属性；位于上传目录下的对象复制到设计目录后再返回
func (s *GCSImageStore) Resolve(ctx context.Context, uploadKey string) (*ResolvedImage, error) {
	key := strings.TrimLeft(strings.TrimSpace(uploadKey), "/")
	if key == "" || strings.Contains(key, "..") {
		return nil, fmt.Errorf("storage: invalid upload key %q", uploadKey)
	}

	attrs, err := s.bucket.Attrs(ctx, key)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(key, s.uploadPrefix) {
		dst := s.designPrefix + strings.TrimPrefix(key, s.uploadPrefix)
		attrs, err = s.bucket.Copy(ctx, key, dst)
		if err != nil {
			return nil, err
		}
	}

	fileName := attrs.Metadata["fileName"]
	if fileName == "" {
		fileName = path.Base(attrs.Name)
	}
	return &ResolvedImage{
		URL:      s.publicURL(attrs.Name),
		PublicID: fmt.Sprintf("%s/%s#%d", s.bucket.Name(), attrs.Name, attrs.Generation),
		FileName: fileName,
		Size:     attrs.Size,
	}, nil
}

func (s *GCSImageStore) publicURL(object string) string {
	parts := strings.Split(object, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.publicBaseURL + "/" + strings.Join(parts, "/")
}

// Close 关闭客户端
func (s *GCSImageStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// gcsBucket 以 BucketHandle 实现 objectBucket
type gcsBucket struct {
	handle *gcs.BucketHandle
	name   string
}

func (b *gcsBucket) Name() string {
	return b.name
}

func (b *gcsBucket) Attrs(ctx context.Context, object string) (*objectAttrs, error) {
	a, err := b.handle.Object(object).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, object)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read attrs of %s: %w", object, err)
	}
	return fromGCS(a), nil
}

func (b *gcsBucket) Copy(ctx context.Context, src, dst string) (*objectAttrs, error) {
	a, err := b.handle.Object(dst).CopierFrom(b.handle.Object(src)).Run(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, src)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: copy %s to %s: %w", src, dst, err)
	}
	return fromGCS(a), nil
}

func fromGCS(a *gcs.ObjectAttrs) *objectAttrs {
	return &objectAttrs{
		Name:       a.Name,
		Size:       a.Size,
		Generation: a.Generation,
		Metadata:   a.Metadata,
	}
}
