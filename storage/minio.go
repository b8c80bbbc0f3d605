// Package storage implements galleria.StorageGateway against any
// S3-compatible object-storage service using the MinIO client.
//
// One client is constructed at process start and shared by every request;
// the gateway holds no per-request state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mkells/galleria"
)

// ClientConfig holds the connection settings for the storage provider.
type ClientConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// NewClient builds the shared S3 client. It performs no network call; the
// first operation does.
func NewClient(cfg ClientConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("new storage client: endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new storage client: %w", err)
	}

	return client, nil
}

// Gateway adapts a minio.Client and a bucket to galleria.StorageGateway.
type Gateway struct {
	client *minio.Client
	bucket string
}

func NewGateway(client *minio.Client, bucket string) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("new gateway: client is required")
	}
	if bucket == "" {
		return nil, errors.New("new gateway: bucket is required")
	}

	return &Gateway{client: client, bucket: bucket}, nil
}

// List returns up to limit objects under prefix, in the provider's listing
// order. Keys are full object keys including the prefix.
func (g *Gateway) List(ctx context.Context, prefix string, limit int) ([]galleria.StorageObject, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	objects := make([]galleria.StorageObject, 0)
	for info := range g.client.ListObjects(ctx, g.bucket, opts) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, info.Err)
		}
		objects = append(objects, galleria.StorageObject{Key: info.Key, Size: info.Size})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}

	return objects, nil
}

// Upload stores content at path. size may be -1 when unknown, at the cost of
// a multipart upload.
func (g *Gateway) Upload(ctx context.Context, path string, content io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, g.bucket, path, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %q: %w", path, err)
	}

	return nil
}

// Remove issues one bulk delete for the given keys and reports per-object
// failures. The call is not transactional: the provider may remove a subset
// and fail on the rest, and the failures slice is the only record of which.
func (g *Gateway) Remove(ctx context.Context, paths []string) ([]galleria.RemoveFailure, error) {
	objectsCh := make(chan minio.ObjectInfo, len(paths))
	for _, p := range paths {
		objectsCh <- minio.ObjectInfo{Key: p}
	}
	close(objectsCh)

	var failures []galleria.RemoveFailure
	for rerr := range g.client.RemoveObjects(ctx, g.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			failures = append(failures, galleria.RemoveFailure{
				Path:    rerr.ObjectName,
				Message: rerr.Err.Error(),
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}

	return failures, nil
}

// PublicURL derives the unauthenticated read URL for a key from the client
// endpoint and bucket. Purely computational; the object need not exist.
func (g *Gateway) PublicURL(path string) string {
	u := *g.client.EndpointURL()
	return u.JoinPath(g.bucket, path).String()
}
