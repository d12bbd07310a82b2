// Package s3 talks to the S3 compatible bucket that stores uploaded images.
// Objects are served to browsers through the CDN, never directly from the
// bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

// Client wraps the minio client bound to one bucket.
type Client struct {
	client     *minio.Client
	bucket     string
	cdnBaseURL string
}

// PostOptions restricts what a browser may upload with a presigned POST.
type PostOptions struct {
	ContentTypePrefix string
	MaxBytes          int64
	Expiry            time.Duration
}

// PresignedPost is the form a browser submits straight to the bucket.
type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// NewClient builds the storage client. With ensureBucket set the bucket is
// created when missing, which only makes sense against local minio.
func NewClient(ctx context.Context, cfg config.StorageConfig, ensureBucket bool, logg *logger.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	c := &Client{
		client:     client,
		bucket:     cfg.Bucket,
		cdnBaseURL: strings.TrimRight(cfg.CDNBaseURL, "/"),
	}

	if ensureBucket {
		exists, err := client.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
				return nil, fmt.Errorf("create bucket: %w", err)
			}
			if logg != nil {
				logg.Info(ctx, "created storage bucket "+cfg.Bucket)
			}
		}
	}

	return c, nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// PublicURL returns the CDN URL that serves key.
func (c *Client) PublicURL(key string) string {
	return c.cdnBaseURL + "/" + strings.TrimLeft(key, "/")
}

// PresignPost issues a presigned POST policy for key.
func (c *Client) PresignPost(ctx context.Context, key string, opts PostOptions) (*PresignedPost, error) {
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(c.bucket); err != nil {
		return nil, fmt.Errorf("policy bucket: %w", err)
	}
	if err := policy.SetKey(key); err != nil {
		return nil, fmt.Errorf("policy key: %w", err)
	}
	if err := policy.SetExpires(time.Now().UTC().Add(opts.Expiry)); err != nil {
		return nil, fmt.Errorf("policy expiry: %w", err)
	}
	if opts.ContentTypePrefix != "" {
		if err := policy.SetContentTypeStartsWith(opts.ContentTypePrefix); err != nil {
			return nil, fmt.Errorf("policy content type: %w", err)
		}
	}
	if opts.MaxBytes > 0 {
		if err := policy.SetContentLengthRange(0, opts.MaxBytes); err != nil {
			return nil, fmt.Errorf("policy content length: %w", err)
		}
	}

	u, fields, err := c.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("presign post policy: %w", err)
	}
	return &PresignedPost{URL: u.String(), Fields: fields}, nil
}

// Put uploads size bytes from r under key.
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Ping checks the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s not found", c.bucket)
	}
	return nil
}
