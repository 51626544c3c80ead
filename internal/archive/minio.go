// Package archive uploads generated reports to S3-compatible storage
package archive

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/jjenkins/motreport/internal/config"
)

const presignExpiry = 24 * time.Hour

// Archive stores report PDFs in a bucket
type Archive struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinIOArchive creates an archive backed by an S3-compatible endpoint
func NewMinIOArchive(cfg config.S3Config, logger *zap.Logger) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Archive{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.Named("archive"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		a.logger.Info("Bucket does not exist, creating", zap.String("bucket", a.bucket))
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ObjectKey returns the key a report is stored under
func ObjectKey(registration, lookupID string) string {
	return path.Join("reports", registration, lookupID+".pdf")
}

// Upload stores a report and returns a presigned download URL
func (a *Archive) Upload(ctx context.Context, key string, r io.Reader, size int64) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))

	presignedURL, err := a.client.PresignedGetObject(ctx, a.bucket, key, presignExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}

	a.logger.Info("Report archived", zap.String("bucket", a.bucket), zap.String("key", key))
	return presignedURL.String(), nil
}
