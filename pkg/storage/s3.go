// Package storage archives uploaded and exported reports in S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

// Archive folders.
const (
	KindUpload = "uploads"
	KindExport = "exports"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archive struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Archive builds an archive for cfg.Bucket. Static credentials and a
// custom endpoint are used when configured, otherwise the default AWS chain.
func NewS3Archive(ctx context.Context, cfg environments.S3Config) (*Archive, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Infof("Report archive enabled (bucket %s, prefix %s)", cfg.Bucket, cfg.Prefix)

	return newArchive(client, cfg.Bucket, cfg.Prefix), nil
}

func newArchive(client objectPutter, bucket, prefix string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Put stores data under prefix/kind/yyyy/mm/dd/fileName and returns the key.
func (a *Archive) Put(ctx context.Context, kind, fileName, contentType string, data []byte) (string, error) {
	key := path.Join(a.prefix, kind, a.now().Format("2006/01/02"), fileName)
	body := bytes.NewReader(data)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(body.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}

	logger.Infof("Archived %s (%d bytes) to s3://%s/%s", fileName, len(data), a.bucket, key)

	return key, nil
}
