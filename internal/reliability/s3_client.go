// Package reliability manages database backups: snapshotting the SQLite
// files, archiving them and uploading the archive to S3-compatible
// object storage.
package reliability

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3ClientConfig holds connection settings for the backup bucket
type S3ClientConfig struct {
	Bucket    string
	Region    string
	Endpoint  string // Optional; set for R2, MinIO and other S3-compatible stores
	Prefix    string // Key prefix inside the bucket
	AccessKey string // Optional static credentials; default AWS chain when empty
	SecretKey string
}

// S3Client wraps the AWS SDK client for backup uploads
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Client creates a client for the configured backup bucket
func NewS3Client(ctx context.Context, cfg S3ClientConfig, log zerolog.Logger) (*S3Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3-compatible stores typically do not support virtual-hosted buckets
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		log:      log.With().Str("component", "s3_client").Logger(),
	}, nil
}

// key prepends the configured prefix to an object name
func (c *S3Client) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

// Upload streams an object to the bucket
func (c *S3Client) Upload(ctx context.Context, name string, body io.Reader) error {
	key := c.key(name)

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	c.log.Debug().Str("key", key).Msg("Object uploaded")
	return nil
}

// List returns all objects whose name starts with the given prefix
func (c *S3Client) List(ctx context.Context, namePrefix string) ([]types.Object, error) {
	var objects []types.Object

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.key(namePrefix)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		objects = append(objects, page.Contents...)
	}

	return objects, nil
}

// Delete removes an object from the bucket
func (c *S3Client) Delete(ctx context.Context, name string) error {
	key := c.key(name)

	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	c.log.Debug().Str("key", key).Msg("Object deleted")
	return nil
}
