package s3

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	envConfig "github.com/BarkinBalci/event-board-service/internal/config"
	"github.com/BarkinBalci/event-board-service/internal/media"
)

// objectAPI is the subset of the S3 client used here
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client stores event images in an S3-compatible bucket
type Client struct {
	api           objectAPI
	bucket        string
	folder        string
	publicBaseURL string
	timeout       time.Duration
	log           *zap.Logger
}

// NewClient creates a new S3 media client
func NewClient(ctx context.Context, S3Config envConfig.S3, mediaCfg envConfig.Media, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(S3Config.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			S3Config.AccessKeyID, S3Config.SecretAccessKey, "")),
	}

	var clientOpts []func(*s3.Options)

	// S3-compatible stores (MinIO, R2) need a custom endpoint
	if S3Config.Endpoint != "" {
		log.Info("Configuring S3 custom endpoint", zap.String("endpoint", S3Config.Endpoint))
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(S3Config.Endpoint)
		})
	}
	if S3Config.UsePathStyle {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("S3 media client created",
		zap.String("region", S3Config.Region),
		zap.String("bucket", S3Config.Bucket),
		zap.String("folder", mediaCfg.Folder))

	return newClient(s3.NewFromConfig(cfg, clientOpts...), S3Config, mediaCfg, log), nil
}

func newClient(api objectAPI, S3Config envConfig.S3, mediaCfg envConfig.Media, log *zap.Logger) *Client {
	return &Client{
		api:           api,
		bucket:        S3Config.Bucket,
		folder:        mediaCfg.Folder,
		publicBaseURL: strings.TrimRight(S3Config.PublicBaseURL, "/"),
		timeout:       time.Duration(mediaCfg.UploadTimeoutSec) * time.Second,
		log:           log,
	}
}

// objectKey builds <folder>/<uuid><ext>, taking the extension from the
// detected content type.
func (c *Client) objectKey(contentType string) string {
	ext := ""
	if mt := mimetype.Lookup(contentType); mt != nil {
		ext = mt.Extension()
	}
	return path.Join(c.folder, uuid.NewString()+ext)
}

// Upload puts the file under a fresh key and returns its public URL
func (c *Client) Upload(ctx context.Context, file *media.File) (*media.Stored, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := c.objectKey(contentType)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        file.Reader,
		ContentType: aws.String(contentType),
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 put %s: %w", key, err)
	}

	c.log.Info("Image uploaded to S3",
		zap.String("bucket", c.bucket),
		zap.String("key", key),
		zap.String("content_type", contentType))

	return &media.Stored{
		URL: c.publicBaseURL + "/" + key,
		Key: key,
	}, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}

	c.log.Info("Image deleted from S3", zap.String("bucket", c.bucket), zap.String("key", key))
	return nil
}
