package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/config"
	"github.com/BarkinBalci/event-board-service/internal/media"
)

// destroyNotFound is the result Cloudinary reports when the public ID is unknown
const destroyNotFound = "not found"

// uploadAPI is the subset of the Cloudinary upload API used here
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Client stores event images in Cloudinary
type Client struct {
	api     uploadAPI
	folder  string
	timeout time.Duration
	log     *zap.Logger
}

// NewClient configures the Cloudinary SDK once for the process
func NewClient(cfg config.Cloudinary, mediaCfg config.Media, log *zap.Logger) (*Client, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to configure Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	log.Info("Cloudinary client created",
		zap.String("cloud_name", cfg.CloudName),
		zap.String("folder", mediaCfg.Folder),
		zap.Int("upload_timeout_sec", mediaCfg.UploadTimeoutSec))

	return newClient(&cld.Upload, mediaCfg, log), nil
}

func newClient(api uploadAPI, mediaCfg config.Media, log *zap.Logger) *Client {
	return &Client{
		api:     api,
		folder:  mediaCfg.Folder,
		timeout: time.Duration(mediaCfg.UploadTimeoutSec) * time.Second,
		log:     log,
	}
}

// Upload streams the file into the configured folder, letting Cloudinary
// detect the resource type.
func (c *Client) Upload(ctx context.Context, file *media.File) (*media.Stored, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.api.Upload(ctx, file.Reader, uploader.UploadParams{
		Folder:       c.folder,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if result == nil {
		return nil, errors.New("cloudinary upload: empty result")
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	if result.SecureURL == "" || result.PublicID == "" {
		return nil, errors.New("cloudinary upload: result is missing url or public id")
	}

	c.log.Info("Image uploaded to Cloudinary",
		zap.String("public_id", result.PublicID),
		zap.String("format", result.Format),
		zap.Int("bytes", result.Bytes))

	return &media.Stored{
		URL: result.SecureURL,
		Key: result.PublicID,
	}, nil
}

// Delete destroys the asset. An unknown public ID is logged, not returned.
func (c *Client) Delete(ctx context.Context, key string) error {
	result, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", key, err)
	}
	if result == nil {
		return nil
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", key, result.Error.Message)
	}
	if result.Result == destroyNotFound {
		c.log.Warn("Cloudinary asset already gone", zap.String("public_id", key))
		return nil
	}

	c.log.Info("Image deleted from Cloudinary", zap.String("public_id", key))
	return nil
}
