package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	MediaProviderCloudinary = "cloudinary"
	MediaProviderS3         = "s3"
)

// Config groups settings by prefix. Nested names come from split_words only,
// so a field is read from its prefixed variable (CLICKHOUSE_USER) and never
// from a bare one (USER).
type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	Mongo      Mongo      `envconfig:"MONGO"`
	Media      Media      `envconfig:"MEDIA"`
	Cloudinary Cloudinary `envconfig:"CLOUDINARY"`
	S3         S3         `envconfig:"S3"`
	Upload     Upload     `envconfig:"UPLOAD"`
	SQS        SQS        `envconfig:"SQS"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	Consumer   Consumer   `envconfig:"CONSUMER"`
}

type Service struct {
	Environment        string `split_words:"true" default:"development"`
	APIPort            string `split_words:"true" default:"8080"`
	Host               string `split_words:"true" default:"localhost:8080"`
	ShutdownTimeoutSec int    `split_words:"true" default:"15"`
	StreamHeartbeatSec int    `split_words:"true" default:"30"`
	StreamBufferSize   int    `split_words:"true" default:"16"`
}

type Mongo struct {
	URI               string `split_words:"true"`
	Database          string `split_words:"true" default:"heyama"`
	Collection        string `split_words:"true" default:"events"`
	MaxPoolSize       uint64 `split_words:"true" default:"20"`
	ConnectTimeoutSec int    `split_words:"true" default:"10"`
}

type Media struct {
	Provider         string `split_words:"true" default:"cloudinary"`
	Folder           string `split_words:"true" default:"heyama-events"`
	UploadTimeoutSec int    `split_words:"true" default:"60"`
}

type Cloudinary struct {
	CloudName string `split_words:"true"`
	APIKey    string `split_words:"true"`
	APISecret string `split_words:"true"`
}

type S3 struct {
	Region          string `split_words:"true" default:"eu-central-1"`
	Bucket          string `split_words:"true"`
	Endpoint        string `split_words:"true"`
	AccessKeyID     string `split_words:"true"`
	SecretAccessKey string `split_words:"true"`
	PublicBaseURL   string `split_words:"true"`
	UsePathStyle    bool   `split_words:"true" default:"false"`
}

type Upload struct {
	MaxBytes int64 `split_words:"true" default:"10485760"`
	// AllowedTypes holds MIME prefixes such as "image/"; empty accepts any type.
	AllowedTypes []string `split_words:"true"`
}

type SQS struct {
	Endpoint string `split_words:"true"`
	QueueURL string `split_words:"true"`
	Region   string `split_words:"true" default:"eu-central-1"`
}

type ClickHouse struct {
	Host               string `split_words:"true"`
	Port               string `split_words:"true" default:"9000"`
	Database           string `split_words:"true" default:"default"`
	User               string `split_words:"true" default:""`
	Password           string `split_words:"true" default:""`
	UseTLS             bool   `split_words:"true" default:"false"`
	MaxOpenConns       int    `split_words:"true" default:"5"`
	MaxIdleConns       int    `split_words:"true" default:"2"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"3600"`
}

type Consumer struct {
	BatchSizeMax    int    `split_words:"true" default:"500"`
	BatchTimeoutSec int    `split_words:"true" default:"10"`
	MaxMessages     int32  `split_words:"true" default:"10"`
	WaitTimeSec     int32  `split_words:"true" default:"20"`
	RetryBackoffSec int32  `split_words:"true" default:"15"`
	HealthCheckPort string `split_words:"true" default:"8081"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// ValidateAPI checks the settings the API process cannot start without.
func (c *Config) ValidateAPI() error {
	if c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}

	switch c.Media.Provider {
	case MediaProviderCloudinary:
		if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			return errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
		}
	case MediaProviderS3:
		if c.S3.Bucket == "" || c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			return errors.New("S3_BUCKET, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required")
		}
		if c.S3.PublicBaseURL == "" {
			return errors.New("S3_PUBLIC_BASE_URL is required")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_PROVIDER: %q (supported: %s, %s)",
			c.Media.Provider, MediaProviderCloudinary, MediaProviderS3)
	}

	return nil
}

// ValidateConsumer checks the settings the activity consumer needs.
func (c *Config) ValidateConsumer() error {
	if c.SQS.QueueURL == "" {
		return errors.New("SQS_QUEUE_URL is required")
	}
	if c.ClickHouse.Host == "" {
		return errors.New("CLICKHOUSE_HOST is required")
	}
	if c.Consumer.BatchSizeMax <= 0 || c.Consumer.BatchTimeoutSec <= 0 {
		return errors.New("CONSUMER_BATCH_SIZE_MAX and CONSUMER_BATCH_TIMEOUT_SEC must be positive")
	}
	if c.Consumer.MaxMessages < 1 || c.Consumer.MaxMessages > 10 {
		return errors.New("CONSUMER_MAX_MESSAGES must be between 1 and 10")
	}
	if c.Consumer.WaitTimeSec < 0 || c.Consumer.WaitTimeSec > 20 {
		return errors.New("CONSUMER_WAIT_TIME_SEC must be between 0 and 20")
	}
	return nil
}
