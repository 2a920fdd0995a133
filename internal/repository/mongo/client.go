package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/config"
)

// Client wraps the MongoDB connection
type Client struct {
	client *mongo.Client
	config *config.Mongo
	log    *zap.Logger
}

// NewClient connects to MongoDB and verifies the connection
func NewClient(ctx context.Context, config *config.Mongo, log *zap.Logger) (*Client, error) {
	timeout := time.Duration(config.ConnectTimeoutSec) * time.Second

	log.Info("Connecting to MongoDB",
		zap.String("database", config.Database),
		zap.String("collection", config.Collection),
		zap.Uint64("max_pool_size", config.MaxPoolSize))

	client, err := mongo.Connect(options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		log.Error("Failed to connect to MongoDB", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Error("Failed to ping MongoDB", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info("MongoDB connection established successfully")

	return &Client{client: client, config: config, log: log}, nil
}

// Collection returns the events collection
func (c *Client) Collection() *mongo.Collection {
	return c.client.Database(c.config.Database).Collection(c.config.Collection)
}

// Ping checks the primary is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB
func (c *Client) Close(ctx context.Context) error {
	c.log.Info("Closing MongoDB connection")
	if err := c.client.Disconnect(ctx); err != nil {
		c.log.Error("Error closing MongoDB connection", zap.Error(err))
		return err
	}
	c.log.Info("MongoDB connection closed successfully")
	return nil
}
