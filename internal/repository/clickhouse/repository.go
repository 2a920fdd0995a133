package clickhouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/domain"
)

const activityTable = "event_activity"

// Repository implements ActivityRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the activity table. Redelivered SQS messages carry the
// same activity_id, so ReplacingMergeTree collapses them on merge.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS ` + activityTable + ` (
		activity_id String,
		action LowCardinality(String),
		event_id String,
		title String,
		image_key String,
		occurred_at DateTime64(3),
		processed_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY (event_id, activity_id)
	PARTITION BY toYYYYMM(occurred_at)
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", activityTable, err)
	}

	r.log.Info("ClickHouse schema initialized", zap.String("table", activityTable))
	return nil
}

// InsertBatch writes activities in a single native batch
func (r *Repository) InsertBatch(ctx context.Context, activities []*domain.Activity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO "+activityTable)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	appended := 0
	for _, activity := range activities {
		if activity.Version == 0 {
			activity.Version = uint64(time.Now().UnixNano())
		}
		if activity.ProcessedAt.IsZero() {
			activity.ProcessedAt = time.Now().UTC()
		}

		if err := batch.AppendStruct(activity); err != nil {
			return 0, fmt.Errorf("failed to append activity %s to batch: %w", activity.ActivityID, err)
		}
		appended++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return appended, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
