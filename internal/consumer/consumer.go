package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/config"
	"github.com/BarkinBalci/event-board-service/internal/queue"
	"github.com/BarkinBalci/event-board-service/internal/repository"
)

// stageBuffer is the capacity of the channels between pipeline stages
const stageBuffer = 100

// Consumer drains the activity queue into the activity log. Three stages run
// concurrently: receive, parse, batch write.
type Consumer struct {
	receiver    *Receiver
	parser      *ParserStage
	batchWriter *BatchWriter
	log         *zap.Logger
}

// NewConsumer wires the pipeline from the consumer settings
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, repo repository.ActivityRepository, log *zap.Logger) *Consumer {
	settings := cfg.Consumer

	return &Consumer{
		receiver: NewReceiver(queueConsumer, ReceiverConfig{
			MaxMessages:     settings.MaxMessages,
			WaitTimeSeconds: settings.WaitTimeSec,
		}, log),
		parser: NewParserStage(queueConsumer, NewJSONActivityParser(),
			time.Duration(settings.RetryBackoffSec)*time.Second, log),
		batchWriter: NewBatchWriter(repo, BatchWriterConfig{
			MaxBatchSize: settings.BatchSizeMax,
			FlushTimeout: time.Duration(settings.BatchTimeoutSec) * time.Second,
		}, log),
		log: log,
	}
}

// Start runs the pipeline and returns after ctx is cancelled and every
// stage, including the final batch flush, has finished
func (c *Consumer) Start(ctx context.Context) error {
	messages := make(chan types.Message, stageBuffer)
	envelopes := make(chan *Envelope, stageBuffer)

	var wg sync.WaitGroup
	run := func(stage func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stage()
		}()
	}

	run(func() { c.receiver.Start(ctx, messages) })
	run(func() { c.parser.Start(ctx, messages, envelopes) })
	run(func() { c.batchWriter.Start(ctx, envelopes) })

	c.log.Info("Consumer pipeline running")
	wg.Wait()
	c.log.Info("Consumer pipeline stopped")

	return nil
}
