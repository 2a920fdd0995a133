package consumer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/queue"
)

// ReceiverConfig configures the SQS receiver
type ReceiverConfig struct {
	MaxMessages     int32
	WaitTimeSeconds int32
	RetryDelay      time.Duration
}

// Receiver long-polls the activity queue and forwards raw messages
type Receiver struct {
	consumer queue.QueueConsumer
	config   ReceiverConfig
	log      *zap.Logger
}

// NewReceiver creates a new SQS receiver
func NewReceiver(consumer queue.QueueConsumer, config ReceiverConfig, log *zap.Logger) *Receiver {
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	return &Receiver{
		consumer: consumer,
		config:   config,
		log:      log,
	}
}

// Start polls until ctx is cancelled, then closes out
func (r *Receiver) Start(ctx context.Context, out chan<- types.Message) {
	defer close(out)

	for ctx.Err() == nil {
		messages, err := r.poll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.log.Error("Error receiving messages from SQS", zap.Error(err))
				r.pause(ctx)
			}
			continue
		}

		if !r.forward(ctx, out, messages) {
			break
		}
	}

	r.log.Info("Receiver shutting down")
}

func (r *Receiver) poll(ctx context.Context) ([]types.Message, error) {
	result, err := r.consumer.ReceiveMessages(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.consumer.QueueURL()),
		MaxNumberOfMessages: r.config.MaxMessages,
		WaitTimeSeconds:     r.config.WaitTimeSeconds,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, err
	}

	if len(result.Messages) > 0 {
		r.log.Debug("Received messages from SQS", zap.Int("message_count", len(result.Messages)))
	}
	return result.Messages, nil
}

// forward reports false when ctx ended before every message was handed on
func (r *Receiver) forward(ctx context.Context, out chan<- types.Message, messages []types.Message) bool {
	for _, msg := range messages {
		select {
		case <-ctx.Done():
			return false
		case out <- msg:
		}
	}
	return true
}

func (r *Receiver) pause(ctx context.Context) {
	timer := time.NewTimer(r.config.RetryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
