package consumer

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/queue"
)

// maxVisibilityTimeout is the SQS upper bound for a message visibility timeout
const maxVisibilityTimeout = 12 * time.Hour

// ParserStage turns raw SQS messages into activity envelopes
type ParserStage struct {
	consumer     queue.QueueConsumer
	parser       MessageParser
	retryBackoff time.Duration
	log          *zap.Logger
}

// NewParserStage creates a new parser stage. A nacked message becomes visible
// again after retryBackoff multiplied by its receive count.
func NewParserStage(consumer queue.QueueConsumer, parser MessageParser, retryBackoff time.Duration, log *zap.Logger) *ParserStage {
	return &ParserStage{
		consumer:     consumer,
		parser:       parser,
		retryBackoff: retryBackoff,
		log:          log,
	}
}

// Start parses until in is closed or ctx is cancelled, then closes out
func (p *ParserStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		var msg types.Message
		select {
		case <-ctx.Done():
			p.log.Info("Parser stage shutting down")
			return
		case m, ok := <-in:
			if !ok {
				p.log.Info("Parser stage input channel closed")
				return
			}
			msg = m
		}

		envelope := p.envelope(ctx, msg)
		if envelope == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- envelope:
		}
	}
}

// envelope returns nil for a message that cannot be parsed. Such messages are
// deleted right away since redelivery cannot fix them.
func (p *ParserStage) envelope(ctx context.Context, msg types.Message) *Envelope {
	messageID := aws.ToString(msg.MessageId)

	activity, err := p.parser.Parse([]byte(aws.ToString(msg.Body)))
	if err != nil {
		p.log.Warn("Discarding malformed message",
			zap.String("message_id", messageID),
			zap.Error(err))
		_ = p.deleteMessage(ctx, msg)
		return nil
	}

	attempt := receiveCount(msg)

	return NewEnvelope(messageID, attempt, activity,
		func(ctx context.Context) error {
			return p.deleteMessage(ctx, msg)
		},
		func(ctx context.Context) error {
			return p.retryLater(ctx, msg, attempt)
		},
	)
}

func (p *ParserStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := p.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		p.log.Error("Failed to delete message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		return err
	}
	return nil
}

func (p *ParserStage) retryLater(ctx context.Context, msg types.Message, attempt int) error {
	delay := p.retryBackoff * time.Duration(attempt)
	if delay > maxVisibilityTimeout {
		delay = maxVisibilityTimeout
	}

	_, err := p.consumer.ChangeMessageVisibility(ctx, &awssqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(p.consumer.QueueURL()),
		ReceiptHandle:     msg.ReceiptHandle,
		VisibilityTimeout: int32(delay / time.Second),
	})
	if err != nil {
		p.log.Error("Failed to reschedule message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}
	return nil
}

// receiveCount reads ApproximateReceiveCount, defaulting to 1
func receiveCount(msg types.Message) int {
	raw := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
