package events

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"

	"github.com/outpost-sh/outpost/pkg/log"
	"github.com/outpost-sh/outpost/pkg/metrics"
)

// sqsAPI is the slice of the SQS client the source uses
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSSource long-polls an SQS queue fed by EventBridge rules and publishes
// parsed signals into the broker. Messages are deleted after they are
// published (or found unparseable); the bounded redelivery of handler
// failures lives in the Dispatcher, not in queue visibility.
type SQSSource struct {
	client   sqsAPI
	queueURL string
	broker   *Broker
	logger   zerolog.Logger
}

// NewSQSSource creates an SQS-backed signal source.
func NewSQSSource(client sqsAPI, queueURL string, broker *Broker) *SQSSource {
	return &SQSSource{
		client:   client,
		queueURL: queueURL,
		broker:   broker,
		logger:   log.WithComponent("signal-source"),
	}
}

// Run polls until ctx is done. Receive errors are transient by
// assumption: they flip the health component, wait a beat, and try again.
func (s *SQSSource) Run(ctx context.Context) error {
	metrics.RegisterComponent("signal-source", true, "polling")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.UpdateComponent("signal-source", false, err.Error())
			s.logger.Warn().Err(err).Msg("failed to receive from queue")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}
		metrics.UpdateComponent("signal-source", true, "polling")

		for _, msg := range out.Messages {
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *SQSSource) handleMessage(ctx context.Context, msg sqstypes.Message) {
	sig, err := ParseEventBridge([]byte(aws.ToString(msg.Body)))
	if err != nil {
		// Not one of ours; drop it so it stops coming back.
		s.logger.Warn().Err(err).Msg("dropping unparseable message")
	} else {
		s.logger.Debug().
			Str("signal_id", sig.ID).
			Str("kind", string(sig.Kind)).
			Str("instance_id", sig.InstanceID).
			Msg("signal received")
		s.broker.Publish(sig)
	}

	if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		// The message will come back after the visibility timeout; the
		// handlers' idempotency absorbs the duplicate.
		s.logger.Warn().Err(err).Msg("failed to delete message, expect a duplicate")
	}
}
