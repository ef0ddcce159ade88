package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"platewatch/internal/types"
)

// sqsAPI is the subset of the SQS SDK client used by the publisher.
type sqsAPI interface {
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// Publisher sends alert messages to the alert queue for the alert worker.
// Batches are chunked to the SQS maximum of 10 entries per API call.
type Publisher struct {
	client   sqsAPI
	queueURL string
	logger   *slog.Logger
}

// NewPublisher creates a Publisher for the given queue.
func NewPublisher(client *sqs.Client, queueURL string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, queueURL: queueURL, logger: logger}
}

// Publish sends a single alert message.
func (p *Publisher) Publish(ctx context.Context, msg *types.AlertMessage) error {
	return p.PublishBatch(ctx, []*types.AlertMessage{msg})
}

// PublishBatch sends alert messages in chunks of 10, respecting context
// cancellation between chunks so a Lambda timeout aborts cleanly.
func (p *Publisher) PublishBatch(ctx context.Context, messages []*types.AlertMessage) error {
	const maxBatchSize = 10

	for i := 0; i < len(messages); i += maxBatchSize {
		select {
		case <-ctx.Done():
			return types.NewAppError(types.ErrCodeUpstreamQueue,
				"context cancelled during alert publish", ctx.Err())
		default:
		}

		end := i + maxBatchSize
		if end > len(messages) {
			end = len(messages)
		}

		chunk := messages[i:end]
		entries := make([]sqsTypes.SendMessageBatchRequestEntry, len(chunk))
		for j, msg := range chunk {
			body, err := json.Marshal(msg)
			if err != nil {
				return types.NewAppError(types.ErrCodeInternalUnexpected,
					"failed to marshal alert message", err)
			}
			entries[j] = sqsTypes.SendMessageBatchRequestEntry{
				Id:          aws.String(fmt.Sprintf("alert-%d", i+j)),
				MessageBody: aws.String(string(body)),
			}
		}

		out, err := p.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(p.queueURL),
			Entries:  entries,
		})
		if err != nil {
			return types.NewAppError(types.ErrCodeUpstreamQueue,
				"failed to send alert batch", err)
		}

		if len(out.Failed) > 0 {
			for _, f := range out.Failed {
				p.logger.Error("alert message rejected by queue",
					"entry_id", aws.ToString(f.Id),
					"code", aws.ToString(f.Code),
					"message", aws.ToString(f.Message),
				)
			}
			return types.NewAppErrorWithDetails(types.ErrCodeUpstreamQueue,
				fmt.Sprintf("%d alert messages failed to enqueue", len(out.Failed)), nil,
				map[string]any{"failed": len(out.Failed)})
		}
	}

	return nil
}
