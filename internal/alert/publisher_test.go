package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platewatch/internal/types"
)

type mockSQS struct {
	batches [][]sqsTypes.SendMessageBatchRequestEntry
	err     error
	failed  []sqsTypes.BatchResultErrorEntry
}

func (m *mockSQS) SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	m.batches = append(m.batches, params.Entries)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageBatchOutput{Failed: m.failed}, nil
}

func testPublisher(client sqsAPI) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: "https://sqs.us-east-2.amazonaws.com/123/alerts",
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func alertMessages(n int) []*types.AlertMessage {
	msgs := make([]*types.AlertMessage, n)
	for i := range msgs {
		msgs[i] = &types.AlertMessage{
			DetectionID: "det",
			Plate:       "ABC123",
			Action:      types.ActionAutoAlertPrimary,
			Score:       100,
		}
	}
	return msgs
}

func TestPublishSingle(t *testing.T) {
	mock := &mockSQS{}
	p := testPublisher(mock)

	msg := alertMessages(1)[0]
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, mock.batches, 1)
	require.Len(t, mock.batches[0], 1)

	var sent types.AlertMessage
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(mock.batches[0][0].MessageBody)), &sent))
	assert.Equal(t, "ABC123", sent.Plate)
	assert.Equal(t, types.ActionAutoAlertPrimary, sent.Action)
}

func TestPublishBatchChunksAtTen(t *testing.T) {
	mock := &mockSQS{}
	p := testPublisher(mock)

	require.NoError(t, p.PublishBatch(context.Background(), alertMessages(23)))

	require.Len(t, mock.batches, 3)
	assert.Len(t, mock.batches[0], 10)
	assert.Len(t, mock.batches[1], 10)
	assert.Len(t, mock.batches[2], 3)
}

func TestPublishBatchSendError(t *testing.T) {
	mock := &mockSQS{err: errors.New("sqs down")}
	p := testPublisher(mock)

	err := p.PublishBatch(context.Background(), alertMessages(1))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamQueue, appErr.Code)
}

func TestPublishBatchPartialRejection(t *testing.T) {
	mock := &mockSQS{failed: []sqsTypes.BatchResultErrorEntry{
		{Id: aws.String("alert-0"), Code: aws.String("InternalError")},
	}}
	p := testPublisher(mock)

	err := p.PublishBatch(context.Background(), alertMessages(2))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamQueue, appErr.Code)
	assert.Equal(t, 1, appErr.Details["failed"])
}

func TestPublishBatchRespectsCancelledContext(t *testing.T) {
	mock := &mockSQS{}
	p := testPublisher(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.PublishBatch(ctx, alertMessages(1))
	require.Error(t, err)
	assert.Empty(t, mock.batches)
}
