package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
)

const defaultMessageGroup = "default"

// SQSAPI is the part of *sqs.Client the queue uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSOptions tunes the pull loop.
type SQSOptions struct {
	MaxMessages int32
	WaitTime    time.Duration
}

// SQS publishes to and consumes from a FIFO queue. The ordering key is the
// message group, so messages for one record are delivered in order.
type SQS struct {
	client   SQSAPI
	queueURL string
	opts     SQSOptions
}

// NewSQS creates an SQS queue bound to queueURL.
func NewSQS(client SQSAPI, queueURL string, opts SQSOptions) *SQS {
	if opts.MaxMessages <= 0 || opts.MaxMessages > 10 {
		opts.MaxMessages = 10
	}
	if opts.WaitTime <= 0 || opts.WaitTime > 20*time.Second {
		opts.WaitTime = 20 * time.Second
	}
	return &SQS{client: client, queueURL: queueURL, opts: opts}
}

// ResolveQueueURL looks up the URL of a queue by name.
func ResolveQueueURL(ctx context.Context, client *sqs.Client, name string) (string, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to resolve queue URL for %s: %w", name, err)
	}
	return aws.ToString(out.QueueUrl), nil
}

func (q *SQS) Publish(ctx context.Context, m Message) (string, error) {
	body, err := encode(m, time.Now())
	if err != nil {
		return "", err
	}

	group := m.OrderingKey
	if group == "" {
		group = defaultMessageGroup
	}
	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:               aws.String(q.queueURL),
		MessageBody:            aws.String(string(body)),
		MessageGroupId:         aws.String(group),
		MessageDeduplicationId: aws.String(uuid.NewString()),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(m.EventType)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// Run long-polls the queue. A message is deleted only after h succeeds;
// otherwise it becomes visible again after the queue's visibility timeout.
// Once a message fails, the rest of its group in the same batch is left
// undeleted so the group is retried in order.
func (q *SQS) Run(ctx context.Context, h Handler) error {
	for {
		out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(q.queueURL),
			MaxNumberOfMessages:         q.opts.MaxMessages,
			WaitTimeSeconds:             int32(q.opts.WaitTime / time.Second),
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameMessageGroupId},
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("sqs receive failed", "error", err)
			if err := sleep(ctx, time.Second); err != nil {
				return err
			}
			continue
		}

		failed := map[string]bool{}
		for _, msg := range out.Messages {
			group := msg.Attributes[string(types.MessageSystemAttributeNameMessageGroupId)]
			if failed[group] {
				slog.Debug("sqs message deferred", "messageId", aws.ToString(msg.MessageId), "group", group)
				continue
			}
			if !q.handle(ctx, msg, h) && group != "" {
				failed[group] = true
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// handle reports whether msg was applied and deleted.
func (q *SQS) handle(ctx context.Context, msg types.Message, h Handler) bool {
	id := aws.ToString(msg.MessageId)
	env, err := decode([]byte(aws.ToString(msg.Body)))
	if err != nil {
		// undecodable messages are left for the queue's redrive policy
		slog.Error("sqs message dropped", "messageId", id, "error", err)
		return false
	}

	d := Delivery{ID: id, OrderingKey: msg.Attributes[string(types.MessageSystemAttributeNameMessageGroupId)], Envelope: env}
	if err := h(ctx, d); err != nil {
		slog.Warn("sqs message not acknowledged", "messageId", id, "eventType", env.EventType, "error", err)
		return false
	}

	_, err = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		slog.Error("sqs delete failed", "messageId", id, "error", err)
		return false
	}
	return true
}

func (q *SQS) Close() error { return nil }

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
