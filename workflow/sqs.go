package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/brewcraft/restaurant-backend/utils"
)

type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSStarter struct {
	client   SQSAPI
	queueURL string
}

func NewSQSStarter(client SQSAPI, queueURL string) *SQSStarter {
	return &SQSStarter{client: client, queueURL: queueURL}
}

func (s *SQSStarter) Start(ctx context.Context, req ContactRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	exec := newExecution(req)
	body, err := json.Marshal(exec)
	if err != nil {
		return "", err
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"workflow": {DataType: aws.String("String"), StringValue: aws.String("contact")},
		},
	})
	if err != nil {
		return "", err
	}
	return exec.ExecutionID, nil
}

// ContactWorker long-polls the contact queue.
type ContactWorker struct {
	client   SQSAPI
	queueURL string
	sender   Sender
	// RetryDelay is the pause after a failed receive.
	RetryDelay time.Duration
}

func NewContactWorker(client SQSAPI, queueURL string, sender Sender) *ContactWorker {
	return &ContactWorker{client: client, queueURL: queueURL, sender: sender, RetryDelay: 5 * time.Second}
}

// Run polls until ctx is cancelled.
func (w *ContactWorker) Run(ctx context.Context) {
	utils.InfoLogger.Printf("contact worker: listening on %s", w.queueURL)
	for {
		if ctx.Err() != nil {
			return
		}
		if err := w.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			utils.ErrorLogger.Printf("contact worker: receive failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.RetryDelay):
			}
		}
	}
}

// PollOnce receives one batch and handles it. Messages that succeed or can
// never succeed are deleted; the rest return to the queue.
func (w *ContactWorker) PollOnce(ctx context.Context) error {
	out, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.queueURL),
		WaitTimeSeconds:     20,
		MaxNumberOfMessages: 10,
	})
	if err != nil {
		return err
	}

	for _, m := range out.Messages {
		err := ProcessContact(ctx, w.sender, []byte(aws.ToString(m.Body)))
		var verr *ValidationError
		if err != nil && !errors.As(err, &verr) {
			utils.ErrorLogger.Printf("contact worker: message %s will be retried: %v", aws.ToString(m.MessageId), err)
			continue
		}
		if verr != nil {
			utils.ErrorLogger.Printf("contact worker: dropping message %s: %v", aws.ToString(m.MessageId), verr)
		}
		if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(w.queueURL),
			ReceiptHandle: m.ReceiptHandle,
		}); err != nil {
			utils.ErrorLogger.Printf("contact worker: delete %s: %v", aws.ToString(m.MessageId), err)
		}
	}
	return nil
}
