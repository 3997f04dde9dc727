package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNS rejects subjects over 100 characters.
const maxSubjectLen = 100

type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes each channel to its own topic. Channels without a
// topic are skipped.
type SNSNotifier struct {
	client SNSPublisher
	topics map[Channel]string
}

func NewSNSNotifier(client SNSPublisher, topics map[Channel]string) *SNSNotifier {
	return &SNSNotifier{client: client, topics: topics}
}

func (n *SNSNotifier) Name() string { return "sns" }

func (n *SNSNotifier) Notify(ctx context.Context, msg Message) error {
	topic := n.topics[msg.Channel]
	if topic == "" {
		return nil
	}
	input, err := n.publishInput(topic, msg)
	if err != nil {
		return err
	}
	_, err = n.client.Publish(ctx, input)
	return err
}

func (n *SNSNotifier) publishInput(topic string, msg Message) (*sns.PublishInput, error) {
	input := &sns.PublishInput{
		TopicArn: aws.String(topic),
		Message:  aws.String(msg.Body),
	}
	if msg.Subject != "" {
		input.Subject = aws.String(truncate(msg.Subject, maxSubjectLen))
	}

	// customer topics feed a subscriber that reads the JSON payload, while
	// email subscribers get the rendered text
	if msg.Channel == ChannelCustomer && msg.Payload != nil {
		payload, err := json.Marshal(msg.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		structured, err := json.Marshal(map[string]string{
			"default": string(payload),
			"email":   msg.Body,
		})
		if err != nil {
			return nil, err
		}
		input.Message = aws.String(string(structured))
		input.MessageStructure = aws.String("json")
	}

	if len(msg.Attributes) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(msg.Attributes))
		for k, v := range msg.Attributes {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}
	return input, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
