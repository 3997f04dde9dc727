package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Envelope is the JSON body published to the broker.
type Envelope struct {
	Channel    Channel                `json:"channel"`
	Subject    string                 `json:"subject"`
	Body       string                 `json:"body"`
	Recipient  string                 `json:"recipient,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Attributes map[string]string      `json:"attributes,omitempty"`
	SentAt     time.Time              `json:"sentAt"`
}

// AMQPNotifier publishes persistent messages to a durable queue. It dials
// per message; notification volume is low.
type AMQPNotifier struct {
	url   string
	queue string
}

func NewAMQPNotifier(url, queue string) *AMQPNotifier {
	return &AMQPNotifier{url: url, queue: queue}
}

func (n *AMQPNotifier) Name() string { return "amqp" }

func (n *AMQPNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := encodeEnvelope(msg, time.Now().UTC())
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		n.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         string(msg.Channel),
			Body:         body,
		},
	)
}

func encodeEnvelope(msg Message, at time.Time) ([]byte, error) {
	return json.Marshal(Envelope{
		Channel:    msg.Channel,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Recipient:  msg.Recipient,
		Payload:    msg.Payload,
		Attributes: msg.Attributes,
		SentAt:     at,
	})
}
