package sync

import (
	"context"
	"encoding/json"

	"github.com/streadway/amqp"
)

// AMQPTransport implements DeltaTransport over a durable queue per target
// agent. It uses basic.get rather than a long-lived consumer so it can
// satisfy the same call-and-return DeltaTransport shape as
// InProcessTransport/RedisTransport; agents polling at detection-loop
// cadence don't need push delivery.
type AMQPTransport struct {
	channel      *amqp.Channel
	queuePrefix  string
}

// NewAMQPTransport returns a transport over channel, namespacing queue
// names under queuePrefix.
func NewAMQPTransport(channel *amqp.Channel, queuePrefix string) *AMQPTransport {
	return &AMQPTransport{channel: channel, queuePrefix: queuePrefix}
}

func (t *AMQPTransport) queueName(targetAgent string) string {
	return t.queuePrefix + targetAgent
}

func (t *AMQPTransport) ensureQueue(targetAgent string) error {
	_, err := t.channel.QueueDeclare(t.queueName(targetAgent), true, false, false, false, nil)
	return err
}

func (t *AMQPTransport) Enqueue(_ context.Context, targetAgent string, delta Delta) error {
	if err := t.ensureQueue(targetAgent); err != nil {
		return err
	}
	b, err := json.Marshal(delta)
	if err != nil {
		return err
	}
	return t.channel.Publish("", t.queueName(targetAgent), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
}

func (t *AMQPTransport) Dequeue(_ context.Context, targetAgent string) (Delta, bool, error) {
	if err := t.ensureQueue(targetAgent); err != nil {
		return Delta{}, false, err
	}
	msg, ok, err := t.channel.Get(t.queueName(targetAgent), true)
	if err != nil || !ok {
		return Delta{}, false, err
	}
	var d Delta
	if err := json.Unmarshal(msg.Body, &d); err != nil {
		return Delta{}, false, err
	}
	return d, true, nil
}

// Requeue republishes delta to targetAgent's queue. AMQP has no way to
// insert at the head of a queue, so unlike the in-process and Redis
// transports the delta goes to the tail, behind anything enqueued since.
func (t *AMQPTransport) Requeue(ctx context.Context, targetAgent string, delta Delta) error {
	return t.Enqueue(ctx, targetAgent, delta)
}
