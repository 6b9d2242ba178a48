package helpers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher publishes persistent JSON messages to one durable queue.
// A closed channel or connection is reopened on the next publish.
type RabbitPublisher struct {
	mu    sync.Mutex
	url   string
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, Queue: queue}
	if err := p.open(); err != nil {
		return nil, err
	}
	return p, nil
}

// open must be called with mu held (or before p is shared).
func (p *RabbitPublisher) open() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return err
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return err
	}
	p.ch = ch
	return nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishJSON publishes body to the queue through the default exchange.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.open(); err != nil {
			return err
		}
	}
	return p.ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}
