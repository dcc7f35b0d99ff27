package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ventionteams/medfast-credentials/internal/common/clock"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type outboundMail struct {
	Kind string `json:"kind"`
	renderedMail
}

// AMQPSender hands rendered mail to a durable queue; a relay process owns
// the actual SMTP conversation.
type AMQPSender struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    publisher
	queue string
	clock clock.Clock
	log   *logger.Logger
}

func NewAMQPSender(url, queue string, clock clock.Clock, log *logger.Logger) (*AMQPSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	log.Infof("mail outbox bound to queue %s", queue)
	return &AMQPSender{conn: conn, ch: ch, queue: queue, clock: clock, log: log}, nil
}

func (s *AMQPSender) SendVerification(ctx context.Context, msg VerificationMessage) error {
	mail, err := renderVerification(msg)
	if err != nil {
		return err
	}
	return s.publish(ctx, "verification", mail)
}

func (s *AMQPSender) SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error {
	mail, err := renderPasswordReset(msg)
	if err != nil {
		return err
	}
	return s.publish(ctx, "password_reset", mail)
}

func (s *AMQPSender) publish(ctx context.Context, kind string, mail renderedMail) error {
	body, err := json.Marshal(outboundMail{Kind: kind, renderedMail: mail})
	if err != nil {
		return Permanent(fmt.Errorf("marshal mail: %w", err))
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    s.clock.Now().UTC(),
		Type:         kind,
		Body:         body,
	}

	s.mu.Lock()
	err = s.ch.PublishWithContext(ctx, "", s.queue, false, false, pub)
	s.mu.Unlock()
	if err != nil {
		return Transient(fmt.Errorf("rabbitmq publish: %w", err))
	}
	return nil
}

func (s *AMQPSender) Close() error {
	if s.conn == nil {
		return nil
	}
	if closer, ok := s.ch.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	return s.conn.Close()
}
