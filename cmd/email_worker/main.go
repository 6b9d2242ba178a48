package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vplayer-account/config"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
	"github.com/oksasatya/vplayer-account/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	policy := mailer.DefaultRetryPolicy()
	worker := mailer.NewWorker(mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender), logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			c, cancelSend := context.WithTimeout(ctx, 15*time.Second)
			err := worker.Handle(c, msg.Body)
			cancelSend()
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, mailer.ErrBadJob):
				logger.WithError(err).Warn("dropping email job")
				_ = msg.Nack(false, false)
			default:
				retry(ctx, ch, msg, policy, cfg.RabbitMQEmailQueue, logger.WithError(err))
			}
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	cancel()
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// retry republishes a failed job after a backoff with its attempt count bumped,
// and dead-letters it once the policy is exhausted.
func retry(ctx context.Context, ch *amqp.Channel, msg amqp.Delivery, policy mailer.RetryPolicy, queue string, log *logrus.Entry) {
	attempt := mailer.Attempts(msg.Headers) + 1
	if policy.Exhausted(attempt) {
		log.WithField("attempts", attempt).Error("send failed; giving up on email job")
		_ = msg.Nack(false, false)
		return
	}

	delay := policy.Delay(attempt)
	log.WithFields(logrus.Fields{"attempt": attempt, "delay": delay.String()}).Warn("send failed; retrying")
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		_ = msg.Nack(false, true)
		return
	}

	err := ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.MessageId,
		Timestamp:    time.Now(),
		Headers:      mailer.RetryHeaders(msg.Headers, attempt),
		Body:         msg.Body,
	})
	if err != nil {
		log.WithError(err).Error("republish failed; requeueing")
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
