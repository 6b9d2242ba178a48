package mailer

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AttemptsHeader counts how many times a job has failed to send.
const AttemptsHeader = "x-send-attempts"

// RetryPolicy spaces out redeliveries of jobs whose send failed and gives up
// after MaxAttempts failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

// Delay doubles from BaseDelay per failed attempt, capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}

// Attempts reads the failure count carried on a delivery; absent or malformed means zero.
func Attempts(h amqp.Table) int {
	switch v := h[AttemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// RetryHeaders copies h and records one more failed attempt.
func RetryHeaders(h amqp.Table, attempt int) amqp.Table {
	out := make(amqp.Table, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	out[AttemptsHeader] = int32(attempt)
	return out
}
