package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/vplayer-account/pkg/mailer/templates"
)

// ErrBadJob marks a message that can never be delivered; it must not be requeued.
var ErrBadJob = errors.New("bad email job")

type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Worker turns queued EmailJob payloads into sent mail.
type Worker struct {
	Sender Sender
	Logger *logrus.Logger
}

func NewWorker(s Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: s, Logger: logger}
}

// Handle decodes, renders and sends one job. Errors wrapping ErrBadJob are permanent;
// any other error is a delivery failure worth retrying.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	subject, text, html, err := Build(job)
	if err != nil {
		return err
	}
	if err := w.Sender.Send(ctx, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send to %s: %w", job.To, err)
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	}
	return nil
}

// Build resolves the final subject and bodies for a job.
func Build(job EmailJob) (subject, text, html string, err error) {
	if strings.TrimSpace(job.To) == "" {
		return "", "", "", fmt.Errorf("%w: missing recipient", ErrBadJob)
	}
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return "", "", "", fmt.Errorf("%w: missing content", ErrBadJob)
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	subject, text, html, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	return subject, text, html, nil
}
