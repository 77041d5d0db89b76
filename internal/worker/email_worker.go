package worker

import (
	"context"

	"app/internal/mail"
	"app/internal/queue"

	"github.com/rs/zerolog"
)

type EmailWorker struct {
	mailer mail.Mailer
	log    zerolog.Logger
}

func NewEmailWorker(mailer mail.Mailer, log zerolog.Logger) *EmailWorker {
	return &EmailWorker{mailer: mailer, log: log}
}

func (w *EmailWorker) Handle(ctx context.Context, job queue.Job) (interface{}, error) {
	p, err := queue.DecodeEmail(job.Data)
	if err != nil {
		return nil, err
	}

	if err := w.mailer.Send(mail.Message{
		To:       p.To,
		Subject:  p.Subject,
		HTMLBody: p.HTMLBody,
	}); err != nil {
		w.log.Error().Err(err).Str("to", p.To).Msg("email send failed")
		return nil, err
	}

	w.log.Info().Str("to", p.To).Str("subject", p.Subject).Msg("email sent")
	return nil, nil
}
