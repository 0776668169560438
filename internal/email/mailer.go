package email

import (
	"go.uber.org/zap"

	"classpulse/internal/config"
)

type Message struct {
	ToName  string
	ToAddr  string
	Subject string
	Body    string
}

// Mailer sends messages concurrently. Delivery is best-effort: failures are
// logged by the implementation and never surface to the caller.
type Mailer interface {
	Send(messages ...*Message)
}

func NewMailer(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.SendgridAPIKey == "" {
		return &consoleMailer{log: logger}
	}
	return newSendgridMailer(cfg, logger)
}
