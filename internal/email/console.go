package email

import "go.uber.org/zap"

// consoleMailer logs instead of sending. Default when no Sendgrid key is set.
type consoleMailer struct {
	log *zap.Logger
}

func (m *consoleMailer) Send(messages ...*Message) {
	for _, msg := range messages {
		m.log.Info("email (console)",
			zap.String("to", msg.ToAddr),
			zap.String("subject", msg.Subject),
			zap.String("body", msg.Body),
		)
	}
}
