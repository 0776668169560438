package email

import (
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"classpulse/internal/config"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridMailer struct {
	key  string
	from *sgmail.Email
	log  *zap.Logger
}

func newSendgridMailer(cfg *config.Config, logger *zap.Logger) *sendgridMailer {
	return &sendgridMailer{
		key:  cfg.SendgridAPIKey,
		from: sgmail.NewEmail(cfg.EmailFromName, cfg.EmailFromAddr),
		log:  logger,
	}
}

func (m *sendgridMailer) Send(messages ...*Message) {
	for _, msg := range messages {
		msg := msg
		go m.send(msg)
	}
}

func (m *sendgridMailer) send(msg *Message) {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddr))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Body))

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	if err != nil {
		m.log.Error("sendgrid send failed", zap.String("to", msg.ToAddr), zap.Error(err))
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		m.log.Error("sendgrid send rejected",
			zap.String("to", msg.ToAddr),
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
		)
	}
}
