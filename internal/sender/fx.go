package sender

import (
	"github.com/smallbiznis/collecta/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("sender",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) *Dispatcher {
	var email EmailSender = NoOpSender{}
	if cfg.SMTPHost != "" && cfg.SMTPUsername != "" {
		email = NewSMTP(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	var sms SMSSender = NoOpSender{}
	if cfg.SMSAPIURL != "" {
		sms = NewHTTPSMS(SMSConfig{
			APIURL: cfg.SMSAPIURL,
			APIKey: cfg.SMSAPIKey,
			Sender: cfg.SMSSender,
		})
	}

	return NewDispatcher(email, sms, cfg.SendTimeout)
}
