package domain

import (
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
)

// Override keys recognized in ScheduledStep.Overrides.
const (
	OverrideEmailSubject = "email_subject"
	OverrideEmailBody    = "email_body"
	OverrideSMSBody      = "sms_body"
)

// Content is the message material for one step after merging template
// and overrides.
type Content struct {
	EmailSubject string
	EmailBody    string
	SMSBody      string
}

// EffectiveContent merges a scheduled step's overrides over its template
// step. A non-empty override wins field by field; everything else comes
// from the template.
func EffectiveContent(step ScheduledStep, template sequencedomain.Step) Content {
	content := Content{
		EmailSubject: template.EmailSubject,
		EmailBody:    template.EmailBody,
		SMSBody:      template.SMSBody,
	}
	if v, ok := step.Overrides[OverrideEmailSubject].(string); ok && v != "" {
		content.EmailSubject = v
	}
	if v, ok := step.Overrides[OverrideEmailBody].(string); ok && v != "" {
		content.EmailBody = v
	}
	if v, ok := step.Overrides[OverrideSMSBody].(string); ok && v != "" {
		content.SMSBody = v
	}
	return content
}
