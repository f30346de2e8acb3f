package domain

import (
	"testing"

	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestEffectiveContent(t *testing.T) {
	template := sequencedomain.Step{
		EmailSubject: "Invoice {{invoice_number}}",
		EmailBody:    "Please pay {{amount}}.",
		SMSBody:      "Pay {{amount}} now.",
	}

	tests := []struct {
		name      string
		overrides datatypes.JSONMap
		want      Content
	}{
		{
			name:      "no overrides falls back to template",
			overrides: nil,
			want: Content{
				EmailSubject: "Invoice {{invoice_number}}",
				EmailBody:    "Please pay {{amount}}.",
				SMSBody:      "Pay {{amount}} now.",
			},
		},
		{
			name: "override wins per field",
			overrides: datatypes.JSONMap{
				OverrideEmailSubject: "Final notice {{invoice_number}}",
				OverrideSMSBody:      "Last chance: {{amount}}.",
			},
			want: Content{
				EmailSubject: "Final notice {{invoice_number}}",
				EmailBody:    "Please pay {{amount}}.",
				SMSBody:      "Last chance: {{amount}}.",
			},
		},
		{
			name:      "empty override is ignored",
			overrides: datatypes.JSONMap{OverrideEmailBody: ""},
			want: Content{
				EmailSubject: "Invoice {{invoice_number}}",
				EmailBody:    "Please pay {{amount}}.",
				SMSBody:      "Pay {{amount}} now.",
			},
		},
		{
			name:      "non-string override is ignored",
			overrides: datatypes.JSONMap{OverrideEmailBody: 42},
			want: Content{
				EmailSubject: "Invoice {{invoice_number}}",
				EmailBody:    "Please pay {{amount}}.",
				SMSBody:      "Pay {{amount}} now.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := ScheduledStep{Overrides: tt.overrides}
			assert.Equal(t, tt.want, EffectiveContent(step, template))
		})
	}
}

func TestStepStatusTransitions(t *testing.T) {
	assert.True(t, StepSent.Terminal())
	assert.True(t, StepCancelled.Terminal())
	assert.True(t, StepSkipped.Terminal())
	assert.False(t, StepPending.Terminal())
	assert.False(t, StepFailed.Terminal())

	assert.True(t, StepPending.Executable())
	assert.True(t, StepFailed.Executable())
	assert.False(t, StepSent.Executable())
}
