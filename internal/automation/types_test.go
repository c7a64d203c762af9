package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRule() *Rule {
	return &Rule{
		Name:           "daily-news",
		Enabled:        true,
		ExecutionMode:  ModeFullAuto,
		AutomationType: TypeScheduled,
		ContentType:    "news",
		Schedule:       ScheduleSpec{Frequency: FreqDaily, Times: []string{"09:00"}},
		Languages:      []string{"en", "am"},
		Channels:       []int64{1, 2},
	}
}

func TestValidateAcceptsWellFormedRule(t *testing.T) {
	require.NoError(t, Validate(validRule()))
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Rule)
	}{
		{"missing name", func(r *Rule) { r.Name = "" }},
		{"unknown automation type", func(r *Rule) { r.AutomationType = "periodic" }},
		{"unknown execution mode", func(r *Rule) { r.ExecutionMode = "dry_run" }},
		{"unknown content type", func(r *Rule) { r.ContentType = "horoscope" }},
		{"no languages", func(r *Rule) { r.Languages = nil }},
		{"unknown language", func(r *Rule) { r.Languages = []string{"en", "fr"} }},
		{"unknown frequency", func(r *Rule) { r.Schedule.Frequency = "fortnightly" }},
		{"malformed time", func(r *Rule) { r.Schedule.Times = []string{"9am"} }},
		{"out-of-range time", func(r *Rule) { r.Schedule.Times = []string{"25:00"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRule()
			tc.mutate(r)
			assert.Error(t, Validate(r))
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	t.Run("empty schedule becomes daily 09:00", func(t *testing.T) {
		r := validRule()
		r.Schedule = ScheduleSpec{}
		require.NoError(t, Validate(r))
		assert.Equal(t, FreqDaily, r.Schedule.Frequency)
		assert.Equal(t, []string{"09:00"}, r.Schedule.Times)
	})

	t.Run("empty execution mode becomes full_auto", func(t *testing.T) {
		r := validRule()
		r.ExecutionMode = ""
		require.NoError(t, Validate(r))
		assert.Equal(t, ModeFullAuto, r.ExecutionMode)
	})
}
