package mentionguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	guard := NewMentionGuard()

	tests := []struct {
		name               string
		input              string
		dangerous          bool
		hasBroadcastAll    bool
		hasBroadcastOnline bool
		roleTargets        []string
	}{
		{
			name:  "plain text is safe",
			input: "hello there, how is everyone doing",
		},
		{
			name:            "everyone broadcast",
			input:           "big announcement @everyone come look",
			dangerous:       true,
			hasBroadcastAll: true,
		},
		{
			name:               "here broadcast",
			input:              "@here quick question",
			dangerous:          true,
			hasBroadcastOnline: true,
		},
		{
			name:        "single role mention",
			input:       "ping <@&123456789012345678> please",
			dangerous:   true,
			roleTargets: []string{"123456789012345678"},
		},
		{
			name:        "duplicate role mentions are preserved in order",
			input:       "<@&111> then <@&222> then <@&111> again",
			dangerous:   true,
			roleTargets: []string{"111", "222", "111"},
		},
		{
			name:               "all classes at once",
			input:              "@everyone @here <@&333>",
			dangerous:          true,
			hasBroadcastAll:    true,
			hasBroadcastOnline: true,
			roleTargets:        []string{"333"},
		},
		{
			name:  "user mention is not a danger class",
			input: "hey <@123456789012345678> what do you think",
		},
		{
			name:  "empty text",
			input: "",
		},
		{
			name:  "malformed role token is ignored",
			input: "<@&notanumber> and <@& 123>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := guard.Detect(tt.input)

			assert.Equal(t, tt.dangerous, report.Dangerous)
			assert.Equal(t, tt.hasBroadcastAll, report.HasBroadcastAll)
			assert.Equal(t, tt.hasBroadcastOnline, report.HasBroadcastOnline)
			assert.Equal(t, tt.roleTargets, report.RoleTargets)
		})
	}
}
