package mentionguard

import (
	"regexp"
	"strings"

	"replygate/models"
)

// roleMentionPattern matches Discord role mention tokens like <@&123456789>
var roleMentionPattern = regexp.MustCompile(`<@&(\d+)>`)

// MentionGuard classifies text for mass-mention risk. Pure and total over
// arbitrary text; it never fails.
type MentionGuard struct{}

func NewMentionGuard() *MentionGuard {
	return &MentionGuard{}
}

// Detect reports the broadcast tokens and role targets present in text.
// Role targets keep source order and are not deduplicated - callers must
// not assume uniqueness.
func (g *MentionGuard) Detect(text string) models.MentionDangerReport {
	report := models.MentionDangerReport{
		HasBroadcastAll:    strings.Contains(text, "@everyone"),
		HasBroadcastOnline: strings.Contains(text, "@here"),
	}

	for _, match := range roleMentionPattern.FindAllStringSubmatch(text, -1) {
		report.RoleTargets = append(report.RoleTargets, match[1])
	}

	report.Dangerous = report.HasBroadcastAll || report.HasBroadcastOnline || len(report.RoleTargets) > 0
	return report
}
