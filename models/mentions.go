package models

// MentionDangerReport classifies a piece of text for mass-mention risk.
type MentionDangerReport struct {
	Dangerous          bool     `json:"dangerous"`
	HasBroadcastAll    bool     `json:"has_broadcast_all"`
	HasBroadcastOnline bool     `json:"has_broadcast_online"`
	RoleTargets        []string `json:"role_targets,omitempty"`
}

// MentionPolicy enumerates which mention classes a send is allowed to render
// live. The zero value suppresses every mention class.
type MentionPolicy struct {
	AllowBroadcast bool     `json:"allow_broadcast"`
	RoleIDs        []string `json:"role_ids,omitempty"`
}

// IsRestricted returns true if the policy renders no mention class live.
func (p MentionPolicy) IsRestricted() bool {
	return !p.AllowBroadcast && len(p.RoleIDs) == 0
}
