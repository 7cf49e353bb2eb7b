package models

import "time"

// Invite token states. Expired is derived from expires_at at read
// time; the stored column may lag behind and is never authoritative.
const (
	InviteStatusPending = "pending"
	InviteStatusUsed    = "used"
	InviteStatusExpired = "expired"
)

type InviteToken struct {
	Token         string     `json:"token"`
	AssessmentID  string     `json:"assessment_id"`
	Partner1Email string     `json:"partner1_email"`
	Partner2Email string     `json:"partner2_email,omitempty"`
	Status        string     `json:"status"`
	ExpiresAt     time.Time  `json:"expires_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// EffectiveStatus reports the token state as of now, folding expiry in
// regardless of what the status column says.
func (t *InviteToken) EffectiveStatus(now time.Time) string {
	if t.Status == InviteStatusUsed {
		return InviteStatusUsed
	}
	if !now.Before(t.ExpiresAt) {
		return InviteStatusExpired
	}
	return t.Status
}

type RedeemInviteRequest struct {
	Token string `json:"token" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// Redemption is what a successful redeem hands back to the caller so
// it can grant the invitee access to the bound assessment.
type Redemption struct {
	AssessmentID string `json:"assessment_id"`
	InviterEmail string `json:"inviter_email"`
}
