package services

import (
	"github.com/sacredlabs/sacred-api/utils"
)

// EmailSender is what handlers depend on, so tests can drop in a
// no-op implementation.
type EmailSender interface {
	SendPartnerInvite(to, inviterName, token string) error
	SendVerification(to, userName, token string) error
	SendReportReady(to, userName, assessmentID string) error
}

// EmailService sends transactional mail through the Resend API via
// the utils templates.
type EmailService struct{}

func NewEmailService() *EmailService {
	return &EmailService{}
}

func (s *EmailService) SendPartnerInvite(to, inviterName, token string) error {
	return utils.SendPartnerInviteEmail(to, inviterName, token)
}

func (s *EmailService) SendVerification(to, userName, token string) error {
	return utils.SendVerificationEmail(to, userName, token)
}

func (s *EmailService) SendReportReady(to, userName, assessmentID string) error {
	return utils.SendReportReadyEmail(to, userName, assessmentID)
}
