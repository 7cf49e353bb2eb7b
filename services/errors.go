package services

import "errors"

// Sentinel errors surfaced to handlers. Storage failures are never
// wrapped into these; they propagate unchanged.
var (
	ErrTokenNotFound    = errors.New("invite token not found")
	ErrTokenExpired     = errors.New("invite token expired")
	ErrTokenAlreadyUsed = errors.New("invite token already used")
	ErrUnauthorized     = errors.New("caller does not have access to this assessment")
	ErrNotFound         = errors.New("not found")
	ErrReportNotReady   = errors.New("both partners must complete the assessment first")
)
