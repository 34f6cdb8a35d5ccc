package models

import "context"

type DeliveryMode string

const (
	DeliveryModePrimary  DeliveryMode = "primary"
	DeliveryModeFallback DeliveryMode = "fallback"
	DeliveryModeNone     DeliveryMode = "none"
	DeliveryModeFailed   DeliveryMode = "failed"
)

// PrimarySendResult is what a primary send capability reports back: the
// message was sent, deferred into the review workflow, or failed.
type PrimarySendResult struct {
	Sent             bool   `json:"sent"`
	MessageID        string `json:"message_id,omitempty"`
	DeferredToReview bool   `json:"deferred_to_review"`
	ReviewID         string `json:"review_id,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`
}

// SendPrimaryFunc attempts the real delivery of the content.
type SendPrimaryFunc func(ctx context.Context) (PrimarySendResult, error)

// SendFallbackFunc delivers a short notice to the requesting user and
// returns the sent message id.
type SendFallbackFunc func(ctx context.Context, text string) (string, error)

// DeliveryRequest bundles the content with the send capabilities the
// guaranteed-delivery sender orchestrates.
type DeliveryRequest struct {
	Content      string
	SendPrimary  SendPrimaryFunc
	SendFallback SendFallbackFunc
	FallbackText string
}

// DeliveryOutcome is the terminal result of a delivery attempt. The sender
// always produces one; it never propagates an error to its caller.
type DeliveryOutcome struct {
	Sent              bool              `json:"sent"`
	Mode              DeliveryMode      `json:"mode"`
	Primary           PrimarySendResult `json:"primary"`
	FallbackMessageID string            `json:"fallback_message_id,omitempty"`
	FinalError        string            `json:"final_error,omitempty"`
}
