package delivery

import (
	"context"
	"fmt"
	"log"

	"replygate/models"
)

// DefaultFallbackText is used when a delivery request carries no configured
// filler notice.
const DefaultFallbackText = "sorry, I had trouble putting a reply together just now"

// GuaranteedDeliverySender orchestrates a primary send and a fallback notice
// so the requesting user always receives some visible response. Deliver
// never returns an error: panics and failures from either send capability
// are normalized into the outcome.
type GuaranteedDeliverySender struct{}

func NewGuaranteedDeliverySender() *GuaranteedDeliverySender {
	return &GuaranteedDeliverySender{}
}

func (s *GuaranteedDeliverySender) Deliver(ctx context.Context, req models.DeliveryRequest) models.DeliveryOutcome {
	primary := invokePrimary(ctx, req.SendPrimary)

	if primary.Sent {
		return models.DeliveryOutcome{
			Sent:    true,
			Mode:    models.DeliveryModePrimary,
			Primary: primary,
		}
	}

	if req.SendFallback == nil {
		return models.DeliveryOutcome{
			Mode:    models.DeliveryModeNone,
			Primary: primary,
		}
	}

	fallbackText := fallbackTextFor(primary, req.FallbackText)
	fallbackID, err := invokeFallback(ctx, req.SendFallback, fallbackText)
	if err != nil {
		log.Printf("❌ Fallback send failed after primary did not deliver: %v", err)
		return models.DeliveryOutcome{
			Mode:       models.DeliveryModeFailed,
			Primary:    primary,
			FinalError: err.Error(),
		}
	}

	return models.DeliveryOutcome{
		Mode:              models.DeliveryModeFallback,
		Primary:           primary,
		FallbackMessageID: fallbackID,
	}
}

// invokePrimary normalizes every way a primary send can go wrong, including
// a panic, into a PrimarySendResult.
func invokePrimary(ctx context.Context, sendPrimary models.SendPrimaryFunc) (result models.PrimarySendResult) {
	if sendPrimary == nil {
		return models.PrimarySendResult{FailureReason: "no primary send configured"}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Primary send panicked: %v", r)
			result = models.PrimarySendResult{FailureReason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	result, err := sendPrimary(ctx)
	if err != nil {
		result.Sent = false
		if result.FailureReason == "" {
			result.FailureReason = err.Error()
		}
	}
	return result
}

func invokeFallback(ctx context.Context, sendFallback models.SendFallbackFunc, text string) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Fallback send panicked: %v", r)
			id, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return sendFallback(ctx, text)
}

// fallbackTextFor picks the notice the requesting user sees when the primary
// content could not be delivered directly.
func fallbackTextFor(primary models.PrimarySendResult, configuredFiller string) string {
	switch {
	case primary.DeferredToReview:
		return "⏳ my reply pings a wider audience, so it's waiting on moderator approval"
	case primary.FailureReason != "":
		return fmt.Sprintf("⚠️ I couldn't deliver that reply (%s)", primary.FailureReason)
	case configuredFiller != "":
		return configuredFiller
	default:
		return DefaultFallbackText
	}
}
