package reviews

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"replygate/clients"
	"replygate/core"
	"replygate/models"
	"replygate/opsnotif"
)

const (
	DefaultReviewTTL      = 60 * time.Second
	artifactPreviewLength = 900
)

// ReviewWorkflow manages replies parked for human approval. Each pending
// entry lives in the registry from creation until exactly one terminal
// transition: approved, rejected, or expired via the scheduled timer. The
// registry removal under the mutex is the sole serialization point, so
// whichever actor takes the entry out first owns the resolution and every
// later actor observes "no longer pending".
type ReviewWorkflow struct {
	chatClient clients.ChatClient
	ttl        time.Duration
	now        func() time.Time

	mu       sync.Mutex
	pending  map[string]*models.PendingReview
	timers   map[string]*time.Timer
	disposed bool
}

func NewReviewWorkflow(chatClient clients.ChatClient, ttl time.Duration) *ReviewWorkflow {
	if ttl <= 0 {
		ttl = DefaultReviewTTL
	}
	return &ReviewWorkflow{
		chatClient: chatClient,
		ttl:        ttl,
		now:        time.Now,
		pending:    make(map[string]*models.PendingReview),
		timers:     make(map[string]*time.Timer),
	}
}

// RequestReview posts a review artifact with approve/reject buttons to every
// configured destination, registers the pending entry under a fresh
// unguessable id, and schedules the auto-expiry timer.
func (w *ReviewWorkflow) RequestReview(ctx context.Context, req models.ReviewRequest) models.ReviewRequestOutcome {
	log.Printf("📋 Starting to request review for guild %s, requested by %s", req.GuildID, req.RequestedByTag)

	if len(req.Destinations) == 0 {
		log.Printf("⚠️ No review destination configured for guild %s", req.GuildID)
		return models.ReviewRequestOutcome{OK: false, Reason: "no review channel configured"}
	}

	id := core.NewID("rev")
	body := buildArtifactBody(req)

	opts := clients.SendMessageOptions{
		ApproveButtonID: models.ReviewButtonID(models.ReviewActionApprove, id),
		RejectButtonID:  models.ReviewButtonID(models.ReviewActionReject, id),
	}

	var artifacts []models.ReviewArtifact
	for _, dest := range req.Destinations {
		sent, err := w.chatClient.SendMessage(ctx, dest.ChannelID, body, opts)
		if err != nil {
			log.Printf("❌ Failed to post review artifact to %s channel %s: %v", dest.Scope, dest.ChannelID, err)
			continue
		}
		artifacts = append(artifacts, models.ReviewArtifact{
			ChannelID: dest.ChannelID,
			MessageID: sent.MessageID,
			Scope:     dest.Scope,
		})
	}
	if len(artifacts) == 0 {
		return models.ReviewRequestOutcome{OK: false, Reason: "review channel unreachable"}
	}

	entry := &models.PendingReview{
		ID:                  id,
		GuildID:             req.GuildID,
		Artifacts:           artifacts,
		TargetChannelID:     req.TargetChannelID,
		ReplyToMessageID:    req.ReplyToMessageID,
		RequestedByID:       req.RequestedByID,
		RequestedByTag:      req.RequestedByTag,
		Source:              req.Source,
		Content:             req.Content,
		ArtifactBody:        body,
		NoMentionsOnApprove: req.NoMentionsOnApprove,
		AllowedOnApprove:    approvalPolicyFor(req),
		ExpiresAt:           w.now().Add(w.ttl),
	}

	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return models.ReviewRequestOutcome{OK: false, Reason: "review workflow shut down"}
	}
	w.pending[id] = entry
	w.timers[id] = time.AfterFunc(w.ttl, func() { w.expire(id) })
	w.mu.Unlock()

	opsnotif.ReviewCreated(req.GuildID, id, req.RequestedByTag)
	log.Printf("📋 Completed successfully - review %s pending with %d artifacts, expires at %s", id, len(artifacts), entry.ExpiresAt.Format(time.RFC3339))
	return models.ReviewRequestOutcome{OK: true, ID: id}
}

// Resolve applies a moderator action to a pending review. A stale id, one
// already resolved or expired, reports no_longer_pending and has no side
// effects. On approve the deferred send runs with the mention policy fixed
// at request time.
func (w *ReviewWorkflow) Resolve(ctx context.Context, id string, action models.ReviewAction, actingUserTag string) models.ReviewResolution {
	if action != models.ReviewActionApprove && action != models.ReviewActionReject {
		log.Printf("⚠️ Invalid review action %q for review %s", action, id)
		return models.ReviewResolution{Status: models.ReviewResolutionInvalidAction}
	}

	entry, ok := w.takeout(id)
	if !ok {
		log.Printf("🔍 Review %s is no longer pending, ignoring %s by %s", id, action, actingUserTag)
		return models.ReviewResolution{Status: models.ReviewResolutionNoLongerPending}
	}

	if action == models.ReviewActionReject {
		log.Printf("🔍 Review %s rejected by %s", id, actingUserTag)
		w.updateArtifacts(ctx, entry, fmt.Sprintf("❌ Rejected by %s", actingUserTag))
		opsnotif.ReviewResolved(entry.GuildID, id, string(models.ReviewResolutionRejected), actingUserTag)
		return models.ReviewResolution{Status: models.ReviewResolutionRejected}
	}

	log.Printf("🔍 Review %s approved by %s, executing deferred send", id, actingUserTag)
	resolution := models.ReviewResolution{Status: models.ReviewResolutionApproved}

	sendOpts := clients.SendMessageOptions{Mentions: entry.AllowedOnApprove}
	if entry.ReplyToMessageID != nil {
		sendOpts.ReplyToMessageID = *entry.ReplyToMessageID
	}

	sent, err := w.chatClient.SendMessage(ctx, entry.TargetChannelID, entry.Content, sendOpts)
	if err != nil {
		log.Printf("❌ Deferred send for review %s failed: %v", id, err)
		resolution.SendError = err.Error()
		w.updateArtifacts(ctx, entry, fmt.Sprintf("⚠️ Approved by %s, but the send failed", actingUserTag))
	} else {
		resolution.Sent = true
		resolution.SentMessageID = sent.MessageID
		w.updateArtifacts(ctx, entry, fmt.Sprintf("✅ Approved by %s", actingUserTag))
	}

	opsnotif.ReviewResolved(entry.GuildID, id, string(models.ReviewResolutionApproved), actingUserTag)
	return resolution
}

// ListPending returns a snapshot of all pending reviews.
func (w *ReviewWorkflow) ListPending() []*models.PendingReview {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*models.PendingReview, 0, len(w.pending))
	for _, entry := range w.pending {
		copied := *entry
		out = append(out, &copied)
	}
	return out
}

// Dispose stops all expiry timers and drops every pending entry without a
// terminal artifact edit. Intended for shutdown only.
func (w *ReviewWorkflow) Dispose() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, timer := range w.timers {
		timer.Stop()
		delete(w.timers, id)
	}
	dropped := len(w.pending)
	w.pending = make(map[string]*models.PendingReview)
	w.disposed = true

	if dropped > 0 {
		log.Printf("⚠️ Review workflow disposed with %d pending reviews dropped", dropped)
	}
}

// expire is the timer callback. It competes with Resolve through takeout, so
// a review resolved moments earlier makes this a no-op.
func (w *ReviewWorkflow) expire(id string) {
	entry, ok := w.takeout(id)
	if !ok {
		return
	}

	log.Printf("⏱️ Review %s expired without a moderator decision", id)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w.updateArtifacts(ctx, entry, "⏱️ Auto-rejected, review timed out")
	opsnotif.ReviewResolved(entry.GuildID, id, string(models.ReviewResolutionExpired), "")
}

// takeout removes and returns the pending entry for id. The check and the
// delete happen under one lock acquisition, which is what guarantees at most
// one terminal transition per entry.
func (w *ReviewWorkflow) takeout(id string) (*models.PendingReview, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.pending[id]
	if !ok {
		return nil, false
	}
	delete(w.pending, id)

	if timer, ok := w.timers[id]; ok {
		timer.Stop()
		delete(w.timers, id)
	}
	return entry, true
}

// updateArtifacts transitions every posted review artifact to a terminal
// visual state and strips the buttons.
func (w *ReviewWorkflow) updateArtifacts(ctx context.Context, entry *models.PendingReview, status string) {
	content := entry.ArtifactBody + "\n\n" + status
	for _, artifact := range entry.Artifacts {
		if err := w.chatClient.EditMessage(ctx, artifact.ChannelID, artifact.MessageID, content, true); err != nil {
			log.Printf("⚠️ Failed to update review artifact %s in channel %s: %v", artifact.MessageID, artifact.ChannelID, err)
		}
	}
}

// approvalPolicyFor fixes, at request time, exactly which mention classes an
// approval may render live. Automated replies always approve fully
// restricted; otherwise only the classes the danger check actually flagged
// are allowed, with role ids deduplicated.
func approvalPolicyFor(req models.ReviewRequest) models.MentionPolicy {
	if req.NoMentionsOnApprove {
		return models.MentionPolicy{}
	}

	policy := models.MentionPolicy{
		AllowBroadcast: req.Danger.HasBroadcastAll || req.Danger.HasBroadcastOnline,
	}
	seen := make(map[string]bool)
	for _, roleID := range req.Danger.RoleTargets {
		if seen[roleID] {
			continue
		}
		seen[roleID] = true
		policy.RoleIDs = append(policy.RoleIDs, roleID)
	}
	return policy
}

func buildArtifactBody(req models.ReviewRequest) string {
	preview := req.Content
	if len(preview) > artifactPreviewLength {
		preview = preview[:artifactPreviewLength] + "..."
	}

	return fmt.Sprintf(
		"🔍 **Reply pending review**\nRequested by: %s\nTarget channel: <#%s>\nSource: %s\nDetected: %s\n\n>>> %s",
		req.RequestedByTag,
		req.TargetChannelID,
		req.Source,
		describeDanger(req.Danger),
		preview,
	)
}

func describeDanger(danger models.MentionDangerReport) string {
	var parts []string
	if danger.HasBroadcastAll {
		parts = append(parts, "@everyone")
	}
	if danger.HasBroadcastOnline {
		parts = append(parts, "@here")
	}
	if n := len(danger.RoleTargets); n > 0 {
		parts = append(parts, fmt.Sprintf("%d role mention(s)", n))
	}
	if len(parts) == 0 {
		return "no mention classes"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
