package opsnotif

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/slack-go/slack"
)

var (
	instance *OpsNotifier
	once     sync.Once
)

type OpsNotifier struct {
	webhookURL  string
	environment string
	appName     string
}

// Init initializes the global ops notifier instance
func Init(webhookURL, environment string) {
	once.Do(func() {
		instance = &OpsNotifier{
			webhookURL:  webhookURL,
			environment: environment,
			appName:     "Replygate",
		}
	})
}

// ReviewCreated notifies the ops channel that a risky reply was parked for
// moderator review
func ReviewCreated(guildID, reviewID, requestedByTag string) {
	notify(guildID, fmt.Sprintf("🔍 Review `%s` created for a reply requested by `%s`", reviewID, requestedByTag))
}

// ReviewResolved notifies the ops channel about a terminal review outcome
func ReviewResolved(guildID, reviewID, status, actingUserTag string) {
	message := fmt.Sprintf("🔍 Review `%s` resolved: *%s*", reviewID, status)
	if actingUserTag != "" {
		message += fmt.Sprintf(" by `%s`", actingUserTag)
	}
	notify(guildID, message)
}

func notify(guildID, message string) {
	if instance == nil {
		log.Printf("⚠️ Ops notifier not initialized, skipping notification: %s", message)
		return
	}
	if instance.webhookURL == "" {
		return // Ops notifications disabled
	}

	// Send asynchronously to avoid blocking the event path
	go instance.sendSlackNotification(guildID, message)
}

func (n *OpsNotifier) sendSlackNotification(guildID, message string) {
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Service:* %s", n.appName), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Environment:* %s", n.environment), false, false),
	}
	if guildID != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*GuildID:* `%s`", guildID), false, false))
	}
	fields = append(fields, slack.NewTextBlockObject(
		slack.MarkdownType,
		fmt.Sprintf("*Timestamp:* %s", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")),
		false, false,
	))

	blocks := slack.Blocks{
		BlockSet: []slack.Block{
			slack.NewSectionBlock(nil, fields, nil),
			slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("📊 *Activity:*\n%s", message), false, false),
				nil, nil,
			),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{Blocks: &blocks}); err != nil {
		log.Printf("❌ Failed to send ops notification: %v", err)
		return
	}

	log.Printf("📣 Ops notification sent: %s", message)
}
