// Package telegram is the outward notification channel. Everything in
// here is best-effort: a failed send must never fail an ingestion run.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"WhaleWatch/internal/domain/models"
	drepo "WhaleWatch/internal/domain/repository"
	applogger "WhaleWatch/pkg/logger"

	"gopkg.in/telebot.v3"
)

// Notifier sends alert messages to a Telegram channel.
type Notifier struct {
	bot    *telebot.Bot
	chatID string
	logger *applogger.Logger
}

// New creates the Telegram notifier. An empty token or chat id yields a
// disabled notifier whose sends are no-ops reported as errors, so the
// caller logs and moves on.
func New(token, chatID string, logger *applogger.Logger) (drepo.Notifier, error) {
	if token == "" || chatID == "" {
		return &Notifier{chatID: chatID, logger: logger}, nil
	}

	// send-only: no poller
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Notifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// NotifyAlert derives the deep link from the trade metadata and posts
// the alert message with the link appended.
func (n *Notifier) NotifyAlert(ctx context.Context, alert models.Alert, trade models.Trade, meta models.TradeMeta) error {
	if n.bot == nil {
		return fmt.Errorf("telegram not configured")
	}

	text := alert.Message
	if link := DeepLink(meta.EventSlug, trade.Slug); link != "" {
		text += "\n" + link
	}

	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(n.recipient(), text, &telebot.SendOptions{
			DisableWebPagePreview: true,
		})
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	case <-time.After(15 * time.Second):
		return fmt.Errorf("telegram send: timed out")
	}

	n.logger.Debug("notification sent", applogger.String("chat", n.chatID))
	return nil
}

func (n *Notifier) recipient() telebot.Recipient {
	if strings.HasPrefix(n.chatID, "@") {
		return &telebot.Chat{Type: telebot.ChatChannel, Username: n.chatID}
	}
	id, err := strconv.ParseInt(n.chatID, 10, 64)
	if err != nil {
		return &telebot.Chat{Type: telebot.ChatChannel, Username: n.chatID}
	}
	return &telebot.Chat{ID: id}
}
