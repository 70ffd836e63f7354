// Package telegram runs a long-polling Telegram bot that answers travel
// questions through the pipeline.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wayfarerhq/wayfarer/ai"
)

const (
	// pollTimeoutSeconds is the long-poll window for GetUpdates.
	pollTimeoutSeconds = 30

	// maxMessageRunes is Telegram's hard message size limit.
	maxMessageRunes = 4096

	defaultParseMode = "Markdown"
)

const greeting = `Hi, I'm Wayfarer. Ask me anything about a trip you're planning:
"3-day Paris itinerary", "best time for Kyoto", "day trips from Lisbon".`

// Answerer is the pipeline surface the bot needs.
type Answerer interface {
	Answer(ctx context.Context, query string) (*ai.Answer, error)
}

// Config holds the bot credentials.
type Config struct {
	Token string
}

// Bot answers direct messages and group mentions with pipeline answers.
type Bot struct {
	api      *tgbotapi.BotAPI
	pipeline Answerer
}

// NewBot creates the bot and verifies the token against the Bot API.
func NewBot(cfg Config, pipeline Answerer) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Bot{api: api, pipeline: pipeline}, nil
}

// Run polls for updates until ctx is canceled. Each message is answered on
// its own goroutine; identical in-flight questions are collapsed downstream.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := b.api.GetUpdatesChan(u)

	slog.Info("telegram: bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			message := update.Message
			if message == nil || message.Text == "" {
				continue
			}
			go b.handleMessage(ctx, message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	b.sendTyping(message.Chat.ID)

	answer, err := b.pipeline.Answer(ctx, message.Text)
	if err != nil {
		slog.Error("telegram: answer failed",
			"chat_id", message.Chat.ID,
			"error", err,
		)
		b.reply(message.Chat.ID, "Sorry, I couldn't put an answer together. Please try again in a moment.")
		return
	}

	slog.Info("telegram: answered",
		"chat_id", message.Chat.ID,
		"request_id", answer.RequestID,
		"outcome", answer.Outcome,
	)
	b.reply(message.Chat.ID, answer.Text)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "help":
		b.reply(message.Chat.ID, greeting)
	default:
		b.reply(message.Chat.ID, "Just send me your travel question as a plain message.")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, clipMessage(text))
	msg.ParseMode = defaultParseMode
	if _, err := b.api.Send(msg); err == nil {
		return
	}
	// Model output with unbalanced markdown breaks Telegram's parser;
	// resend as plain text before giving up.
	plain := tgbotapi.NewMessage(chatID, clipMessage(text))
	if _, err := b.api.Send(plain); err != nil {
		slog.Error("telegram: failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(action); err != nil {
		slog.Debug("telegram: typing indicator failed", "chat_id", chatID, "error", err)
	}
}

func clipMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return text
	}
	return string(runes[:maxMessageRunes-3]) + "..."
}
