// Package telegram connects the engine to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/action"
	"github.com/Mur0dDev/Classification-Bot/internal/engine"
)

// Bot is the engine's gateway to private chats and the submission channel
// to the group.
type Bot struct {
	api     *tgbotapi.BotAPI
	groupID int64
	log     *zap.Logger

	mu   sync.Mutex
	last map[int64]int // chat id -> message id of the latest prompt
}

// Connect authenticates token against the API.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	api.Debug = debug
	return api, nil
}

func NewBot(api *tgbotapi.BotAPI, groupID int64, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{api: api, groupID: groupID, log: log, last: map[int64]int{}}
}

// Username is the bot's @name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

func (b *Bot) SendPrompt(ctx context.Context, userID int64, p engine.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(userID, p.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup := replyMarkup(p); markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram: send to %d: %w", userID, err)
	}
	b.mu.Lock()
	b.last[userID] = sent.MessageID
	b.mu.Unlock()
	return nil
}

// EditLastPrompt replaces the latest prompt, or sends a new one when there
// is none yet.
func (b *Bot) EditLastPrompt(ctx context.Context, userID int64, p engine.Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	id, ok := b.last[userID]
	b.mu.Unlock()
	if !ok {
		return b.SendPrompt(ctx, userID, p)
	}
	edit := tgbotapi.NewEditMessageText(userID, id, p.Text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if len(p.Buttons) > 0 {
		kb := inlineKeyboard(p.Buttons)
		edit.ReplyMarkup = &kb
	}
	if _, err := b.api.Request(edit); err != nil {
		return fmt.Errorf("telegram: edit %d/%d: %w", userID, id, err)
	}
	return nil
}

// Post publishes a report to the group.
func (b *Bot) Post(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.groupID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: post to group %d: %w", b.groupID, err)
	}
	return nil
}

// Notify sends plain text without touching the prompt tracking.
func (b *Bot) Notify(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

// AnswerCallback acknowledges a button press so the client stops spinning.
func (b *Bot) AnswerCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		b.log.Debug("answer callback failed", zap.Error(err))
	}
}

// RegisterCommands publishes the command menu.
func (b *Bot) RegisterCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "classify", Description: "Start a classification"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel the current classification"},
		tgbotapi.BotCommand{Command: "help", Description: "Show help"},
	)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("telegram: set commands: %w", err)
	}
	return nil
}

func replyMarkup(p engine.Prompt) any {
	switch {
	case len(p.Buttons) > 0:
		return inlineKeyboard(p.Buttons)
	case len(p.Choices) > 0:
		buttons := make([]tgbotapi.KeyboardButton, len(p.Choices))
		for i, c := range p.Choices {
			buttons[i] = tgbotapi.NewKeyboardButton(c)
		}
		kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(buttons...))
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		return kb
	}
	return nil
}

func inlineKeyboard(rows [][]engine.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.InlineKeyboardButton, len(row))
		for i, btn := range row {
			r[i] = tgbotapi.NewInlineKeyboardButtonData(btn.Label, action.Encode(btn.Action))
		}
		out = append(out, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
