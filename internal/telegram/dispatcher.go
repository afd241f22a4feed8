package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mur0dDev/Classification-Bot/internal/action"
	"github.com/Mur0dDev/Classification-Bot/internal/engine"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/render"
)

const (
	msgGreeting = "Salom, %s! 👋\n\nI help classify humans, animals and aliens. Send /classify to start."
	msgHelp     = "*Commands*\n/classify - start a new classification\n/cancel - cancel the current one\n/help - show this help"
	msgUnknown  = "Unknown command. Send /help to see what I can do."
	msgStale    = "⚠️ That button is no longer active."
)

// Handler consumes engine events.
type Handler interface {
	Handle(ctx context.Context, ev engine.Event) error
}

// Dispatcher turns updates into engine events. Updates are sharded over a
// fixed set of workers by user id, so one user's updates stay in order while
// different users proceed in parallel.
type Dispatcher struct {
	bot     *Bot
	handler Handler
	workers int
	log     *zap.Logger
}

func NewDispatcher(bot *Bot, handler Handler, workers int, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{bot: bot, handler: handler, workers: workers, log: log}
}

// Run consumes updates until ctx is done or updates is closed.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	g, ctx := errgroup.WithContext(ctx)
	shards := make([]chan tgbotapi.Update, d.workers)
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, 64)
		shard := shards[i]
		g.Go(func() error {
			for upd := range shard {
				d.handle(ctx, upd)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, s := range shards {
				close(s)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case upd, ok := <-updates:
				if !ok {
					return nil
				}
				from := sender(upd)
				if from == nil {
					continue
				}
				select {
				case shards[shardOf(from.ID, d.workers)] <- upd:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return g.Wait()
}

func shardOf(userID int64, n int) int {
	s := int(userID % int64(n))
	if s < 0 {
		s = -s
	}
	return s
}

// handle logs failures; one bad update must not stop the worker.
func (d *Dispatcher) handle(ctx context.Context, upd tgbotapi.Update) {
	if err := d.route(ctx, upd); err != nil {
		d.log.Warn("update failed", zap.Int("update", upd.UpdateID), zap.Error(err))
	}
}

func (d *Dispatcher) route(ctx context.Context, upd tgbotapi.Update) error {
	if cq := upd.CallbackQuery; cq != nil {
		d.bot.AnswerCallback(cq.ID)
		u := user(cq.From)
		a, err := action.Decode(cq.Data)
		if errors.Is(err, action.ErrUnknownToken) {
			d.log.Debug("unknown callback", zap.Int64("user", u.ID), zap.String("data", cq.Data))
			return d.bot.Notify(u.ID, msgStale)
		}
		if err != nil {
			return err
		}
		return d.handler.Handle(ctx, engine.Selection{User: u, Action: a})
	}

	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return nil
	}
	u := user(msg.From)
	if !msg.IsCommand() {
		return d.handler.Handle(ctx, engine.Text{User: u, Text: msg.Text})
	}
	switch msg.Command() {
	case "start":
		return d.bot.Notify(u.ID, fmt.Sprintf(msgGreeting, render.Escape(u.Name)))
	case "help":
		return d.bot.Notify(u.ID, msgHelp)
	case "classify":
		return d.handler.Handle(ctx, engine.Begin{User: u})
	case "cancel":
		return d.handler.Handle(ctx, engine.Selection{User: u, Action: action.Cancel{}})
	}
	return d.bot.Notify(u.ID, msgUnknown)
}

func sender(upd tgbotapi.Update) *tgbotapi.User {
	switch {
	case upd.CallbackQuery != nil:
		return upd.CallbackQuery.From
	case upd.Message != nil:
		return upd.Message.From
	}
	return nil
}

func user(u *tgbotapi.User) models.User {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return models.User{ID: u.ID, Name: name}
}

// WebhookHandler decodes pushed updates onto out.
func WebhookHandler(api *tgbotapi.BotAPI, out chan<- tgbotapi.Update, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upd, err := api.HandleUpdate(r)
		if err != nil {
			log.Warn("bad webhook update", zap.Error(err))
			http.Error(w, `{"error":"bad update"}`, http.StatusBadRequest)
			return
		}
		select {
		case out <- *upd:
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			http.Error(w, `{"error":"busy"}`, http.StatusServiceUnavailable)
		}
	})
}

// SetWebhook points Telegram at url.
func SetWebhook(api *tgbotapi.BotAPI, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("telegram: webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	return nil
}

// Poll starts long polling. The channel closes after StopReceivingUpdates.
func Poll(api *tgbotapi.BotAPI, timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return api.GetUpdatesChan(u)
}
