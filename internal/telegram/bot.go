package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/gustavohm/granabot/internal/engine"
)

// Config holds what the bot needs to connect.
type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Bot wires inbound Telegram updates into the conversational engine.
type Bot struct {
	bot    *tele.Bot
	engine *engine.Engine
}

// NewBot connects to the Bot API and registers the update handlers. The
// returned bot does not poll until Start is called.
func NewBot(cfg Config, newEngine func(t *Transport) *engine.Engine) (*Bot, error) {
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 10 * time.Second
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	bot := &Bot{
		bot:    b,
		engine: newEngine(NewTransport(b)),
	}
	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", func(c tele.Context) error {
		return c.Send("Oi! Me conta seus gastos e receitas em linguagem natural, por texto ou áudio. Use /desfazer para desfazer o último lançamento.")
	})

	b.bot.Handle("/desfazer", func(c tele.Context) error {
		b.engine.HandleUndo(context.Background(), c.Chat().ID)
		return nil
	})

	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		b.engine.HandleText(context.Background(), c.Chat().ID, c.Text())
		return nil
	})

	b.bot.Handle(tele.OnVoice, func(c tele.Context) error {
		b.handleVoice(context.Background(), c)
		return nil
	})

	b.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		payload := callbackPayload(cb.Data)
		if payload == "" {
			return nil
		}
		b.engine.HandleCallback(context.Background(), c.Chat().ID, cb.ID, payload)
		return nil
	})
}

func (b *Bot) handleVoice(ctx context.Context, c tele.Context) {
	voice := c.Message().Voice
	if voice == nil {
		return
	}

	reader, err := b.bot.File(&voice.File)
	if err != nil {
		slog.Error("downloading voice file", "chat_id", c.Chat().ID, "error", err)
		return
	}
	defer reader.Close()

	audio, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("reading voice file", "chat_id", c.Chat().ID, "error", err)
		return
	}

	mime := voice.MIME
	if mime == "" {
		mime = "audio/ogg"
	}
	b.engine.HandleVoice(ctx, c.Chat().ID, audio, mime, time.Duration(voice.Duration)*time.Second)
}

// callbackPayload strips telebot's "\f<unique>|" framing off the raw
// callback data, leaving the selection payload the engine understands.
func callbackPayload(data string) string {
	data = strings.TrimPrefix(data, "\f")
	if _, payload, found := strings.Cut(data, "|"); found {
		return payload
	}
	return data
}

// Start begins long polling and blocks until Stop is called.
func (b *Bot) Start() {
	slog.Info("telegram bot polling started")
	b.bot.Start()
}

// Stop terminates polling.
func (b *Bot) Stop() {
	b.bot.Stop()
}
