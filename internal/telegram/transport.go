// Package telegram adapts the conversational core to the Telegram Bot API.
// It is the only package that touches telebot types; everything else works
// against service.Transport.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"github.com/gustavohm/granabot/internal/service"
)

// buttonUnique routes every inline button through one callback handler; the
// payload carries the actual selection.
const buttonUnique = "pick"

// Transport implements service.Transport over a telebot bot.
type Transport struct {
	bot *tele.Bot
}

// NewTransport wraps an already-constructed bot.
func NewTransport(bot *tele.Bot) *Transport {
	return &Transport{bot: bot}
}

func (t *Transport) SendMessage(_ context.Context, chatID int64, text string) (int, error) {
	msg, err := t.bot.Send(tele.ChatID(chatID), text)
	if err != nil {
		return 0, fmt.Errorf("sending message: %w", err)
	}
	return msg.ID, nil
}

func (t *Transport) SendChoiceList(_ context.Context, chatID int64, text string, choices []service.Choice) (int, error) {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	var row tele.Row
	for i, choice := range choices {
		row = append(row, markup.Data(choice.Label, buttonUnique, choice.ID))
		if len(row) == 2 || i == len(choices)-1 {
			rows = append(rows, row)
			row = tele.Row{}
		}
	}
	markup.Inline(rows...)

	msg, err := t.bot.Send(tele.ChatID(chatID), text, markup)
	if err != nil {
		return 0, fmt.Errorf("sending choice list: %w", err)
	}
	return msg.ID, nil
}

func (t *Transport) SendConfirmation(_ context.Context, chatID int64, text string) (int, error) {
	markup := &tele.ReplyMarkup{}
	markup.Inline(tele.Row{
		markup.Data("✅ Sim", buttonUnique, service.CallbackConfirmYes),
		markup.Data("❌ Não", buttonUnique, service.CallbackConfirmNo),
	})

	msg, err := t.bot.Send(tele.ChatID(chatID), text, markup)
	if err != nil {
		return 0, fmt.Errorf("sending confirmation: %w", err)
	}
	return msg.ID, nil
}

func (t *Transport) SendNewCategoryPrompt(_ context.Context, chatID int64, text, suggestedName string) (int, error) {
	markup := &tele.ReplyMarkup{}
	markup.Inline(tele.Row{
		markup.Data(fmt.Sprintf("✅ Criar \"%s\"", suggestedName), buttonUnique, service.CallbackNewCategoryYes),
		markup.Data("✏️ Outro nome", buttonUnique, service.CallbackNewCategoryNo),
	})

	msg, err := t.bot.Send(tele.ChatID(chatID), text, markup)
	if err != nil {
		return 0, fmt.Errorf("sending new category prompt: %w", err)
	}
	return msg.ID, nil
}

func (t *Transport) DeleteMessages(_ context.Context, chatID int64, messageIDs []int) error {
	for _, id := range messageIDs {
		stored := tele.StoredMessage{MessageID: strconv.Itoa(id), ChatID: chatID}
		if err := t.bot.Delete(stored); err != nil {
			return fmt.Errorf("deleting message %d: %w", id, err)
		}
	}
	return nil
}

func (t *Transport) AcknowledgeInteraction(_ context.Context, interactionID string) error {
	return t.bot.Respond(&tele.Callback{ID: interactionID})
}
