package bot

import (
	"context"

	"relaybot/relaybot/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram implements types.Transport over the Bot API. The underlying
// client has no context support, so ctx is only honored between calls.
type Telegram struct {
	api *tgbotapi.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api}, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (t *Telegram) SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb types.ReplyKeyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = renderReplyKeyboard(kb)
	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) SendInlineKeyboard(ctx context.Context, chatID int64, text string, kb types.InlineKeyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = renderInlineKeyboard(kb)
	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) SendRemovingKeyboard(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	_, err := t.api.Send(msg)
	return err
}

func (t *Telegram) Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	_, err := t.api.Send(tgbotapi.NewForward(toChatID, fromChatID, messageID))
	return err
}

// Copy re-sends without the "forwarded from" header, so the admin identity
// stays hidden on replies.
func (t *Telegram) Copy(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	_, err := t.api.Request(tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID))
	return err
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func renderReplyKeyboard(kb types.ReplyKeyboard) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, row := range kb.Rows {
		var buttons []tgbotapi.KeyboardButton
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	markup.OneTimeKeyboard = kb.OneTime
	return markup
}

func renderInlineKeyboard(kb types.InlineKeyboard) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range kb.Rows {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
