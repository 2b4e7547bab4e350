package types

import "context"

// Inbound is a chat-platform message normalized for the dispatcher.
// Content carries the text, the media caption, or a preformatted payload
// (contact, location, poll); empty Content means "use the kind's default
// caption".
type Inbound struct {
	MessageID int
	ChatID    int64
	UserID    int64
	FirstName string
	Username  string
	Kind      ContentKind
	Content   string
	IsCommand bool
	Command   string
	Args      string
}

// Callback is a pressed inline button.
type Callback struct {
	ID        string
	UserID    int64
	ChatID    int64
	MessageID int
	FirstName string
	Username  string
	Data      string
}

type InlineButton struct {
	Text string
	Data string
}

type InlineKeyboard struct {
	Rows [][]InlineButton
}

type ReplyKeyboard struct {
	Rows    [][]string
	OneTime bool
}

// Transport is the outbound side of the chat platform. The dispatcher only
// ever talks to this interface; the telegram implementation lives in the bot
// package.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string) error
	SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb ReplyKeyboard) error
	SendInlineKeyboard(ctx context.Context, chatID int64, text string, kb InlineKeyboard) error
	SendRemovingKeyboard(ctx context.Context, chatID int64, text string) error
	Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) error
	Copy(ctx context.Context, toChatID, fromChatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
