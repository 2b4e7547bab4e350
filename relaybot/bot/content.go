package bot

import (
	"fmt"
	"strings"

	"relaybot/relaybot/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// inboundFromMessage normalizes a telegram message into the dispatcher's
// Inbound form: one content-kind tag plus a text payload. Contact, location
// and poll payloads are preformatted here because they have no caption.
func inboundFromMessage(m *tgbotapi.Message) types.Inbound {
	in := types.Inbound{
		MessageID: m.MessageID,
		ChatID:    m.Chat.ID,
		UserID:    m.From.ID,
		FirstName: m.From.FirstName,
		Username:  m.From.UserName,
	}

	// Telegram only marks latin commands with a bot_command entity; the
	// cyrillic alias /меню arrives as plain text, so fall back to parsing
	// any "/"-prefixed text ourselves.
	if m.IsCommand() || strings.HasPrefix(m.Text, "/") {
		in.IsCommand = true
		in.Kind = types.KindText
		in.Content = m.Text
		if m.IsCommand() {
			in.Command = m.Command()
			in.Args = m.CommandArguments()
		} else {
			head, args, _ := strings.Cut(strings.TrimPrefix(m.Text, "/"), " ")
			if at := strings.Index(head, "@"); at >= 0 {
				head = head[:at]
			}
			in.Command = head
			in.Args = args
		}
		return in
	}

	switch {
	case len(m.Photo) > 0:
		in.Kind = types.KindPhoto
		in.Content = m.Caption
	case m.Document != nil:
		in.Kind = types.KindDocument
		in.Content = m.Caption
	case m.Voice != nil:
		in.Kind = types.KindVoice
	case m.VideoNote != nil:
		in.Kind = types.KindVideoNote
	case m.Video != nil:
		in.Kind = types.KindVideo
		in.Content = m.Caption
	case m.Audio != nil:
		in.Kind = types.KindAudio
		in.Content = m.Caption
	case m.Sticker != nil:
		in.Kind = types.KindSticker
	case m.Contact != nil:
		in.Kind = types.KindContact
		in.Content = "Контакт: " + m.Contact.FirstName
	case m.Location != nil:
		in.Kind = types.KindLocation
		in.Content = fmt.Sprintf("Местоположение: %v, %v", m.Location.Latitude, m.Location.Longitude)
	case m.Poll != nil:
		in.Kind = types.KindPoll
		in.Content = "Опрос: " + m.Poll.Question
	default:
		in.Kind = types.KindText
		in.Content = m.Text
	}
	return in
}

func callbackFromQuery(q *tgbotapi.CallbackQuery) types.Callback {
	cb := types.Callback{
		ID:        q.ID,
		UserID:    q.From.ID,
		FirstName: q.From.FirstName,
		Username:  q.From.UserName,
		Data:      q.Data,
	}
	if q.Message != nil {
		cb.ChatID = q.Message.Chat.ID
		cb.MessageID = q.Message.MessageID
	}
	return cb
}
