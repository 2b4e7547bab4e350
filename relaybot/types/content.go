package types

// ContentKind tags what a message carries. The values double as the
// content_type column in the message log.
type ContentKind string

const (
	KindText      ContentKind = "text"
	KindPhoto     ContentKind = "photo"
	KindDocument  ContentKind = "document"
	KindVoice     ContentKind = "voice"
	KindVideo     ContentKind = "video"
	KindAudio     ContentKind = "audio"
	KindSticker   ContentKind = "sticker"
	KindVideoNote ContentKind = "video_note"
	KindContact   ContentKind = "contact"
	KindLocation  ContentKind = "location"
	KindPoll      ContentKind = "poll"

	// Log-only kinds, never produced by the transport layer.
	KindApplication       ContentKind = "application"
	KindQuestion          ContentKind = "question"
	KindQuestionInitiated ContentKind = "question_initiated"
)

type kindInfo struct {
	defaultCaption string
	replyPrefix    string
	replyAck       string
}

// One table instead of one handler per media kind: default caption for
// user-sent media without one, and the announcement/ack pair used when the
// admin replies with that kind.
var kinds = map[ContentKind]kindInfo{
	KindPhoto:     {"Фото без описания", "🖼 Фото-ответ от администратора:", "✅ Фото отправлено пользователю."},
	KindDocument:  {"Документ", "📁 Документ-ответ от администратора:", "✅ Документ отправлен пользователю."},
	KindVoice:     {"Голосовое сообщение", "🎤 Голосовой-ответ от администратора:", "✅ Голос отправлен пользователю."},
	KindVideo:     {"Видео", "📹 Видео-ответ от администратора:", "✅ Видео отправлено пользователю."},
	KindAudio:     {"Аудио", "🎵 Аудио-ответ от администратора:", "✅ Аудио отправлено пользователю."},
	KindSticker:   {"Стикер", "😊 Стикер-ответ от администратора:", "✅ Стикер отправлен пользователю."},
	KindVideoNote: {"Видеосообщение", "📹 Видеосообщение-ответ от администратора:", "✅ Видеосообщение отправлено пользователю."},
	KindContact:   {"Контакт", "👤 Контакт-ответ от администратора:", "✅ Контакт отправлен пользователю."},
	KindLocation:  {"Местоположение", "📍 Местоположение-ответ от администратора:", "✅ Местоположение отправлено пользователю."},
	KindPoll:      {"Опрос", "📊 Опрос-ответ от администратора:", "✅ Опрос отправлен пользователю."},
}

func (k ContentKind) DefaultCaption() string {
	return kinds[k].defaultCaption
}

func (k ContentKind) AdminReplyPrefix() string {
	return kinds[k].replyPrefix
}

func (k ContentKind) AdminReplyAck() string {
	return kinds[k].replyAck
}

// IsMedia reports whether the kind is relayed by copying the original
// message rather than re-sending its text.
func (k ContentKind) IsMedia() bool {
	_, ok := kinds[k]
	return ok
}
