package controllers

import (
	"context"
	"strings"
	"testing"

	"relaybot/relaybot/config"
	"relaybot/relaybot/events"
	"relaybot/relaybot/session"
	"relaybot/relaybot/sources/store/dao"
	"relaybot/relaybot/sources/store/models"
	"relaybot/relaybot/types"
	"relaybot/relaybot/utils/logging"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const adminID int64 = 99

// --- Fake transport ---

type sent struct {
	ChatID int64
	Text   string
}

type fakeTransport struct {
	sent      []sent
	inline    []sent
	replyKb   []sent
	removed   []sent
	forwards  []sent
	copies    []sent
	callbacks []string
}

func (f *fakeTransport) Send(ctx context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, sent{chatID, text})
	return nil
}

func (f *fakeTransport) SendReplyKeyboard(ctx context.Context, chatID int64, text string, kb types.ReplyKeyboard) error {
	f.replyKb = append(f.replyKb, sent{chatID, text})
	return nil
}

func (f *fakeTransport) SendInlineKeyboard(ctx context.Context, chatID int64, text string, kb types.InlineKeyboard) error {
	f.inline = append(f.inline, sent{chatID, text})
	return nil
}

func (f *fakeTransport) SendRemovingKeyboard(ctx context.Context, chatID int64, text string) error {
	f.removed = append(f.removed, sent{chatID, text})
	return nil
}

func (f *fakeTransport) Forward(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	f.forwards = append(f.forwards, sent{toChatID, ""})
	return nil
}

func (f *fakeTransport) Copy(ctx context.Context, toChatID, fromChatID int64, messageID int) error {
	f.copies = append(f.copies, sent{toChatID, ""})
	return nil
}

func (f *fakeTransport) AnswerCallback(ctx context.Context, callbackID, text string) error {
	f.callbacks = append(f.callbacks, text)
	return nil
}

func (f *fakeTransport) lastSent(t *testing.T) sent {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatalf("expected at least one sent message")
	}
	return f.sent[len(f.sent)-1]
}

// --- Helpers ---

func setupDispatcher(t *testing.T) (*Dispatcher, *fakeTransport, *dao.MessageDAO, *session.Router) {
	logging.InitLogger()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Message{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	messages := dao.NewMessageDAO(db)
	router := session.NewRouter(true)
	tr := &fakeTransport{}
	cfg := config.Config{
		AdminUserID:    adminID,
		SessionGating:  true,
		AdminMenuStyle: config.MenuStyleKeyboard,
	}
	d := NewDispatcher(messages, router, tr, config.DefaultTexts(), events.NewHub(), cfg)
	return d, tr, messages, router
}

func userText(userID int64, text string) types.Inbound {
	return types.Inbound{
		MessageID: 1,
		ChatID:    userID,
		UserID:    userID,
		FirstName: "Ivan",
		Username:  "ivan",
		Kind:      types.KindText,
		Content:   text,
	}
}

func adminText(text string) types.Inbound {
	return types.Inbound{
		MessageID: 1,
		ChatID:    adminID,
		UserID:    adminID,
		Kind:      types.KindText,
		Content:   text,
	}
}

// --- Regular-user path ---

func TestGateClosedRejectsFreeText(t *testing.T) {
	d, tr, messages, _ := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	if err := d.HandleMessage(ctx, userText(42, "Hello")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := tr.lastSent(t); got.Text != texts.GateClosed {
		t.Errorf("expected gate-closed prompt, got %q", got.Text)
	}
	history, _ := messages.HistoryFor(ctx, 42)
	if len(history) != 0 {
		t.Errorf("expected no record for gated message, got %d", len(history))
	}
	if len(tr.forwards) != 0 {
		t.Errorf("gated message must not be forwarded")
	}
}

func TestTextRelayWithOpenGate(t *testing.T) {
	d, tr, messages, router := setupDispatcher(t)
	ctx := context.Background()

	router.SetUserGate(42, true)
	if err := d.HandleMessage(ctx, userText(42, "Hello")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	history, _ := messages.HistoryFor(ctx, 42)
	if len(history) != 1 {
		t.Fatalf("expected one record, got %d", len(history))
	}
	rec := history[0]
	if rec.ContentType != "text" || rec.Content != "Hello" || rec.Sender != models.SenderUser || rec.UserID != 42 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if len(tr.forwards) != 1 || tr.forwards[0].ChatID != adminID {
		t.Errorf("expected one forward to admin, got %+v", tr.forwards)
	}
	notice := tr.lastSent(t)
	if notice.ChatID != adminID || !strings.Contains(notice.Text, "id: 42") {
		t.Errorf("expected identity notice to admin, got %+v", notice)
	}
}

func TestQuestionFlow(t *testing.T) {
	d, tr, messages, router := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	// Pressing the question button opens the gate and writes the marker.
	if err := d.HandleMessage(ctx, userText(42, texts.BtnQuestion)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	asked, _ := messages.ExistsQuestionInitiated(ctx, 42)
	if !asked {
		t.Fatalf("expected question marker after button press")
	}

	// The next text is a question and the admin notice carries the reply button.
	if err := d.HandleMessage(ctx, userText(42, "Когда зарплата?")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	history, _ := messages.HistoryFor(ctx, 42)
	last := history[len(history)-1]
	if last.ContentType != "question" {
		t.Errorf("expected question record, got %q", last.ContentType)
	}
	if len(tr.inline) == 0 || !strings.Contains(tr.inline[len(tr.inline)-1].Text, "Вам задали вопрос") {
		t.Errorf("expected question notice with reply button, got %+v", tr.inline)
	}

	// Cancel closes the gate again.
	if err := d.HandleMessage(ctx, userText(42, texts.BtnCancel)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if router.GateOpen(42) {
		t.Errorf("expected gate closed after cancel")
	}
	before := len(tr.forwards)
	_ = d.HandleMessage(ctx, userText(42, "еще вопрос"))
	if len(tr.forwards) != before {
		t.Errorf("text after cancel must not be relayed")
	}
}

func TestMediaDefaultCaption(t *testing.T) {
	d, _, messages, router := setupDispatcher(t)
	ctx := context.Background()

	router.SetUserGate(42, true)
	in := userText(42, "")
	in.Kind = types.KindVoice
	if err := d.HandleMessage(ctx, in); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	history, _ := messages.HistoryFor(ctx, 42)
	if len(history) != 1 || history[0].Content != "Голосовое сообщение" {
		t.Errorf("expected default voice caption, got %+v", history)
	}
	if history[0].ContentType != "voice" {
		t.Errorf("expected voice content type, got %q", history[0].ContentType)
	}
}

func TestVacancyCallback(t *testing.T) {
	d, tr, messages, _ := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	cb := types.Callback{
		ID:        "cb1",
		UserID:    42,
		ChatID:    42,
		FirstName: "Ivan",
		Username:  "ivan",
		Data:      "vacancy_translator",
	}
	if err := d.HandleCallback(ctx, cb); err != nil {
		t.Fatalf("callback failed: %v", err)
	}

	history, _ := messages.HistoryFor(ctx, 42)
	if len(history) != 1 {
		t.Fatalf("expected one application record, got %d", len(history))
	}
	if history[0].ContentType != "application" || history[0].Content != "Переводчик" {
		t.Errorf("unexpected application record: %+v", history[0])
	}
	if len(tr.inline) != 1 || tr.inline[0].ChatID != adminID {
		t.Errorf("expected admin notice with reply button, got %+v", tr.inline)
	}
	if !strings.Contains(tr.inline[0].Text, "Переводчик") {
		t.Errorf("notice must name the vacancy: %q", tr.inline[0].Text)
	}
	// Ack first, questionnaire last.
	if !strings.Contains(tr.sent[0].Text, texts.ApplicationAck) {
		t.Errorf("expected application ack first, got %q", tr.sent[0].Text)
	}
	if tr.lastSent(t).Text != texts.Questionnaire {
		t.Errorf("expected questionnaire last, got %q", tr.lastSent(t).Text)
	}
	if len(tr.callbacks) != 1 {
		t.Errorf("callback must be answered")
	}
}

// --- Administrator path ---

func TestAdminWithoutTargetIsPrompted(t *testing.T) {
	d, tr, messages, router := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	if err := d.HandleMessage(ctx, adminText("привет")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := tr.lastSent(t); got.Text != texts.SelectUserFirst {
		t.Errorf("expected select-user prompt, got %q", got.Text)
	}
	if _, ok := router.CurrentTarget(); ok {
		t.Errorf("no dialog must be started")
	}
	history, _ := messages.HistoryFor(ctx, adminID)
	if len(history) != 0 {
		t.Errorf("admin prompt must not be persisted")
	}
}

func TestAdminNumericInputValidatesUser(t *testing.T) {
	d, tr, messages, router := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	// Unknown id: rejection, no state change.
	if err := d.HandleMessage(ctx, adminText("42")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := tr.lastSent(t); got.Text != texts.UserNotFound {
		t.Errorf("expected not-found reply, got %q", got.Text)
	}
	if _, ok := router.CurrentTarget(); ok {
		t.Errorf("unknown id must not start a dialog")
	}

	// Known id starts the dialog.
	if _, err := messages.Append(ctx, 42, models.SenderUser, "text", "hi", "Ivan", "ivan"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := d.HandleMessage(ctx, adminText("42")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	target, ok := router.CurrentTarget()
	if !ok || target != 42 {
		t.Errorf("expected dialog with 42, got %d (%v)", target, ok)
	}
}

func TestAdminTextRelayAndAudit(t *testing.T) {
	d, tr, messages, router := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	router.StartDialog(42)
	if err := d.HandleMessage(ctx, adminText("Здравствуйте!")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if tr.sent[0].ChatID != 42 || !strings.Contains(tr.sent[0].Text, "Здравствуйте!") {
		t.Errorf("expected wrapped reply to user 42, got %+v", tr.sent[0])
	}
	if got := tr.lastSent(t); got.Text != texts.AdminReplyAck {
		t.Errorf("expected delivery ack, got %q", got.Text)
	}
	history, _ := messages.HistoryFor(ctx, 42)
	if len(history) != 1 || history[0].Sender != models.SenderAdmin {
		t.Fatalf("expected one admin audit record, got %+v", history)
	}
	if history[0].FirstName != "" || history[0].Username != "" {
		t.Errorf("admin audit rows must not carry identity columns")
	}
}

func TestAdminMediaRelayCopies(t *testing.T) {
	d, tr, _, router := setupDispatcher(t)
	ctx := context.Background()

	router.StartDialog(42)
	in := adminText("")
	in.Kind = types.KindPhoto
	if err := d.HandleMessage(ctx, in); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(tr.copies) != 1 || tr.copies[0].ChatID != 42 {
		t.Errorf("expected one copy to user 42, got %+v", tr.copies)
	}
	if tr.sent[0].ChatID != 42 || tr.sent[0].Text != types.KindPhoto.AdminReplyPrefix() {
		t.Errorf("expected photo reply prefix, got %+v", tr.sent[0])
	}
	if got := tr.lastSent(t); got.Text != types.KindPhoto.AdminReplyAck() {
		t.Errorf("expected photo ack, got %q", got.Text)
	}
}

func TestEndDialogDistinguishesNoop(t *testing.T) {
	d, tr, _, router := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	if err := d.HandleMessage(ctx, adminText(texts.BtnEndDialog)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := tr.lastSent(t); got.Text != texts.DialogNotStarted {
		t.Errorf("expected not-started reply, got %q", got.Text)
	}

	router.StartDialog(42)
	if err := d.HandleMessage(ctx, adminText(texts.BtnEndDialog)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := tr.lastSent(t); got.Text != texts.DialogEnded {
		t.Errorf("expected ended reply, got %q", got.Text)
	}
	if _, ok := router.CurrentTarget(); ok {
		t.Errorf("expected no target after ending")
	}
}

func TestReplyCallbackBindsTarget(t *testing.T) {
	d, tr, _, router := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	// Non-admin press is rejected with no state change.
	cb := types.Callback{ID: "cb1", UserID: 42, ChatID: 42, Data: "reply_42"}
	if err := d.HandleCallback(ctx, cb); err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if len(tr.callbacks) != 1 || tr.callbacks[0] != texts.AccessDenied {
		t.Errorf("expected access denied answer, got %+v", tr.callbacks)
	}
	if _, ok := router.CurrentTarget(); ok {
		t.Errorf("non-admin press must not bind a target")
	}

	// Admin press binds the route directly.
	cb = types.Callback{ID: "cb2", UserID: adminID, ChatID: adminID, Data: "reply_42"}
	if err := d.HandleCallback(ctx, cb); err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	target, ok := router.CurrentTarget()
	if !ok || target != 42 {
		t.Errorf("expected target 42, got %d (%v)", target, ok)
	}
	if len(tr.removed) != 1 || !strings.Contains(tr.removed[0].Text, "42") {
		t.Errorf("expected keyboard-removing ready message, got %+v", tr.removed)
	}
}

func TestHistoryCommand(t *testing.T) {
	d, tr, messages, _ := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	cmd := adminText("/history")
	cmd.IsCommand = true
	cmd.Command = "history"

	if err := d.HandleMessage(ctx, cmd); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := tr.lastSent(t); got.Text != texts.HistoryUsage {
		t.Errorf("expected usage, got %q", got.Text)
	}

	cmd.Args = "abc"
	_ = d.HandleMessage(ctx, cmd)
	if got := tr.lastSent(t); got.Text != texts.HistoryBadID {
		t.Errorf("expected bad-id reply, got %q", got.Text)
	}

	cmd.Args = "42"
	_ = d.HandleMessage(ctx, cmd)
	if got := tr.lastSent(t); got.Text != texts.NoHistory {
		t.Errorf("expected none-found reply, got %q", got.Text)
	}

	if _, err := messages.Append(ctx, 42, models.SenderUser, "text", "Hello", "Ivan", "ivan"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	_ = d.HandleMessage(ctx, cmd)
	if got := tr.lastSent(t); !strings.Contains(got.Text, "Hello") {
		t.Errorf("expected history dump, got %q", got.Text)
	}

	// Non-admin invocation is silently ignored.
	before := len(tr.sent)
	userCmd := userText(42, "/history 42")
	userCmd.IsCommand = true
	userCmd.Command = "history"
	userCmd.Args = "42"
	_ = d.HandleMessage(ctx, userCmd)
	if len(tr.sent) != before {
		t.Errorf("non-admin history must produce no reply")
	}
}

func TestUsersListing(t *testing.T) {
	d, tr, messages, _ := setupDispatcher(t)
	ctx := context.Background()
	texts := config.DefaultTexts()

	if err := d.HandleMessage(ctx, adminText(texts.BtnUsers)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if got := tr.lastSent(t); got.Text != texts.NoUsers {
		t.Errorf("expected no-users reply, got %q", got.Text)
	}

	if _, err := messages.Append(ctx, 42, models.SenderUser, "text", "hi", "Ivan", "ivan"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	_ = d.HandleMessage(ctx, adminText(texts.BtnUsers))
	got := tr.lastSent(t)
	if !strings.Contains(got.Text, "🆔 42: Ivan (@ivan)") {
		t.Errorf("expected user line, got %q", got.Text)
	}
}

func TestUserStartResetsGate(t *testing.T) {
	d, _, _, router := setupDispatcher(t)
	ctx := context.Background()

	router.SetUserGate(42, true)
	cmd := userText(42, "/start")
	cmd.IsCommand = true
	cmd.Command = "start"
	if err := d.HandleMessage(ctx, cmd); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if router.GateOpen(42) {
		t.Errorf("expected gate closed after /start")
	}
}
