package controllers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"relaybot/relaybot/config"
	"relaybot/relaybot/events"
	"relaybot/relaybot/session"
	"relaybot/relaybot/sources/store/dao"
	"relaybot/relaybot/sources/store/models"
	"relaybot/relaybot/types"
	"relaybot/relaybot/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// historyLimit caps the rendered history at the platform message size.
const historyLimit = 4096

const purgeAge = 7 * 24 * time.Hour

// Dispatcher is the decision core of the relay: it classifies every inbound
// event, consults the session router, persists through the message DAO and
// delivers the outbound effect through the transport.
type Dispatcher struct {
	messages  *dao.MessageDAO
	router    *session.Router
	tr        types.Transport
	texts     config.Texts
	hub       *events.Hub
	adminID   int64
	menuStyle string
}

func NewDispatcher(messages *dao.MessageDAO, router *session.Router, tr types.Transport, texts config.Texts, hub *events.Hub, cfg config.Config) *Dispatcher {
	return &Dispatcher{
		messages:  messages,
		router:    router,
		tr:        tr,
		texts:     texts,
		hub:       hub,
		adminID:   cfg.AdminUserID,
		menuStyle: cfg.AdminMenuStyle,
	}
}

func (d *Dispatcher) HandleMessage(ctx context.Context, in types.Inbound) error {
	if in.IsCommand {
		return d.handleCommand(ctx, in)
	}
	if in.UserID == d.adminID {
		return d.handleAdmin(ctx, in)
	}
	return d.handleUser(ctx, in)
}

func (d *Dispatcher) handleCommand(ctx context.Context, in types.Inbound) error {
	isAdmin := in.UserID == d.adminID

	switch in.Command {
	case "start":
		if isAdmin {
			return d.tr.SendReplyKeyboard(ctx, in.ChatID, d.texts.WelcomeAdmin, d.adminKeyboard())
		}
		// A fresh user cannot write until they pick a menu action.
		d.router.SetUserGate(in.UserID, false)
		return d.tr.SendReplyKeyboard(ctx, in.ChatID, d.texts.WelcomeUser, d.mainKeyboard())

	case "menu", "меню":
		if isAdmin {
			return d.tr.SendReplyKeyboard(ctx, in.ChatID, d.texts.MenuAdmin, d.adminKeyboard())
		}
		return d.tr.Send(ctx, in.ChatID, d.texts.MenuUser)

	case "users":
		if !isAdmin {
			return nil
		}
		return d.sendUserList(ctx, in.ChatID)

	case "history":
		if !isAdmin {
			return nil
		}
		return d.sendHistory(ctx, in.ChatID, in.Args)

	case "clear_all_dialogs":
		if !isAdmin {
			return d.tr.Send(ctx, in.ChatID, d.texts.AccessDenied)
		}
		return d.purgeAll(ctx, in.ChatID)
	}

	// Unknown commands fall through silently, as the original did.
	return nil
}

// --- Administrator path ---

func (d *Dispatcher) handleAdmin(ctx context.Context, in types.Inbound) error {
	if in.Kind == types.KindText {
		switch in.Content {
		case d.texts.BtnUsers:
			return d.sendUserList(ctx, in.ChatID)
		case d.texts.BtnHistory:
			return d.tr.Send(ctx, in.ChatID, d.texts.HistoryHint)
		case d.texts.BtnPurgeOld:
			return d.purgeOld(ctx, in.ChatID)
		case d.texts.BtnPurgeAll:
			return d.purgeAll(ctx, in.ChatID)
		case d.texts.BtnEndDialog:
			if d.router.EndDialog() {
				d.hub.Publish(events.Event{Type: events.TypeDialogEnded})
				return d.tr.Send(ctx, in.ChatID, d.texts.DialogEnded)
			}
			return d.tr.Send(ctx, in.ChatID, d.texts.DialogNotStarted)
		case d.texts.BtnCancel:
			return nil
		}
		if isNumeric(in.Content) {
			return d.startDialogByID(ctx, in.ChatID, in.Content)
		}
	}
	return d.relayAdminContent(ctx, in)
}

func (d *Dispatcher) startDialogByID(ctx context.Context, chatID int64, raw string) error {
	targetID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return d.tr.Send(ctx, chatID, d.texts.HistoryBadID)
	}
	exists, err := d.messages.ExistsAnyRecord(ctx, targetID)
	if err != nil {
		logging.ErrorLogger.Error("user lookup error", zap.Int64("user_id", targetID), zap.Error(err))
		return d.tr.Send(ctx, chatID, d.texts.StoreFailure)
	}
	if !exists {
		return d.tr.Send(ctx, chatID, d.texts.UserNotFound)
	}
	d.router.StartDialog(targetID)
	d.hub.Publish(events.Event{Type: events.TypeDialogStarted, UserID: targetID})
	return d.tr.Send(ctx, chatID, fmt.Sprintf(d.texts.DialogStarted, targetID))
}

// relayAdminContent delivers admin content to the current dialog target.
// Text replies are also appended as admin audit rows; media stays relay-only.
func (d *Dispatcher) relayAdminContent(ctx context.Context, in types.Inbound) error {
	target, ok := d.router.CurrentTarget()
	if !ok {
		return d.tr.Send(ctx, in.ChatID, d.texts.SelectUserFirst)
	}

	if in.Kind == types.KindText {
		if err := d.tr.Send(ctx, target, fmt.Sprintf(d.texts.AdminReplyWrap, in.Content)); err != nil {
			logging.ErrorLogger.Error("admin reply delivery error", zap.Int64("target", target), zap.Error(err))
			_ = d.tr.Send(ctx, in.ChatID, d.texts.StoreFailure)
			return fmt.Errorf("deliver admin reply to %d: %w", target, err)
		}
		// Audit row; a failure here never undoes the delivery above.
		if _, err := d.messages.Append(ctx, target, models.SenderAdmin, string(types.KindText), in.Content, "", ""); err != nil {
			logging.ErrorLogger.Error("admin reply audit error", zap.Int64("target", target), zap.Error(err))
		}
		return d.tr.Send(ctx, in.ChatID, d.texts.AdminReplyAck)
	}

	if err := d.tr.Send(ctx, target, in.Kind.AdminReplyPrefix()); err != nil {
		logging.ErrorLogger.Error("admin reply delivery error", zap.Int64("target", target), zap.Error(err))
		_ = d.tr.Send(ctx, in.ChatID, d.texts.StoreFailure)
		return fmt.Errorf("deliver admin reply to %d: %w", target, err)
	}
	if err := d.tr.Copy(ctx, target, in.ChatID, in.MessageID); err != nil {
		logging.ErrorLogger.Error("admin reply copy error", zap.Int64("target", target), zap.Error(err))
		return fmt.Errorf("copy admin reply to %d: %w", target, err)
	}
	return d.tr.Send(ctx, in.ChatID, in.Kind.AdminReplyAck())
}

func (d *Dispatcher) sendUserList(ctx context.Context, chatID int64) error {
	refs, err := d.messages.ListDistinctUsers(ctx)
	if err != nil {
		logging.ErrorLogger.Error("user list error", zap.Error(err))
		return d.tr.Send(ctx, chatID, d.texts.StoreFailure)
	}
	if len(refs) == 0 {
		return d.tr.Send(ctx, chatID, d.texts.NoUsers)
	}

	if d.menuStyle == config.MenuStyleInline {
		kb := types.InlineKeyboard{}
		for _, ref := range refs {
			label := ref.FirstName
			if label == "" {
				label = d.texts.UnknownName
			}
			if ref.Username != "" {
				label += " (@" + ref.Username + ")"
			}
			kb.Rows = append(kb.Rows, []types.InlineButton{{
				Text: label,
				Data: fmt.Sprintf("user_%d", ref.UserID),
			}})
		}
		return d.tr.SendInlineKeyboard(ctx, chatID, d.texts.UsersHeader, kb)
	}

	var b strings.Builder
	b.WriteString(d.texts.UsersHeader)
	for _, ref := range refs {
		name := ref.FirstName
		if name == "" {
			name = d.texts.UnknownName
		}
		uname := ""
		if ref.Username != "" {
			uname = " (@" + ref.Username + ")"
		}
		fmt.Fprintf(&b, "🆔 %d: %s%s\n", ref.UserID, name, uname)
	}
	b.WriteString(d.texts.UsersFooter)
	return d.tr.Send(ctx, chatID, b.String())
}

func (d *Dispatcher) sendHistory(ctx context.Context, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 1 {
		return d.tr.Send(ctx, chatID, d.texts.HistoryUsage)
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return d.tr.Send(ctx, chatID, d.texts.HistoryBadID)
	}

	records, err := d.messages.HistoryFor(ctx, userID)
	if err != nil {
		logging.ErrorLogger.Error("history error", zap.Int64("user_id", userID), zap.Error(err))
		return d.tr.Send(ctx, chatID, d.texts.StoreFailure)
	}
	if len(records) == 0 {
		return d.tr.Send(ctx, chatID, d.texts.NoHistory)
	}

	var b strings.Builder
	fmt.Fprintf(&b, d.texts.HistoryHeader, userID)
	for _, rec := range records {
		prefix := "👤"
		if rec.Sender == models.SenderAdmin {
			prefix = "✅"
		}
		fmt.Fprintf(&b, "[%s] %s %s\n", rec.Timestamp.Format("2006-01-02 15:04:05"), prefix, rec.Content)
	}
	return d.tr.Send(ctx, chatID, truncateRunes(b.String(), historyLimit))
}

func (d *Dispatcher) purgeOld(ctx context.Context, chatID int64) error {
	cutoff := time.Now().Add(-purgeAge)
	n, err := d.messages.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		logging.ErrorLogger.Error("purge old error", zap.Error(err))
		return d.tr.Send(ctx, chatID, d.texts.StoreFailure)
	}
	logging.AppLogger.Info("purged old dialogs", zap.Int64("rows", n))
	d.hub.Publish(events.Event{Type: events.TypePurge, Content: "old"})
	return d.tr.Send(ctx, chatID, d.texts.PurgedOld)
}

func (d *Dispatcher) purgeAll(ctx context.Context, chatID int64) error {
	n, err := d.messages.PurgeAll(ctx)
	if err != nil {
		logging.ErrorLogger.Error("purge all error", zap.Error(err))
		return d.tr.Send(ctx, chatID, d.texts.StoreFailure)
	}
	logging.AppLogger.Info("purged all dialogs", zap.Int64("rows", n))
	d.hub.Publish(events.Event{Type: events.TypePurge, Content: "all"})
	return d.tr.Send(ctx, chatID, d.texts.PurgedAll)
}

// --- Regular-user path ---

func (d *Dispatcher) handleUser(ctx context.Context, in types.Inbound) error {
	if in.Kind == types.KindText {
		switch in.Content {
		case d.texts.BtnCancel:
			d.router.SetUserGate(in.UserID, false)
			return d.tr.SendReplyKeyboard(ctx, in.ChatID, d.texts.Cancelled, d.mainKeyboard())

		case d.texts.BtnApply:
			d.router.SetUserGate(in.UserID, true)
			return d.tr.SendInlineKeyboard(ctx, in.ChatID, d.texts.ChooseRole, d.vacancyKeyboard())

		case d.texts.BtnQuestion:
			d.router.SetUserGate(in.UserID, true)
			if err := d.tr.Send(ctx, in.ChatID, d.texts.QuestionPrompt); err != nil {
				return err
			}
			if _, err := d.messages.Append(ctx, in.UserID, models.SenderUser,
				string(types.KindQuestionInitiated), d.texts.QuestionLogEntry, in.FirstName, in.Username); err != nil {
				logging.ErrorLogger.Error("question marker error", zap.Int64("user_id", in.UserID), zap.Error(err))
				return d.tr.Send(ctx, in.ChatID, d.texts.StoreFailure)
			}
			return nil

		// Admin menu labels from non-admins are swallowed without effect.
		case d.texts.BtnUsers, d.texts.BtnHistory, d.texts.BtnPurgeOld,
			d.texts.BtnPurgeAll, d.texts.BtnEndDialog:
			return nil
		}
	}
	return d.relayUserContent(ctx, in)
}

// relayUserContent is the single generic relay operation: persist with a
// content-type tag and forward live to the admin, gate permitting.
func (d *Dispatcher) relayUserContent(ctx context.Context, in types.Inbound) error {
	if !d.router.GateOpen(in.UserID) {
		return d.tr.Send(ctx, in.ChatID, d.texts.GateClosed)
	}

	kind := in.Kind
	content := in.Content
	if kind == types.KindText {
		asked, err := d.messages.ExistsQuestionInitiated(ctx, in.UserID)
		if err != nil {
			logging.ErrorLogger.Error("question lookup error", zap.Int64("user_id", in.UserID), zap.Error(err))
			return d.tr.Send(ctx, in.ChatID, d.texts.StoreFailure)
		}
		if asked {
			kind = types.KindQuestion
		}
	} else if content == "" {
		content = kind.DefaultCaption()
	}

	if _, err := d.messages.Append(ctx, in.UserID, models.SenderUser, string(kind), content, in.FirstName, in.Username); err != nil {
		logging.ErrorLogger.Error("append error", zap.Int64("user_id", in.UserID), zap.Error(err))
		return d.tr.Send(ctx, in.ChatID, d.texts.StoreFailure)
	}

	// Store-then-notify is not transactional: a failed forward leaves the
	// record in place.
	if err := d.tr.Forward(ctx, d.adminID, in.ChatID, in.MessageID); err != nil {
		logging.ErrorLogger.Error("forward error", zap.Int64("user_id", in.UserID), zap.Error(err))
		return fmt.Errorf("forward to admin: %w", err)
	}

	notice := d.identityNotice(in)
	evtType := events.TypeMessage
	if kind == types.KindQuestion {
		evtType = events.TypeQuestion
		notice = "Вам задали вопрос\n" + notice
		if err := d.tr.SendInlineKeyboard(ctx, d.adminID, notice, d.replyKeyboard(in.UserID)); err != nil {
			return fmt.Errorf("notify admin: %w", err)
		}
	} else {
		if err := d.tr.Send(ctx, d.adminID, notice); err != nil {
			return fmt.Errorf("notify admin: %w", err)
		}
	}

	d.hub.Publish(events.Event{Type: evtType, UserID: in.UserID, Kind: string(kind), Content: content})
	return nil
}

// --- Callbacks ---

func (d *Dispatcher) HandleCallback(ctx context.Context, cb types.Callback) error {
	switch {
	case strings.HasPrefix(cb.Data, "vacancy_"):
		return d.handleVacancy(ctx, cb)
	case strings.HasPrefix(cb.Data, "reply_"):
		return d.handleReplyBinding(ctx, cb)
	case strings.HasPrefix(cb.Data, "user_"):
		return d.handleUserSelection(ctx, cb)
	}
	return d.tr.AnswerCallback(ctx, cb.ID, "")
}

func (d *Dispatcher) handleVacancy(ctx context.Context, cb types.Callback) error {
	code := strings.TrimPrefix(cb.Data, "vacancy_")
	var selected *config.Vacancy
	for i := range d.texts.Vacancies {
		if d.texts.Vacancies[i].Code == code {
			selected = &d.texts.Vacancies[i]
			break
		}
	}
	if selected == nil {
		return d.tr.AnswerCallback(ctx, cb.ID, "")
	}

	ref := uuid.New().String()[:8]
	ack := fmt.Sprintf("%s\n\nНомер заявки: %s", d.texts.ApplicationAck, ref)
	if err := d.tr.Send(ctx, cb.ChatID, ack); err != nil {
		return fmt.Errorf("application ack: %w", err)
	}

	if _, err := d.messages.Append(ctx, cb.UserID, models.SenderUser,
		string(types.KindApplication), selected.Label, cb.FirstName, cb.Username); err != nil {
		logging.ErrorLogger.Error("application append error", zap.Int64("user_id", cb.UserID), zap.Error(err))
		return d.tr.Send(ctx, cb.ChatID, d.texts.StoreFailure)
	}

	notice := fmt.Sprintf("👥 Новый работник на вакансию: %s\n👤 От: %s (@%s)\nЗаявка № %s",
		selected.Label, cb.FirstName, usernameOr(cb.Username), ref)
	if err := d.tr.SendInlineKeyboard(ctx, d.adminID, notice, d.replyKeyboard(cb.UserID)); err != nil {
		logging.ErrorLogger.Error("application notify error", zap.Int64("user_id", cb.UserID), zap.Error(err))
		return fmt.Errorf("notify admin: %w", err)
	}

	if err := d.tr.Send(ctx, cb.ChatID, d.texts.Questionnaire); err != nil {
		return fmt.Errorf("questionnaire: %w", err)
	}

	d.hub.Publish(events.Event{Type: events.TypeApplication, UserID: cb.UserID, Content: selected.Label})
	return d.tr.AnswerCallback(ctx, cb.ID, "")
}

// handleReplyBinding is the one-shot "reply" button on an admin notice: it
// sets the dialog target directly, bypassing the numeric-id entry.
func (d *Dispatcher) handleReplyBinding(ctx context.Context, cb types.Callback) error {
	if cb.UserID != d.adminID {
		return d.tr.AnswerCallback(ctx, cb.ID, d.texts.AccessDenied)
	}
	targetID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "reply_"), 10, 64)
	if err != nil {
		return d.tr.AnswerCallback(ctx, cb.ID, d.texts.BadReplyID)
	}
	d.router.StartDialog(targetID)
	d.hub.Publish(events.Event{Type: events.TypeDialogStarted, UserID: targetID})
	if err := d.tr.SendRemovingKeyboard(ctx, cb.ChatID, fmt.Sprintf(d.texts.ReplyReady, targetID)); err != nil {
		return err
	}
	return d.tr.AnswerCallback(ctx, cb.ID, "")
}

// handleUserSelection serves the inline admin menu style, where the user list
// is rendered as buttons bound to user ids.
func (d *Dispatcher) handleUserSelection(ctx context.Context, cb types.Callback) error {
	if cb.UserID != d.adminID {
		return d.tr.AnswerCallback(ctx, cb.ID, d.texts.AccessDenied)
	}
	targetID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "user_"), 10, 64)
	if err != nil {
		return d.tr.AnswerCallback(ctx, cb.ID, d.texts.BadReplyID)
	}
	exists, err := d.messages.ExistsAnyRecord(ctx, targetID)
	if err != nil {
		logging.ErrorLogger.Error("user lookup error", zap.Int64("user_id", targetID), zap.Error(err))
		return d.tr.AnswerCallback(ctx, cb.ID, d.texts.StoreFailure)
	}
	if !exists {
		return d.tr.AnswerCallback(ctx, cb.ID, d.texts.UserNotFound)
	}
	d.router.StartDialog(targetID)
	d.hub.Publish(events.Event{Type: events.TypeDialogStarted, UserID: targetID})
	if err := d.tr.Send(ctx, cb.ChatID, fmt.Sprintf(d.texts.DialogStarted, targetID)); err != nil {
		return err
	}
	return d.tr.AnswerCallback(ctx, cb.ID, "")
}

// --- Keyboards ---

func (d *Dispatcher) mainKeyboard() types.ReplyKeyboard {
	return types.ReplyKeyboard{
		Rows: [][]string{
			{d.texts.BtnApply},
			{d.texts.BtnQuestion},
			{d.texts.BtnCancel},
		},
		OneTime: true,
	}
}

func (d *Dispatcher) adminKeyboard() types.ReplyKeyboard {
	return types.ReplyKeyboard{
		Rows: [][]string{
			{d.texts.BtnUsers, d.texts.BtnHistory},
			{d.texts.BtnPurgeOld, d.texts.BtnPurgeAll},
			{d.texts.BtnEndDialog, d.texts.BtnCancel},
		},
	}
}

func (d *Dispatcher) vacancyKeyboard() types.InlineKeyboard {
	kb := types.InlineKeyboard{}
	for _, v := range d.texts.Vacancies {
		kb.Rows = append(kb.Rows, []types.InlineButton{{
			Text: v.Label,
			Data: "vacancy_" + v.Code,
		}})
	}
	return kb
}

func (d *Dispatcher) replyKeyboard(userID int64) types.InlineKeyboard {
	return types.InlineKeyboard{
		Rows: [][]types.InlineButton{{
			{Text: "💬 Ответить", Data: fmt.Sprintf("reply_%d", userID)},
		}},
	}
}

// --- Helpers ---

func (d *Dispatcher) identityNotice(in types.Inbound) string {
	return fmt.Sprintf("👤 От: %s (@%s)\nid: %d", in.FirstName, usernameOr(in.Username), in.UserID)
}

func usernameOr(username string) string {
	if username == "" {
		return "no_username"
	}
	return username
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
