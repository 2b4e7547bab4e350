package bot

import (
	"context"
	"time"

	"relaybot/relaybot/controllers"
	"relaybot/relaybot/utils/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const handleTimeout = 30 * time.Second

// Bot runs the long-poll update loop and hands every update to the
// dispatcher. Updates are handled one at a time; the dispatcher owns no
// ordering guarantees beyond that.
type Bot struct {
	tr         *Telegram
	dispatcher *controllers.Dispatcher
}

func New(tr *Telegram, dispatcher *controllers.Dispatcher) *Bot {
	return &Bot{tr: tr, dispatcher: dispatcher}
}

func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.tr.api.GetUpdatesChan(u)

	logging.AppLogger.Info("bot started", zap.String("username", b.tr.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.tr.api.StopReceivingUpdates()
			logging.AppLogger.Info("bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	switch {
	case update.Message != nil && update.Message.From != nil:
		in := inboundFromMessage(update.Message)
		logging.BotLogger.Info("update",
			zap.Int64("user_id", in.UserID),
			zap.String("kind", string(in.Kind)),
			zap.Bool("command", in.IsCommand),
		)
		if err := b.dispatcher.HandleMessage(ctx, in); err != nil {
			logging.ErrorLogger.Error("handle message error",
				zap.Int64("user_id", in.UserID), zap.Error(err))
		}
	case update.CallbackQuery != nil:
		cb := callbackFromQuery(update.CallbackQuery)
		logging.BotLogger.Info("callback",
			zap.Int64("user_id", cb.UserID),
			zap.String("data", cb.Data),
		)
		if err := b.dispatcher.HandleCallback(ctx, cb); err != nil {
			logging.ErrorLogger.Error("handle callback error",
				zap.Int64("user_id", cb.UserID), zap.Error(err))
		}
	}
}
