package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vacancy is one selectable role in the application menu. Code ends up in
// the callback data ("vacancy_<code>"), Label is shown to the user and
// stored as the application record content.
type Vacancy struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// Texts holds every user- and admin-facing string so a deployment can
// rebrand the bot without touching code.
type Texts struct {
	WelcomeAdmin string `yaml:"welcome_admin"`
	WelcomeUser  string `yaml:"welcome_user"`
	MenuAdmin    string `yaml:"menu_admin"`
	MenuUser     string `yaml:"menu_user"`

	BtnApply    string `yaml:"btn_apply"`
	BtnQuestion string `yaml:"btn_question"`
	BtnCancel   string `yaml:"btn_cancel"`

	BtnUsers     string `yaml:"btn_users"`
	BtnHistory   string `yaml:"btn_history"`
	BtnPurgeOld  string `yaml:"btn_purge_old"`
	BtnPurgeAll  string `yaml:"btn_purge_all"`
	BtnEndDialog string `yaml:"btn_end_dialog"`

	ChooseRole       string    `yaml:"choose_role"`
	Vacancies        []Vacancy `yaml:"vacancies"`
	ApplicationAck   string    `yaml:"application_ack"`
	Questionnaire    string    `yaml:"questionnaire"`
	QuestionPrompt   string    `yaml:"question_prompt"`
	QuestionLogEntry string    `yaml:"question_log_entry"`
	Cancelled        string    `yaml:"cancelled"`
	GateClosed       string    `yaml:"gate_closed"`

	UsersHeader      string `yaml:"users_header"`
	UsersFooter      string `yaml:"users_footer"`
	NoUsers          string `yaml:"no_users"`
	UnknownName      string `yaml:"unknown_name"`
	HistoryHint      string `yaml:"history_hint"`
	HistoryHeader    string `yaml:"history_header"`
	HistoryUsage     string `yaml:"history_usage"`
	HistoryBadID     string `yaml:"history_bad_id"`
	NoHistory        string `yaml:"no_history"`
	UserNotFound     string `yaml:"user_not_found"`
	DialogStarted    string `yaml:"dialog_started"`
	DialogEnded      string `yaml:"dialog_ended"`
	DialogNotStarted string `yaml:"dialog_not_started"`
	SelectUserFirst  string `yaml:"select_user_first"`
	ReplyReady       string `yaml:"reply_ready"`
	AccessDenied     string `yaml:"access_denied"`
	BadReplyID       string `yaml:"bad_reply_id"`
	PurgedOld        string `yaml:"purged_old"`
	PurgedAll        string `yaml:"purged_all"`
	StoreFailure     string `yaml:"store_failure"`

	AdminReplyWrap string `yaml:"admin_reply_wrap"`
	AdminReplyAck  string `yaml:"admin_reply_ack"`
}

// DefaultTexts returns the wording of the original Linxy bot.
func DefaultTexts() Texts {
	return Texts{
		WelcomeAdmin: "👋 Добро пожаловать, администратор!\n\n" +
			"Вы можете:\n" +
			"• Посмотреть список пользователей\n" +
			"• Увидеть историю переписки\n" +
			"• Очистить старые диалоги",
		WelcomeUser: "👋 На связи Linxy!\n\nРады приветствовать Вас)",
		MenuAdmin:   "Выберите действие:",
		MenuUser:    "Для подачи заявки используйте кнопки.",

		BtnApply:    "📝 Оставить заявку на работу",
		BtnQuestion: "❓ Задать вопрос",
		BtnCancel:   "❌ Отмена",

		BtnUsers:     "👥 Пользователи",
		BtnHistory:   "🗂 История",
		BtnPurgeOld:  "🧹 Очистить старые",
		BtnPurgeAll:  "🗑 Очистить всё",
		BtnEndDialog: "⏹ Завершить диалог",

		ChooseRole: "Выберите роль:",
		Vacancies: []Vacancy{
			{Code: "translator", Label: "Переводчик"},
			{Code: "editor", Label: "Редактор"},
			{Code: "cleaner", Label: "Клинер"},
			{Code: "typist", Label: "Тайпер"},
		},
		ApplicationAck: "✅ Ваша заявка отправлена администратору, ожидайте.\n\n" +
			"Теперь вы можете писать сообщения, и они будут пересланы администратору.",
		Questionnaire: "А теперь давайте заполним небольшую анкетку\n\n" +
			"1. Ссылка на ваш профиль на мангалиб\n" +
			"2. Возраст\n" +
			"3. Есть ли фотошоп\n" +
			"4. Ваш часовой пояс\n" +
			"5. Сколько времени можете уделять работе?\n" +
			"6. Жанры, с которыми хотите и не хотите работать",
		QuestionPrompt:   "Можете задавать вопрос администратору",
		QuestionLogEntry: "Пользователь начал задавать вопрос",
		Cancelled:        "❌ Действие отменено.",
		GateClosed: "Для начала взаимодействия с администратором выберите одну из кнопок: " +
			"'Оставить заявку' или 'Задать вопрос'",

		UsersHeader:      "👥 Пользователи:\n",
		UsersFooter:      "\n\nНапишите ID пользователя, чтобы начать диалог:",
		NoUsers:          "❌ Нет пользователей с перепиской.",
		UnknownName:      "Неизвестный",
		HistoryHint:      "Введите ID пользователя: /history <id>",
		HistoryHeader:    "💬 История с пользователем %d:\n\n",
		HistoryUsage:     "❌ Используй: /history <user_id>",
		HistoryBadID:     "❌ ID должен быть числом.",
		NoHistory:        "❌ Нет сообщений с этим пользователем.",
		UserNotFound:     "❌ Пользователь с таким ID не найден.",
		DialogStarted:    "✅ Диалог с пользователем ID: %d начат.\nТеперь пишите сообщение — оно будет отправлено ему.",
		DialogEnded:      "⏹ Диалог завершён.",
		DialogNotStarted: "ℹ️ Диалог не был начат.",
		SelectUserFirst:  "❌ Выберите пользователя для диалога через /users или введите ID.",
		ReplyReady:       "📝 Готов к ответу пользователю ID: %d\n\nНапишите сообщение — оно будет отправлено ему.",
		AccessDenied:     "❌ Доступ запрещён.",
		BadReplyID:       "❌ Ошибка в ID.",
		PurgedOld:        "✅ Старые диалоги очищены.",
		PurgedAll:        "✅ Вся история переписки очищена.",
		StoreFailure:     "⚠️ Произошла ошибка, попробуйте позже.",

		AdminReplyWrap: "💬 Ответ администратора:\n%s",
		AdminReplyAck:  "✅ Ответ отправлен пользователю.",
	}
}

// LoadTexts reads a YAML override on top of the defaults. Fields absent from
// the file keep their default value.
func LoadTexts(path string) (Texts, error) {
	texts := DefaultTexts()
	if path == "" {
		return texts, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return texts, fmt.Errorf("read texts file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &texts); err != nil {
		return texts, fmt.Errorf("parse texts file: %w", err)
	}
	return texts, nil
}
