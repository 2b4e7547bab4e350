package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	MenuStyleKeyboard = "keyboard"
	MenuStyleInline   = "inline"
)

type Config struct {
	BotToken     string
	AdminUserID  int64
	DatabasePath string

	// SessionGating: when false every user message is relayed without a
	// prior menu selection.
	SessionGating bool
	// AdminMenuStyle: "keyboard" lists users as text plus typed-id entry,
	// "inline" renders them as buttons bound to the user id.
	AdminMenuStyle string

	// Ops HTTP API. Empty OpsAddr disables it entirely; empty OpsJWTSecret
	// leaves only /healthz exposed.
	OpsAddr      string
	OpsJWTSecret string

	// Optional YAML file overriding the built-in texts and vacancy catalog.
	TextsFile string
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BotToken:       getEnv("BOT_TOKEN", ""),
		DatabasePath:   getEnv("DATABASE_URL", "dialogs.db"),
		SessionGating:  getEnv("SESSION_GATING", "enabled") != "disabled",
		AdminMenuStyle: getEnv("ADMIN_MENU_STYLE", MenuStyleKeyboard),
		OpsAddr:        getEnv("OPS_ADDR", ""),
		OpsJWTSecret:   getEnv("OPS_JWT_SECRET", ""),
		TextsFile:      getEnv("TEXTS_FILE", ""),
	}

	if cfg.BotToken == "" {
		return cfg, fmt.Errorf("BOT_TOKEN is not set")
	}

	adminRaw := getEnv("ADMIN_USER_ID", "")
	if adminRaw == "" {
		return cfg, fmt.Errorf("ADMIN_USER_ID is not set")
	}
	adminID, err := strconv.ParseInt(adminRaw, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("ADMIN_USER_ID must be an integer: %w", err)
	}
	cfg.AdminUserID = adminID

	if cfg.AdminMenuStyle != MenuStyleKeyboard && cfg.AdminMenuStyle != MenuStyleInline {
		return cfg, fmt.Errorf("ADMIN_MENU_STYLE must be %q or %q", MenuStyleKeyboard, MenuStyleInline)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
