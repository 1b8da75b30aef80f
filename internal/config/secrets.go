package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Secrets never come from the config file.
type Secrets struct {
	QuiverAPIKey   string
	TelegramToken  string
	TelegramChatID string
}

// LoadSecrets reads credentials from the environment after loading envFile
// (or ./.env when empty). A missing env file is not an error.
func LoadSecrets(envFile string) Secrets {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}
	return Secrets{
		QuiverAPIKey:   strings.TrimSpace(os.Getenv("QUIVER_API_KEY")),
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		TelegramChatID: strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
	}
}

// ApplyEnv copies secrets and the DSN override onto cfg.
func (cfg *Config) ApplyEnv(s Secrets) {
	cfg.Secrets = s
	if dsn := strings.TrimSpace(os.Getenv("SMARTMONEY_DB_DSN")); dsn != "" {
		cfg.Storage.DSN = dsn
	}
}

func (s Secrets) Masked() map[string]string {
	return map[string]string{
		"quiver_api_key":   maskSecret(s.QuiverAPIKey),
		"telegram_token":   maskSecret(s.TelegramToken),
		"telegram_chat_id": maskSecret(s.TelegramChatID),
	}
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
