package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	CanvasDomain         string
	CanvasAPIKey         string
	LookaheadDays        int
	DiscordBotToken      string
	DiscordUserID        string
	Notifier             string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	OpenAIAPIKey         string
	DatabaseURL          string
	SQLitePath           string
	CheckInterval        time.Duration
	Retention            time.Duration
	LocalTimezone        *time.Location
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "UTC")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to UTC: %v", timezoneName, err)
		location = time.UTC
	}

	return &Config{
		Port:                 getenvDefault("PORT", "8080"),
		CanvasDomain:         os.Getenv("CANVAS_DOMAIN"),
		CanvasAPIKey:         os.Getenv("CANVAS_API_KEY"),
		LookaheadDays:        ParseIntEnv("CANVAS_LOOKAHEAD_DAYS", 7),
		DiscordBotToken:      os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordUserID:        os.Getenv("DISCORD_USER_ID"),
		Notifier:             getenvDefault("NOTIFIER", "discord"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getenvDefault("SQLITE_PATH", "reminders.db"),
		CheckInterval:        parseDurationEnv("CHECK_INTERVAL", time.Minute),
		Retention:            parseDurationEnv("LEDGER_RETENTION", 24*time.Hour),
		LocalTimezone:        location,
	}
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseIntEnv returns the integer value for an environment variable or the provided default.
func ParseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as duration: %v", key, value, err)
		return def
	}
	return parsed
}
