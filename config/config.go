package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB   int    `mapstructure:"REDIS_SESSION_DB"`
	RedisAuthDB      int    `mapstructure:"REDIS_AUTH_DB"`
	RedisTaskQueueDB int    `mapstructure:"REDIS_TASK_QUEUE_DB"`

	// Gemini API key for the intent classifier.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	// Google Calendar access.
	CalendarCredentialsFile string `mapstructure:"GOOGLE_CALENDAR_CREDENTIALS_FILE"`
	CalendarID              string `mapstructure:"CALENDAR_ID"`

	// Scheduling defaults.
	DefaultTimezone   string `mapstructure:"DEFAULT_TIMEZONE"`
	WorkDayStartHour  int    `mapstructure:"WORK_DAY_START_HOUR"`
	WorkDayEndHour    int    `mapstructure:"WORK_DAY_END_HOUR"`
	SessionTTLMinutes int    `mapstructure:"SESSION_TTL_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GOOGLE_CALENDAR_CREDENTIALS_FILE", "")
	viper.SetDefault("CALENDAR_ID", "primary")
	viper.SetDefault("DEFAULT_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("WORK_DAY_START_HOUR", 8)
	viper.SetDefault("WORK_DAY_END_HOUR", 18)
	viper.SetDefault("SESSION_TTL_MINUTES", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// WorkDayHours returns the configured working-hours window, falling back to
// 8-18 when unset or inverted.
func WorkDayHours() (int, int) {
	start, end := AppConfig.WorkDayStartHour, AppConfig.WorkDayEndHour
	if start <= 0 || end <= start {
		return 8, 18
	}
	return start, end
}
