package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Scoring   ScoringConfig
	Narrative NarrativeConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Stores    StoresConfig
	Sheets    SheetsConfig
	Database  DatabaseConfig
	SQLite    SQLiteConfig
	Local     LocalStoreConfig
	Redis     RedisConfig
	Report    ReportConfig
	Admin     AdminConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host             string
	Port             int
	AllowedOrigins   []string
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

// AppConfig holds application-wide settings
type AppConfig struct {
	Environment       string
	Version           string
	TimeZoneName      string
	TimeZoneOffset    int
	QuestionnairePath string
	SessionTTL        time.Duration
}

// ScoringConfig holds classification thresholds.
// The values are tuning knobs; only their relative ordering matters.
type ScoringConfig struct {
	GoodThreshold    float64
	CautionThreshold float64
	HealthyThreshold float64
	HighRiskBelow    float64
	MediumRiskBelow  float64
}

// NarrativeConfig holds narrative generation settings
type NarrativeConfig struct {
	Provider        string
	RetryDelay      time.Duration
	MaxChars        int
	Temperature     float64
	MaxOutputTokens int
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GeminiConfig holds Gemini configuration
type GeminiConfig struct {
	APIKey string
	Model  string
}

// StoresConfig lists the record and event store chains in fallback order
type StoresConfig struct {
	Chain []string
}

// SheetsConfig holds Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetID            string
	ServiceAccountJSON       string
	ServiceAccountJSONBase64 string
	ResponsesSheet           string
	EventsSheet              string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// ConnectAttempts bounds the startup ping; a store that cannot be
	// reached is dropped from the chain.
	ConnectAttempts int
}

// SQLiteConfig holds the local SQLite store configuration
type SQLiteConfig struct {
	Path string
}

// LocalStoreConfig holds the CSV fallback paths
type LocalStoreConfig struct {
	ResponsesPath string
	EventsPath    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int

	DialTimeout     time.Duration
	ConnectAttempts int
}

// ReportConfig holds report rendering configuration
type ReportConfig struct {
	Title         string
	CTAURL        string
	BrandColor    string
	LogoPath      string
	LogoURL       string
	FontPaths      []string
	MaxImageWidth  int
	MaxImageHeight int
}

// AdminConfig holds admin view configuration
type AdminConfig struct {
	Mode  bool
	Token string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:             getEnv("SERVER_HOST", "0.0.0.0"),
			Port:             getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins:   getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
			SubmitRateLimit:  getEnvAsInt("SUBMIT_RATE_LIMIT", 20),
			SubmitRateWindow: getEnvAsDuration("SUBMIT_RATE_WINDOW", time.Hour),
		},
		App: AppConfig{
			Environment:       getEnv("APP_ENV", "development"),
			Version:           getEnv("APP_VERSION", "cf-v1.0.0"),
			TimeZoneName:      getEnv("APP_TZ_NAME", "JST"),
			TimeZoneOffset:    getEnvAsInt("APP_TZ_OFFSET_HOURS", 9),
			QuestionnairePath: getEnv("QUESTIONNAIRE_PATH", ""),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Scoring: ScoringConfig{
			GoodThreshold:    getEnvAsFloat("SIGNAL_GOOD_THRESHOLD", 4.0),
			CautionThreshold: getEnvAsFloat("SIGNAL_CAUTION_THRESHOLD", 2.6),
			HealthyThreshold: getEnvAsFloat("CATEGORY_HEALTHY_THRESHOLD", 4.0),
			HighRiskBelow:    getEnvAsFloat("RISK_HIGH_BELOW", 2.0),
			MediumRiskBelow:  getEnvAsFloat("RISK_MEDIUM_BELOW", 3.5),
		},
		Narrative: NarrativeConfig{
			Provider:        strings.ToLower(getEnv("NARRATIVE_PROVIDER", "")),
			RetryDelay:      getEnvAsDuration("NARRATIVE_RETRY_DELAY", 4*time.Second),
			MaxChars:        getEnvAsInt("NARRATIVE_MAX_CHARS", 520),
			Temperature:     getEnvAsFloat("NARRATIVE_TEMPERATURE", 0.4),
			MaxOutputTokens: getEnvAsInt("NARRATIVE_MAX_OUTPUT_TOKENS", 420),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 20*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Stores: StoresConfig{
			Chain: getEnvAsList("STORE_CHAIN", []string{"sheets", "csv"}),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:            getEnv("SPREADSHEET_ID", ""),
			ServiceAccountJSON:       getEnv("GOOGLE_SERVICE_JSON", ""),
			ServiceAccountJSONBase64: getEnv("GOOGLE_SERVICE_JSON_BASE64", ""),
			ResponsesSheet:           getEnv("SHEETS_RESPONSES_TAB", "responses"),
			EventsSheet:              getEnv("SHEETS_EVENTS_TAB", "events"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "cashflow_diagnosis"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectAttempts: getEnvAsInt("DB_CONNECT_ATTEMPTS", 3),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "diagnosis.db"),
		},
		Local: LocalStoreConfig{
			ResponsesPath: getEnv("LOCAL_RESPONSES_CSV", "responses.csv"),
			EventsPath:    getEnv("LOCAL_EVENTS_CSV", "events.csv"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),

			DialTimeout:     getEnvAsDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ConnectAttempts: getEnvAsInt("REDIS_CONNECT_ATTEMPTS", 3),
		},
		Report: ReportConfig{
			Title:      getEnv("REPORT_TITLE", "Cash-flow Quick Diagnosis Report"),
			CTAURL:     getEnv("REPORT_CTA_URL", "https://victorconsulting.jp/spot-diagnosis/"),
			BrandColor: getEnv("REPORT_BRAND_COLOR", "#f0f7f7"),
			LogoPath:   getEnv("REPORT_LOGO_PATH", "assets/CImark.png"),
			LogoURL:    getEnv("REPORT_LOGO_URL", "https://victorconsulting.jp/wp-content/uploads/2025/10/CImark.png"),
			FontPaths: getEnvAsList("REPORT_FONT_PATHS", []string{
				"NotoSansJP-Regular.ttf",
				"assets/fonts/NotoSansJP-Regular.ttf",
				"/usr/share/fonts/truetype/noto/NotoSansJP-Regular.ttf",
			}),
			MaxImageWidth:  getEnvAsInt("REPORT_MAX_IMAGE_WIDTH", 120),
			MaxImageHeight: getEnvAsInt("REPORT_MAX_IMAGE_HEIGHT", 60),
		},
		Admin: AdminConfig{
			Mode:  getEnv("ADMIN_MODE", "0") == "1",
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "cashflow-diagnosis"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if cfg.Narrative.MaxChars < 2 {
		return nil, fmt.Errorf("NARRATIVE_MAX_CHARS must be at least 2, got %d", cfg.Narrative.MaxChars)
	}
	return cfg, nil
}

// Validate checks that the thresholds keep their relative ordering.
func (c ScoringConfig) Validate() error {
	if c.CautionThreshold >= c.GoodThreshold {
		return fmt.Errorf("caution threshold %.2f must be below good threshold %.2f", c.CautionThreshold, c.GoodThreshold)
	}
	if c.HighRiskBelow >= c.MediumRiskBelow {
		return fmt.Errorf("high risk cutoff %.2f must be below medium risk cutoff %.2f", c.HighRiskBelow, c.MediumRiskBelow)
	}
	return nil
}

// Location returns the fixed-offset zone used for timestamps
func (c *AppConfig) Location() *time.Location {
	return time.FixedZone(c.TimeZoneName, c.TimeZoneOffset*60*60)
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
