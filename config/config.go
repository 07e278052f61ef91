package config

import (
	"time"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12222"`
	APIKey      string `env:"API_KEY,required" validate:"required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	// Timezone anchors the start of the monthly quota period.
	Timezone string `env:"APP_TIMEZONE" envDefault:"Asia/Tokyo"`
}

type CardstackDatabaseConfig struct {
	Host            string `env:"CARDSTACK_POSTGRES_HOST,required"`
	Port            string `env:"CARDSTACK_POSTGRES_PORT,required"`
	User            string `env:"CARDSTACK_POSTGRES_USER,required"`
	DBName          string `env:"CARDSTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"CARDSTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"CARDSTACK_POSTGRES_DB_MAX_CONN" envDefault:"25"`
	MaxIdleConn     int    `env:"CARDSTACK_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"CARDSTACK_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"CARDSTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"CARDSTACK_POSTGRES_SSL_MODE" envDefault:"require"`
}

type R2StorageConfig struct {
	AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	CardImageBucket string `env:"BUCKET_NAME_CARD_IMAGES" envDefault:"card-images"`
	CDNDomain       string `env:"CARD_IMAGES_CDN_DOMAIN"`
}

func (c *R2StorageConfig) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != ""
}

type AIConfig struct {
	// EngineType selects the completion backend once at startup: "azure" or "gemini".
	EngineType string `env:"AI_ENGINE_TYPE" envDefault:"azure" validate:"oneof=azure gemini"`

	AzureOpenAIEndpoint   string `env:"AZURE_OPENAI_ENDPOINT"`
	AzureOpenAIKey        string `env:"AZURE_OPENAI_KEY"`
	AzureOpenAIDeployment string `env:"AZURE_OPENAI_DEPLOYMENT" envDefault:"gpt-4o"`
	AzureOpenAIAPIVersion string `env:"AZURE_OPENAI_API_VERSION" envDefault:"2025-01-01-preview"`

	AzureVisionEndpoint string `env:"AZURE_VISION_ENDPOINT"`
	AzureVisionKey      string `env:"AZURE_VISION_KEY"`

	GeminiURL          string        `env:"GEMINI_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiMaxAttempts  uint64        `env:"GEMINI_MAX_ATTEMPTS" envDefault:"3" validate:"min=1"`
	GeminiRetryBackoff time.Duration `env:"GEMINI_RETRY_BACKOFF" envDefault:"1s"`

	RequestTimeout time.Duration `env:"AI_REQUEST_TIMEOUT" envDefault:"60s"`
}

type MailConfig struct {
	ResendURL      string        `env:"RESEND_URL" envDefault:"https://api.resend.com"`
	ResendAPIKey   string        `env:"RESEND_API_KEY"`
	PlatformSender string        `env:"MAIL_PLATFORM_SENDER" envDefault:"info@email.we-sales.com" validate:"required,email"`
	DefaultName    string        `env:"MAIL_DEFAULT_SENDER_NAME" envDefault:"WeSales User"`
	RelaySMTPHost  string        `env:"RELAY_SMTP_HOST" envDefault:"smtp.gmail.com"`
	RelaySMTPPort  int           `env:"RELAY_SMTP_PORT" envDefault:"465"`
	RequestTimeout time.Duration `env:"MAIL_REQUEST_TIMEOUT" envDefault:"30s"`
}

type OutreachConfig struct {
	// SendDelay is the pause after each successful send inside a batch.
	SendDelay       time.Duration `env:"OUTREACH_SEND_DELAY" envDefault:"1s"`
	WebInfoTimeout  time.Duration `env:"OUTREACH_WEBINFO_TIMEOUT" envDefault:"10s"`
	WebInfoCacheTTL time.Duration `env:"OUTREACH_WEBINFO_CACHE_TTL" envDefault:"1h"`
}

type ImportConfig struct {
	// StrictSchema rejects uploads whose headers match no known vocabulary.
	StrictSchema bool  `env:"IMPORT_STRICT_SCHEMA" envDefault:"false"`
	MaxFileSize  int64 `env:"IMPORT_MAX_FILE_SIZE" envDefault:"10485760"`
}
