package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Proposal ProposalConfig
	Auth     AuthConfig
}

type AppConfig struct {
	Port               string `env:"APP_PORT" envDefault:"3000"`
	BaseURL            string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	Environment        string `env:"GO_ENV" envDefault:"development"`
	LogFilePath        string `env:"LOG_FILE_PATH" envDefault:"logs/app.log"`
	CorsAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
	NatsURL            string `env:"NATS_URL"`
	RedisURL           string `env:"REDIS_URL"`
	UploadDir          string `env:"UPLOAD_DIR" envDefault:"uploads"`
	QuestionnaireFile  string `env:"QUESTIONNAIRE_FILE"`
}

type DatabaseConfig struct {
	Connection string `env:"DB_CONNECTION_STRING"`
}

type SMTPConfig struct {
	Host       string `env:"SMTP_HOST"`
	Port       int    `env:"SMTP_PORT" envDefault:"587"`
	Email      string `env:"SMTP_EMAIL"`
	Password   string `env:"SMTP_PASSWORD"`
	SenderName string `env:"SMTP_SENDER_NAME" envDefault:"Water Treatment Solutions"`
}

type AIConfig struct {
	Provider            string        `env:"LLM_PROVIDER" envDefault:"ollama"` // ollama, openai, groq, anthropic
	Model               string        `env:"LLM_MODEL" envDefault:"llama3"`
	BaseURL             string        `env:"LLM_BASE_URL"`
	APIKey              string        `env:"LLM_API_KEY"`
	Timeout             time.Duration `env:"LLM_TIMEOUT" envDefault:"3m"`
	ProposalMaxTokens   int           `env:"PROPOSAL_MAX_TOKENS" envDefault:"7000"`
	ProposalTemperature float64       `env:"PROPOSAL_TEMPERATURE" envDefault:"0.7"`
	IntakeMaxTokens     int           `env:"INTAKE_MAX_TOKENS" envDefault:"600"`
	CallLogPath         string        `env:"LLM_CALL_LOG" envDefault:"logs/llm_calls.log"`
}

type ProposalConfig struct {
	CompanyName   string        `env:"PROPOSAL_COMPANY_NAME" envDefault:"Water Treatment Solutions"`
	ContactLine   string        `env:"PROPOSAL_CONTACT_LINE" envDefault:"info@water-treatment.example | +1 555 0100"`
	LockTTL       time.Duration `env:"PROPOSAL_LOCK_TTL" envDefault:"15m"`
	LockWait      time.Duration `env:"PROPOSAL_LOCK_WAIT" envDefault:"10m"`
	RetryAttempts int           `env:"PROPOSAL_RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelay    time.Duration `env:"PROPOSAL_RETRY_DELAY" envDefault:"30s"`
	RetryTopic    string        `env:"PROPOSAL_RETRY_TOPIC" envDefault:"PROPOSAL_RETRY"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("[FATAL] Invalid configuration: %v", err)
	}
	return cfg
}

// Parse decodes the process environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.Email != ""
}
