package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ComplaintCSVPath  string `yaml:"complaint_csv_path"`
	ProductionCSVPath string `yaml:"production_csv_path"`
	SamplingCSVPath   string `yaml:"sampling_csv_path"`
	CleaningCSVPath   string `yaml:"cleaning_csv_path"`
	TestingCSVPath    string `yaml:"testing_csv_path"`

	ComplaintCSVURL  string `yaml:"complaint_csv_url"`
	ProductionCSVURL string `yaml:"production_csv_url"`

	DBPath          string `yaml:"db_path"`
	ReportOutputDir string `yaml:"report_output_dir"`
	OutputCSVPath   string `yaml:"output_csv_path"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`

	LLMProvider       string `yaml:"llm_provider"`
	LLMModel          string `yaml:"llm_model"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	KnowledgeBasePath string `yaml:"knowledge_base_path"`

	RunSchedule               string `yaml:"run_schedule"`
	Timezone                  string `yaml:"timezone"`
	TeamName                  string `yaml:"team_name"`
	FilterFromDate            string `yaml:"filter_from_date"`
	ResponsibleUnit           string `yaml:"responsible_unit"`
	DueSoonDays               int    `yaml:"due_soon_days"`
	DownloadRetries           int    `yaml:"download_retries"`
	DownloadRetryDelaySeconds int    `yaml:"download_retry_delay_seconds"`

	Location   *time.Location `yaml:"-"`
	FilterFrom time.Time      `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ComplaintCSVPath, "COMPLAINT_CSV_PATH")
	envOverride(&cfg.ProductionCSVPath, "PRODUCTION_CSV_PATH")
	envOverride(&cfg.SamplingCSVPath, "SAMPLING_CSV_PATH")
	envOverride(&cfg.CleaningCSVPath, "CLEANING_CSV_PATH")
	envOverride(&cfg.TestingCSVPath, "TESTING_CSV_PATH")
	envOverride(&cfg.ComplaintCSVURL, "COMPLAINT_CSV_URL")
	envOverride(&cfg.ProductionCSVURL, "PRODUCTION_CSV_URL")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.OutputCSVPath, "OUTPUT_CSV_PATH")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.KnowledgeBasePath, "KNOWLEDGE_BASE_PATH")
	envOverride(&cfg.RunSchedule, "RUN_SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.TeamName, "TEAM_NAME")
	envOverride(&cfg.FilterFromDate, "FILTER_FROM_DATE")
	envOverride(&cfg.ResponsibleUnit, "RESPONSIBLE_UNIT")
	envOverrideInt(&cfg.DueSoonDays, "DUE_SOON_DAYS")
	envOverrideInt(&cfg.DownloadRetries, "DOWNLOAD_RETRIES")
	envOverrideInt(&cfg.DownloadRetryDelaySeconds, "DOWNLOAD_RETRY_DELAY_SECONDS")

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./qabot.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.TeamName == "" {
		cfg.TeamName = "QA"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Ho_Chi_Minh"
	}
	if cfg.FilterFromDate == "" {
		cfg.FilterFromDate = "2024-01-01"
	}
	if cfg.ResponsibleUnit == "" {
		cfg.ResponsibleUnit = "Nhà máy"
	}
	if cfg.DueSoonDays == 0 {
		cfg.DueSoonDays = 7
	}
	if cfg.DownloadRetries == 0 {
		cfg.DownloadRetries = 3
	}
	if cfg.DownloadRetryDelaySeconds == 0 {
		cfg.DownloadRetryDelaySeconds = 10
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}

	if cfg.ComplaintCSVPath == "" && cfg.ComplaintCSVURL == "" {
		log.Fatalf("Required config 'complaint_csv_path' or 'complaint_csv_url' is not set (via config.yaml or env var)")
	}
	if cfg.ProductionCSVPath == "" && cfg.ProductionCSVURL == "" {
		log.Fatalf("Required config 'production_csv_path' or 'production_csv_url' is not set (via config.yaml or env var)")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
	}
	cfg.Location = loc

	from, err := time.ParseInLocation("2006-01-02", cfg.FilterFromDate, loc)
	if err != nil {
		log.Fatalf("invalid filter_from_date '%s': %v", cfg.FilterFromDate, err)
	}
	cfg.FilterFrom = from

	if cfg.DueSoonDays < 1 {
		log.Fatalf("invalid due_soon_days '%d': must be >= 1", cfg.DueSoonDays)
	}
	if cfg.LLMConfigured() && cfg.LLMProvider != "anthropic" {
		log.Fatalf("llm_provider must be 'anthropic', got '%s'", cfg.LLMProvider)
	}

	return cfg
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

func (c Config) LLMConfigured() bool {
	return c.AnthropicAPIKey != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
