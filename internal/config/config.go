package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv      = "BEAUTYBOT_CONFIG"
	emailSenderEnv     = "EMAIL_SENDER"
	emailReceiverEnv   = "EMAIL_RECEIVER"
	smtpServerEnv      = "SMTP_SERVER"
	smtpPortEnv        = "SMTP_PORT"
	smtpPassEnv        = "SMTP_PASS"
	openAIKeyEnv       = "OPENAI_KEY"
	openAIModelEnv     = "OPENAI_MODEL"
	perplexityKeyEnv   = "PERPLEXITY_API_KEY"
	databaseDSNEnv     = "DATABASE_DSN"
	selectionPolicyEnv = "SELECTION_POLICY"
)

// Selection policy names recognized in configuration.
const (
	PolicyFirstUnseen    = "first_unseen"
	PolicyWeekdayIndexed = "weekday_indexed"
)

// ConfigurationError marks a setting that is structurally unusable.
// It is the only error class that exits the process non-zero.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Setting, e.Reason)
}

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Mail      MailConfig      `yaml:"mail"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Research  ResearchConfig  `yaml:"research"`
	History   HistoryConfig   `yaml:"history"`
	Selection SelectionConfig `yaml:"selection"`
	Keywords  KeywordsConfig  `yaml:"keywords"`
	Sites     []SiteConfig    `yaml:"sites"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when and in which timezone the pipeline runs.
// Mode "once" runs a single cycle and exits (the normal cron-driven
// deployment); "daemon" keeps the process alive and triggers daily.
type SchedulerConfig struct {
	Mode     string         `yaml:"mode" validate:"oneof=once daemon"`
	Hour     int            `yaml:"hour" validate:"min=0,max=23"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// MailConfig wires the SMTP session and message envelope.
type MailConfig struct {
	Sender     string `yaml:"sender" validate:"omitempty,email"`
	Recipients string `yaml:"recipients"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port" validate:"min=1,max=65535"`
	Password   string `yaml:"password"`
	Subject    string `yaml:"subject"`
}

// RecipientList splits the comma-separated recipients setting.
func (m MailConfig) RecipientList() []string {
	var out []string
	for _, addr := range strings.Split(m.Recipients, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// OpenAIConfig defines how to contact the copywriting API.
type OpenAIConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	SystemPrompt string  `yaml:"systemPrompt"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"maxTokens"`
}

// ResearchConfig defines the weekly-batch research API.
type ResearchConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	BatchSize int    `yaml:"batchSize" validate:"min=1,max=7"`
}

// HistoryConfig selects and parameterizes the history backend.
type HistoryConfig struct {
	Backend   string `yaml:"backend" validate:"oneof=file postgres"`
	Path      string `yaml:"path"`
	BatchPath string `yaml:"batchPath"`
	LockPath  string `yaml:"lockPath"`
	DSN       string `yaml:"dsn"`
}

// SelectionConfig picks the publication policy.
type SelectionConfig struct {
	Policy string `yaml:"policy" validate:"oneof=first_unseen weekday_indexed"`
}

// KeywordsConfig carries the content-relevance predicate lists.
type KeywordsConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// SiteConfig describes a single discovery source with its scanner strategy.
type SiteConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URL     string            `yaml:"url"`
	Limit   int               `yaml:"limit"`
	Options map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present), applies environment
// overrides, and validates structural settings. Missing credentials are
// not errors here; the owning pipeline step degrades at run time.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	if err := validator.New().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return Config{}, &ConfigurationError{
				Setting: errs[0].Namespace(),
				Reason:  fmt.Sprintf("failed %q constraint", errs[0].Tag()),
			}
		}
		return Config{}, &ConfigurationError{Setting: "config", Reason: err.Error()}
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(emailSenderEnv); v != "" {
		c.Mail.Sender = v
	}
	if v := os.Getenv(emailReceiverEnv); v != "" {
		c.Mail.Recipients = v
	}
	if v := os.Getenv(smtpServerEnv); v != "" {
		c.Mail.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ConfigurationError{Setting: smtpPortEnv, Reason: "must be a number"}
		}
		c.Mail.Port = port
	}
	if v := os.Getenv(smtpPassEnv); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(perplexityKeyEnv); v != "" {
		c.Research.APIKey = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.History.DSN = v
	}
	if v := os.Getenv(selectionPolicyEnv); v != "" {
		c.Selection.Policy = v
	}
	return nil
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scheduler.Mode != "" {
		base.Scheduler.Mode = override.Scheduler.Mode
	}
	if override.Scheduler.Hour != 0 {
		base.Scheduler.Hour = override.Scheduler.Hour
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Mail.Sender != "" {
		base.Mail.Sender = override.Mail.Sender
	}
	if override.Mail.Recipients != "" {
		base.Mail.Recipients = override.Mail.Recipients
	}
	if override.Mail.Host != "" {
		base.Mail.Host = override.Mail.Host
	}
	if override.Mail.Port != 0 {
		base.Mail.Port = override.Mail.Port
	}
	if override.Mail.Password != "" {
		base.Mail.Password = override.Mail.Password
	}
	if override.Mail.Subject != "" {
		base.Mail.Subject = override.Mail.Subject
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.SystemPrompt != "" {
		base.OpenAI.SystemPrompt = override.OpenAI.SystemPrompt
	}
	if override.OpenAI.Temperature != 0 {
		base.OpenAI.Temperature = override.OpenAI.Temperature
	}
	if override.OpenAI.MaxTokens != 0 {
		base.OpenAI.MaxTokens = override.OpenAI.MaxTokens
	}

	if override.Research.Endpoint != "" {
		base.Research.Endpoint = override.Research.Endpoint
	}
	if override.Research.Model != "" {
		base.Research.Model = override.Research.Model
	}
	if override.Research.APIKey != "" {
		base.Research.APIKey = override.Research.APIKey
	}
	if override.Research.BatchSize != 0 {
		base.Research.BatchSize = override.Research.BatchSize
	}

	if override.History.Backend != "" {
		base.History.Backend = override.History.Backend
	}
	if override.History.Path != "" {
		base.History.Path = override.History.Path
	}
	if override.History.BatchPath != "" {
		base.History.BatchPath = override.History.BatchPath
	}
	if override.History.LockPath != "" {
		base.History.LockPath = override.History.LockPath
	}
	if override.History.DSN != "" {
		base.History.DSN = override.History.DSN
	}

	if override.Selection.Policy != "" {
		base.Selection.Policy = override.Selection.Policy
	}

	if len(override.Keywords.Include) > 0 {
		base.Keywords.Include = override.Keywords.Include
	}
	if len(override.Keywords.Exclude) > 0 {
		base.Keywords.Exclude = override.Keywords.Exclude
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Mode: "once", Hour: 8, Timezone: defaultTimezone, location: tz},
		Mail: MailConfig{
			Host:    "smtp.gmail.com",
			Port:    587,
			Subject: "Your natural skincare pick of the day",
		},
		OpenAI: OpenAIConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o",
			SystemPrompt: "Newsletter copywriter for a daily skincare digest.",
			Temperature:  0.3,
			MaxTokens:    1500,
		},
		Research: ResearchConfig{
			Endpoint:  "https://api.perplexity.ai/chat/completions",
			Model:     "sonar",
			BatchSize: 5,
		},
		History: HistoryConfig{
			Backend:   "file",
			Path:      "state.json",
			BatchPath: "weekly_batch.json",
			LockPath:  "beautybot.lock",
		},
		Selection: SelectionConfig{Policy: PolicyFirstUnseen},
		Keywords: KeywordsConfig{
			Include: []string{
				"natural", "cruelty-free", "serum", "acne", "spf",
				"cleanser", "toner", "hydrating", "retinol",
			},
			Exclude: []string{
				"magazine", "editorial", "celebrity", "event", "giveaway",
			},
		},
		Sites: []SiteConfig{
			{
				Name:    "google-news",
				Scanner: "rss",
				URL:     "https://news.google.com/rss/search?q=skincare+OR+cruelty-free+OR+serum&hl=en&gl=US&ceid=US:en",
				Limit:   20,
			},
			{
				Name:    "sephora-best-sellers",
				Scanner: "selector",
				URL:     "https://www.sephora.com/shop/best-selling-skin-care",
				Limit:   10,
				Options: map[string]string{
					"item":  "div.css-1w8vjjz",
					"title": "span.css-0",
				},
			},
			{
				Name:    "allure-skincare",
				Scanner: "selector",
				URL:     "https://www.allure.com/topic/skin-care",
				Limit:   10,
				Options: map[string]string{
					"item":       "a.link-for-card",
					"linkAttr":   "href",
					"linkPrefix": "https://www.allure.com",
				},
			},
			{
				Name:    "byrdie-skincare",
				Scanner: "selector",
				URL:     "https://www.byrdie.com/skin-care-4691945",
				Limit:   10,
				Options: map[string]string{
					"item":      "a.comp.mntl-card-list-items.mntl-document-card",
					"titleAttr": "title",
					"linkAttr":  "href",
				},
			},
			{
				Name:    "glossy-beauty",
				Scanner: "selector",
				URL:     "https://www.glossy.co/beauty/",
				Limit:   10,
				Options: map[string]string{
					"item":     "article a",
					"linkAttr": "href",
				},
			},
		},
	}
}
