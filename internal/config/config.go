package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
)

// Config holds everything a sync run needs. It is built once in main and
// passed down explicitly.
type Config struct {
	Domain       string `validate:"required"`
	BaseURL      string `validate:"omitempty,url"`
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`

	RateLimitDelay time.Duration `validate:"gte=0"`
	PageSize       int           `validate:"gte=1,lte=100"`
	LogsPerUser    int           `validate:"gte=1,lte=100"`
	StrictFetch    bool

	OrgDomains []string `validate:"dive,required,hostname"`

	Sink          string `validate:"oneof=postgres redis"`
	RedisAddr     string `validate:"required_if=Sink redis"`
	RedisPassword string

	PushgatewayURL string `validate:"omitempty,url"`
	SnowflakeNode  int64  `validate:"gte=0,lte=1023"`
}

var validate = validator.New()

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Domain:         getEnv("AUTH0_DOMAIN", "oxide"),
		BaseURL:        getEnv("AUTH0_BASE_URL", ""),
		ClientID:       os.Getenv("CIO_AUTH0_CLIENT_ID"),
		ClientSecret:   os.Getenv("CIO_AUTH0_CLIENT_SECRET"),
		StrictFetch:    getEnv("SYNC_STRICT_FETCH", "false") == "true",
		OrgDomains:     splitList(getEnv("ORG_DOMAINS", "oxidecomputer.com,oxide.computer")),
		Sink:           strings.ToLower(getEnv("SYNC_SINK", SinkPostgres)),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}

	var err error
	if cfg.RateLimitDelay, err = time.ParseDuration(getEnv("SYNC_RATE_LIMIT_DELAY", "2s")); err != nil {
		return nil, fmt.Errorf("invalid SYNC_RATE_LIMIT_DELAY value: %w", err)
	}
	if cfg.PageSize, err = strconv.Atoi(getEnv("SYNC_PAGE_SIZE", "20")); err != nil {
		return nil, fmt.Errorf("invalid SYNC_PAGE_SIZE value: %w", err)
	}
	if cfg.LogsPerUser, err = strconv.Atoi(getEnv("SYNC_LOGS_PER_USER", "100")); err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOGS_PER_USER value: %w", err)
	}
	if cfg.SnowflakeNode, err = strconv.ParseInt(getEnv("SNOWFLAKE_NODE", "1"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid SNOWFLAKE_NODE value: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and reports missing credentials by
// their environment variable names.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Audience is the management API identifier requested with the token.
func (c *Config) Audience() string {
	return fmt.Sprintf("https://%s.auth0.com/api/v2/", c.Domain)
}

// APIBaseURL is the tenant root every request is issued against.
func (c *Config) APIBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.auth0.com", c.Domain)
}

var envNames = map[string]string{
	"Domain":         "AUTH0_DOMAIN",
	"BaseURL":        "AUTH0_BASE_URL",
	"ClientID":       "CIO_AUTH0_CLIENT_ID",
	"ClientSecret":   "CIO_AUTH0_CLIENT_SECRET",
	"RateLimitDelay": "SYNC_RATE_LIMIT_DELAY",
	"PageSize":       "SYNC_PAGE_SIZE",
	"LogsPerUser":    "SYNC_LOGS_PER_USER",
	"OrgDomains":     "ORG_DOMAINS",
	"Sink":           "SYNC_SINK",
	"RedisAddr":      "REDIS_ADDR",
	"PushgatewayURL": "PUSHGATEWAY_URL",
	"SnowflakeNode":  "SNOWFLAKE_NODE",
}

func describe(fe validator.FieldError) string {
	field := fe.StructField()
	if name, ok := envNames[field]; ok {
		field = name
	} else if i := strings.IndexByte(fe.Namespace(), '.'); i >= 0 {
		field = fe.Namespace()[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_if":
		return field + " must be set"
	default:
		return fmt.Sprintf("%s failed %q check", field, fe.Tag())
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
