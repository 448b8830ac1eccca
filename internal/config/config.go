package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

const (
	SourceFinnhub = "finnhub"
	SourceFixture = "fixture"
)

type Server struct {
	Port              string `json:"port" default:"8080" validate:"required,numeric"`
	RequestTimeoutSec int    `json:"request_timeout_sec" default:"10" validate:"gt=0"`
}

type Finnhub struct {
	APIKey                string `json:"api_key"`
	BaseURL               string `json:"base_url" default:"https://finnhub.io/api/v1" validate:"required,url"`
	EPSFrequency          string `json:"eps_frequency" default:"quarterly" validate:"oneof=quarterly annual"`
	ReportHorizonDays     int    `json:"report_horizon_days" default:"120" validate:"gt=0"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" default:"60" validate:"gte=0"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" validate:"gte=0"`
	Burst                 int    `json:"burst" default:"5" validate:"gte=1"`
	CacheTTLSeconds       int    `json:"cache_ttl_sec" default:"300" validate:"gte=0"`
	CacheMaxItems         int    `json:"cache_max_items" default:"10000" validate:"gte=0"`
}

type Fixture struct {
	Path string `json:"path"`
}

type Log struct {
	Level  string `json:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `json:"format" default:"json" validate:"oneof=json console"`
	Output string `json:"output" default:"stderr"`
}

type Config struct {
	Server  Server  `json:"server"`
	Source  string  `json:"source" default:"finnhub" validate:"oneof=finnhub fixture"`
	Finnhub Finnhub `json:"finnhub"`
	Fixture Fixture `json:"fixture"`
	Log     Log     `json:"log"`
}

var validate = validator.New()

// Default returns the configuration with every default applied.
func Default() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads JSON config from path. If path is empty, ./config.json is used
// when present; a missing file yields defaults. Environment variables
// override select fields for secrecy. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints and the rules that span sections.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Source == SourceFixture && c.Fixture.Path == "" {
		return errors.New("invalid config: fixture.path is required when source is fixture")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"PORT":                  &cfg.Server.Port,
		"SOURCE":                &cfg.Source,
		"FINNHUB_API_KEY":       &cfg.Finnhub.APIKey,
		"FINNHUB_BASE_URL":      &cfg.Finnhub.BaseURL,
		"FINNHUB_EPS_FREQUENCY": &cfg.Finnhub.EPSFrequency,
		"FIXTURE_PATH":          &cfg.Fixture.Path,
		"LOG_LEVEL":             &cfg.Log.Level,
		"LOG_FORMAT":            &cfg.Log.Format,
		"LOG_OUTPUT":            &cfg.Log.Output,
	}
	for k, dst := range str {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REQUEST_TIMEOUT_SEC":         &cfg.Server.RequestTimeoutSec,
		"FINNHUB_REPORT_HORIZON_DAYS": &cfg.Finnhub.ReportHorizonDays,
		"FINNHUB_MAX_RPM":             &cfg.Finnhub.MaxRequestsPerMinute,
		"FINNHUB_MIN_INTERVAL_SEC":    &cfg.Finnhub.MinRequestIntervalSec,
		"FINNHUB_BURST":               &cfg.Finnhub.Burst,
		"FINNHUB_CACHE_TTL_SEC":       &cfg.Finnhub.CacheTTLSeconds,
		"FINNHUB_CACHE_MAX_ITEMS":     &cfg.Finnhub.CacheMaxItems,
	}
	for k, dst := range ints {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			continue
		}
		x, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", k, err)
		}
		*dst = x
	}
	return nil
}
