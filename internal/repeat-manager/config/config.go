// Package config loads the repeat manager's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"repeat-task-service/internal/repeat-manager/kafka"
	"repeat-task-service/internal/repeat-manager/services"
	"repeat-task-service/pkg/logging"
)

const (
	StoreNotion = "notion"
	StoreSQL    = "sql"

	DefaultStoreType      = StoreNotion
	DefaultDBType         = "sqlite"
	DefaultSyncCron       = "0 2 * * *"
	DefaultSyncTimezone   = "America/New_York"
	DefaultServerAddr     = ":8080"
	DefaultGRPCHealthAddr = ":50051"
)

type NotionSettings struct {
	Token      string // do not log
	DatabaseID string
	BaseURL    string
	Version    string
	RatePerSec int
}

type Config struct {
	StoreType string
	Notion    NotionSettings
	DBType    string
	DBDSN     string

	SyncCron          string
	SyncTimezone      string
	Location          *time.Location
	CreateConcurrency int
	RunOnStart        bool

	InstanceSchemaFile string
	TemplateSchemaFile string
	PropertyMapFile    string

	KafkaBrokers       []string
	InstanceEventTopic string

	ServerAddr     string
	GRPCHealthAddr string
	LogLevel       string
	LogFormat      string

	schedule cron.Schedule
}

// LoadFromEnv reads the process environment.
func LoadFromEnv() (Config, error) { return Load(os.Getenv) }

// Load reads settings through getenv, applies defaults and validates them.
func Load(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		StoreType: strings.ToLower(get("STORE_TYPE", DefaultStoreType)),
		Notion: NotionSettings{
			Token:      get("NOTION_KEY", ""),
			DatabaseID: get("NOTION_DATABASE_ID", ""),
			BaseURL:    get("NOTION_BASE_URL", ""),
			Version:    get("NOTION_VERSION", ""),
		},
		DBType:             strings.ToLower(get("DB_TYPE", DefaultDBType)),
		DBDSN:              get("DB_DSN", ""),
		SyncCron:           get("SYNC_CRON", DefaultSyncCron),
		SyncTimezone:       get("SYNC_TIMEZONE", DefaultSyncTimezone),
		InstanceSchemaFile: get("INSTANCE_SCHEMA_FILE", ""),
		TemplateSchemaFile: get("TEMPLATE_SCHEMA_FILE", ""),
		PropertyMapFile:    get("PROPERTY_MAP_FILE", ""),
		InstanceEventTopic: get("INSTANCE_EVENT_TOPIC", kafka.DefaultInstanceEventTopic),
		ServerAddr:         get("SERVER_ADDR", DefaultServerAddr),
		GRPCHealthAddr:     get("GRPC_HEALTH_ADDR", DefaultGRPCHealthAddr),
		LogLevel:           get("LOG_LEVEL", logging.DefaultLevel),
		LogFormat:          get("LOG_FORMAT", logging.DefaultFormat),
	}

	var err error
	if cfg.Notion.RatePerSec, err = intVar(get, "NOTION_RATE_PER_SEC", 0); err != nil {
		return Config{}, err
	}
	if cfg.CreateConcurrency, err = intVar(get, "SYNC_CREATE_CONCURRENCY", services.DefaultCreateConcurrency); err != nil {
		return Config{}, err
	}
	if raw := get("SYNC_RUN_ON_START", ""); raw != "" {
		if cfg.RunOnStart, err = strconv.ParseBool(raw); err != nil {
			return Config{}, fmt.Errorf("invalid SYNC_RUN_ON_START %q: %w", raw, err)
		}
	}
	for _, b := range strings.Split(get("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func intVar(get func(string, string) string, key string, def int) (int, error) {
	raw := get(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func (c *Config) validate() error {
	switch c.StoreType {
	case StoreNotion:
		if c.Notion.Token == "" {
			return errors.New("NOTION_KEY is required for the notion store")
		}
		if c.Notion.DatabaseID == "" {
			return errors.New("NOTION_DATABASE_ID is required for the notion store")
		}
	case StoreSQL:
	default:
		return fmt.Errorf("unsupported STORE_TYPE %q", c.StoreType)
	}
	if c.CreateConcurrency < 1 {
		return fmt.Errorf("SYNC_CREATE_CONCURRENCY must be positive, got %d", c.CreateConcurrency)
	}

	loc, err := time.LoadLocation(c.SyncTimezone)
	if err != nil {
		return fmt.Errorf("invalid SYNC_TIMEZONE %q: %w", c.SyncTimezone, err)
	}
	c.Location = loc

	sched, err := cron.ParseStandard(c.SyncCron)
	if err != nil {
		return fmt.Errorf("invalid SYNC_CRON %q: %w", c.SyncCron, err)
	}
	c.schedule = sched
	return nil
}

// KafkaEnabled reports whether instance events should be published.
func (c Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// NextTrigger is the first sync trigger strictly after after, on the
// configured timezone's wall clock.
func (c Config) NextTrigger(after time.Time) time.Time {
	if c.schedule == nil || c.Location == nil {
		return time.Time{}
	}
	return c.schedule.Next(after.In(c.Location))
}
