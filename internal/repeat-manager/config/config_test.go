package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repeat-task-service/internal/repeat-manager/kafka"
	"repeat-task-service/internal/repeat-manager/services"
	"repeat-task-service/pkg/logging"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envOf(map[string]string{
		"NOTION_KEY":         "secret",
		"NOTION_DATABASE_ID": "db-1",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoreNotion, cfg.StoreType)
	assert.Equal(t, DefaultSyncCron, cfg.SyncCron)
	assert.Equal(t, "America/New_York", cfg.Location.String())
	assert.Equal(t, services.DefaultCreateConcurrency, cfg.CreateConcurrency)
	assert.Equal(t, kafka.DefaultInstanceEventTopic, cfg.InstanceEventTopic)
	assert.Equal(t, logging.DefaultLevel, cfg.LogLevel)
	assert.Equal(t, logging.DefaultFormat, cfg.LogFormat)
	assert.Empty(t, cfg.TemplateSchemaFile)
	assert.Equal(t, DefaultDBType, cfg.DBType)
	assert.False(t, cfg.RunOnStart)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, DefaultServerAddr, cfg.ServerAddr)
}

func TestLoad_SQLStoreOverrides(t *testing.T) {
	cfg, err := Load(envOf(map[string]string{
		"STORE_TYPE":              "SQL",
		"DB_TYPE":                 "postgres",
		"DB_DSN":                  "host=db",
		"SYNC_CRON":               "30 6 * * 1-5",
		"SYNC_TIMEZONE":           "UTC",
		"SYNC_CREATE_CONCURRENCY": "8",
		"SYNC_RUN_ON_START":       "true",
		"KAFKA_BROKERS":           "k1:9092, k2:9092,",
		"NOTION_RATE_PER_SEC":     "5",
		"TEMPLATE_SCHEMA_FILE":    "/etc/repeat/template.schema.json",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoreSQL, cfg.StoreType)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "host=db", cfg.DBDSN)
	assert.Equal(t, 8, cfg.CreateConcurrency)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 5, cfg.Notion.RatePerSec)
	assert.Equal(t, "/etc/repeat/template.schema.json", cfg.TemplateSchemaFile)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing notion key", map[string]string{"NOTION_DATABASE_ID": "db"}, "NOTION_KEY is required"},
		{"missing notion db", map[string]string{"NOTION_KEY": "k"}, "NOTION_DATABASE_ID is required"},
		{"unknown store", map[string]string{"STORE_TYPE": "excel"}, "unsupported STORE_TYPE"},
		{"bad cron", map[string]string{"STORE_TYPE": "sql", "SYNC_CRON": "every day"}, "invalid SYNC_CRON"},
		{"bad timezone", map[string]string{"STORE_TYPE": "sql", "SYNC_TIMEZONE": "Mars/Olympus"}, "invalid SYNC_TIMEZONE"},
		{"bad concurrency", map[string]string{"STORE_TYPE": "sql", "SYNC_CREATE_CONCURRENCY": "0"}, "must be positive"},
		{"non-numeric concurrency", map[string]string{"STORE_TYPE": "sql", "SYNC_CREATE_CONCURRENCY": "four"}, "invalid SYNC_CREATE_CONCURRENCY"},
		{"bad bool", map[string]string{"STORE_TYPE": "sql", "SYNC_RUN_ON_START": "maybe"}, "invalid SYNC_RUN_ON_START"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(envOf(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_NextTrigger(t *testing.T) {
	cfg, err := Load(envOf(map[string]string{"STORE_TYPE": "sql"}))
	require.NoError(t, err)

	// 12:00 UTC is 07:00 in New York, past today's 02:00 trigger.
	after := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	next := cfg.NextTrigger(after)
	assert.Equal(t, time.Date(2024, 3, 9, 2, 0, 0, 0, cfg.Location), next)

	// 06:00 UTC is 01:00 in New York, before the trigger.
	next = cfg.NextTrigger(time.Date(2024, 3, 8, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 8, 2, 0, 0, 0, cfg.Location), next)
}

func TestConfig_NextTriggerUnloaded(t *testing.T) {
	assert.True(t, Config{}.NextTrigger(time.Now()).IsZero())
}
