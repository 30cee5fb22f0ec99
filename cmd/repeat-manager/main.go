package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"repeat-task-service/internal/repeat-manager/api"
	"repeat-task-service/internal/repeat-manager/config"
	repeatDB "repeat-task-service/internal/repeat-manager/db"
	"repeat-task-service/internal/repeat-manager/health"
	rmKafka "repeat-task-service/internal/repeat-manager/kafka"
	"repeat-task-service/internal/repeat-manager/recurrence"
	"repeat-task-service/internal/repeat-manager/services"
	"repeat-task-service/internal/repeat-manager/store"
	gorm_db "repeat-task-service/pkg/db"
	"repeat-task-service/pkg/logging"
	"repeat-task-service/pkg/validation"
)

func main() {
	stdlog.Println("Repeat Manager Service starting...")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	names, err := config.LoadPropertyNames(cfg.PropertyMapFile)
	if err != nil {
		stdlog.Fatalf("Failed to load property map: %v", err)
	}

	appCtx, appCancel := context.WithCancel(context.Background())

	var (
		recordStore   store.RecordStore
		recordHandler *api.RecordHandler
	)
	switch cfg.StoreType {
	case config.StoreNotion:
		notion, err := store.NewNotionStore(store.NotionConfig{
			BaseURL:          cfg.Notion.BaseURL,
			Token:            cfg.Notion.Token,
			DatabaseID:       cfg.Notion.DatabaseID,
			Version:          cfg.Notion.Version,
			RatePerSec:       cfg.Notion.RatePerSec,
			TemplateProperty: names.RepeatTemplate,
		})
		if err != nil {
			stdlog.Fatalf("Failed to initialize Notion store: %v", err)
		}
		recordStore = notion
	case config.StoreSQL:
		gormLevel := logger.Warn
		if logging.ParseLevel(cfg.LogLevel, zerolog.InfoLevel) <= zerolog.DebugLevel {
			gormLevel = logger.Info
		}
		gormDB, err := gorm_db.NewGormDB(cfg.DBType, cfg.DBDSN, gormLevel)
		if err != nil {
			stdlog.Fatalf("Failed to initialize database: %v", err)
		}
		if err := gorm_db.AutoMigrate(gormDB, &repeatDB.Record{}); err != nil {
			stdlog.Fatalf("Failed to migrate database: %v", err)
		}
		recordStore = store.NewSQLStore(gormDB)
		var templateSchema []byte
		if cfg.TemplateSchemaFile != "" {
			if templateSchema, err = os.ReadFile(cfg.TemplateSchemaFile); err != nil {
				stdlog.Fatalf("Failed to read template schema: %v", err)
			}
			if _, err := validation.NewSchemaValidator(string(templateSchema)); err != nil {
				stdlog.Fatalf("Failed to compile template schema: %v", err)
			}
		}
		recordHandler = api.NewRecordHandler(gormDB, string(templateSchema))
	}
	log.Info().Str("store", cfg.StoreType).Msg("record store ready")

	healthServer := health.NewServer(log)
	opts := []services.SyncOption{
		services.WithLogger(log),
		services.WithConcurrency(cfg.CreateConcurrency),
		services.WithCycleHook(healthServer.ObserveCycle),
	}

	if cfg.InstanceSchemaFile != "" {
		schema, err := os.ReadFile(cfg.InstanceSchemaFile)
		if err != nil {
			stdlog.Fatalf("Failed to read instance schema: %v", err)
		}
		validator, err := validation.NewSchemaValidator(string(schema))
		if err != nil {
			stdlog.Fatalf("Failed to compile instance schema: %v", err)
		}
		if validator != nil {
			opts = append(opts, services.WithValidator(validator))
		}
	}

	var publisher *rmKafka.InstancePublisher
	if cfg.KafkaEnabled() {
		publisher = rmKafka.NewInstancePublisher(rmKafka.NewKafkaProducer(cfg.KafkaBrokers, cfg.InstanceEventTopic))
		opts = append(opts, services.WithPublisher(publisher))
		log.Info().Str("topic", cfg.InstanceEventTopic).Strs("brokers", cfg.KafkaBrokers).Msg("instance events enabled")
	}

	clock := recurrence.NewClock(nil, cfg.Location)
	syncService := services.NewSyncService(recordStore, names, clock, cfg.Location, opts...)

	schedulerService, err := services.NewSchedulerService(appCtx, syncService, cfg.SyncCron, cfg.Location, nil, log)
	if err != nil {
		stdlog.Fatalf("Failed to create scheduler service: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		stdlog.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Info().
		Str("cron", cfg.SyncCron).
		Str("timezone", cfg.SyncTimezone).
		Time("next_trigger", cfg.NextTrigger(clock.Now())).
		Msg("daily sync scheduled")

	go func() {
		if err := healthServer.ListenAndServe(cfg.GRPCHealthAddr); err != nil {
			log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()

	if cfg.RunOnStart {
		go syncService.RunCycle(appCtx)
	}

	hlog.SetOutput(os.Stdout)
	hlog.SetLevel(hlog.LevelInfo)

	h := server.Default(server.WithHostPorts(cfg.ServerAddr), server.WithExitWaitTime(5*time.Second))
	api.RegisterRoutes(h.Engine, api.NewSyncHandler(syncService, schedulerService), recordHandler)

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		sig := <-signals
		hlog.Infof("Received signal: %s. Initiating graceful shutdown...", sig)

		appCancel()

		shutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer httpShutdownCancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			hlog.Errorf("Hertz server shutdown error: %v", err)
		} else {
			hlog.Info("Hertz server gracefully stopped.")
		}

		schedulerService.Stop()
		healthServer.Stop()

		if publisher != nil {
			if err := publisher.Close(); err != nil {
				hlog.Errorf("Kafka producer close error: %v", err)
			} else {
				hlog.Info("Kafka producer closed.")
			}
		}
		hlog.Info("Repeat Manager gracefully shut down.")
	}()

	hlog.Infof("Repeat Manager Service fully initialized and starting Hertz server on %s...", cfg.ServerAddr)
	h.Spin()

	stdlog.Println("Repeat Manager Service has been shut down.")
}
