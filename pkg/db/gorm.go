package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DefaultSQLiteDSN = "repeat_tasks.db"
	// Replace with your actual MySQL/TiDB connection string
	DefaultMySQLDSN    = "root:@tcp(127.0.0.1:3306)/repeat_tasks?charset=utf8mb4&parseTime=True&loc=Local"
	DefaultPostgresDSN = "host=127.0.0.1 user=postgres dbname=repeat_tasks port=5432 sslmode=disable"
)

// Dialector picks the gorm dialector for dbType ("sqlite", "mysql" or
// "postgres"; empty means sqlite). An empty dsn uses the type's default.
func Dialector(dbType, dsn string) (gorm.Dialector, error) {
	switch dbType {
	case "mysql":
		if dsn == "" {
			dsn = DefaultMySQLDSN
			log.Println("Using default MySQL DSN: ", dsn)
		}
		return mysql.Open(dsn), nil
	case "postgres":
		if dsn == "" {
			dsn = DefaultPostgresDSN
			log.Println("Using default Postgres DSN: ", dsn)
		}
		return postgres.Open(dsn), nil
	case "", "sqlite":
		// Default to SQLite for ease of local development
		if dsn == "" {
			dsn = DefaultSQLiteDSN
			log.Println("Using default SQLite DSN: ", dsn)
		}
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", dbType)
}

// NewGormDB initializes and returns a GORM DB instance for the given
// database type and DSN.
func NewGormDB(dbType, dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	dialector, err := Dialector(dbType, dsn)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true, // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully.")
	return db, nil
}

// AutoMigrate performs auto-migration for the given GORM models.
func AutoMigrate(db *gorm.DB, models ...interface{}) error {
	err := db.AutoMigrate(models...)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	log.Println("Database migration completed successfully for provided models.")
	return nil
}
