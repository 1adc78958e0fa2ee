package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tourist-untrap-backend/config"
	"tourist-untrap-backend/internal/logging"
	"tourist-untrap-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.EnableTimescale {
		logging.Info().Msg("TimescaleDB is enabled, applying TimescaleDB-specific DDL")
		if err := applyTimescaleDDL(db); err != nil {
			logging.Warn().Err(err).Msg("failed to apply some TimescaleDB DDL, continuing without them")
		}
	}

	logging.Info().Msg("database initialization complete")
	return db, nil
}

// Migrate creates or updates the schema. It works on any GORM dialect.
func Migrate(db *gorm.DB) error {
	logging.Info().Msg("running database migrations")
	if err := db.AutoMigrate(
		&model.Attraction{},
		&model.CrowdData{},
		&model.VisitHistory{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func applyTimescaleDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS timescaledb;",

		// A hypertable's unique indexes must include the time column.
		"ALTER TABLE crowd_data DROP CONSTRAINT IF EXISTS crowd_data_pkey;",
		"ALTER TABLE crowd_data ADD PRIMARY KEY (id, observed_at);",
		"SELECT create_hypertable('crowd_data', 'observed_at', if_not_exists => TRUE, migrate_data => TRUE);",

		"ALTER TABLE crowd_data DROP CONSTRAINT IF EXISTS crowd_data_level_range;",
		"ALTER TABLE crowd_data ADD CONSTRAINT crowd_data_level_range CHECK (crowd_level >= 0 AND crowd_level <= 1);",

		"CREATE INDEX IF NOT EXISTS idx_crowd_data_attraction_observed_desc ON crowd_data (attraction_id, observed_at DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
