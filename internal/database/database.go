package database

import (
	"fmt"
	"time"

	"github.com/wnt/memetrack/internal/config"
	"github.com/wnt/memetrack/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
	)

	// Configure GORM with optimized settings
	gormCfg := &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true, // Prepare statement for better performance
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// Set connection pool limits
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Migrate database schema
	if err := migrateSchema(db); err != nil {
		return nil, err
	}

	return db, nil
}

func migrateSchema(db *gorm.DB) error {
	// Migrate models
	if err := db.AutoMigrate(
		&models.TrackedAccount{},
		&models.NameAlert{},
		&models.CAAlert{},
		&models.AppVersion{},
		&models.BlacklistItem{},
		&models.Settings{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Add composite indexes for common query patterns
	db.Exec("CREATE INDEX IF NOT EXISTS idx_name_alerts_active_quorum ON name_alerts(is_active, quorum_count)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_name_alerts_active_token ON name_alerts(is_active, token_name)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_ca_alerts_first_seen ON ca_alerts(first_seen DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_app_versions_number_desc ON app_versions(version_number DESC)")

	return nil
}
