package internal

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"proposal-generator/internal/config"
	"proposal-generator/internal/models"
)

var DB *gorm.DB

func InitDB(cfg *config.Config, log *zap.Logger) error {
	dsn := cfg.Database.DSN()

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database connected and migrated", zap.String("database", cfg.Database.DBName))
	return nil
}

func autoMigrate(log *zap.Logger) error {
	if err := DB.AutoMigrate(&models.Document{}); err != nil {
		return fmt.Errorf("failed to migrate proposal_documents table: %w", err)
	}

	if DB.Migrator().HasColumn("proposal_documents", "gcs_path") {
		log.Info("migrating proposal_documents.gcs_path to storage_path")
		if err := DB.Exec(`UPDATE proposal_documents SET storage_path = gcs_path WHERE (storage_path IS NULL OR storage_path = '') AND gcs_path IS NOT NULL`).Error; err != nil {
			return fmt.Errorf("failed to migrate gcs_path to storage_path: %w", err)
		}
	}
	return nil
}

func CloseDB() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
