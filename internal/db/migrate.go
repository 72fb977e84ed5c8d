package db

import (
	"github.com/ikkim/shopauth-backend/internal/app/model"
	"github.com/ikkim/shopauth-backend/pkg/logger"
	"gorm.io/gorm"
)

// models lists every table owned by this service.
func models() []interface{} {
	return []interface{}{
		&model.UserRecord{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs migrations against the given connection.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	all := models()
	if err := conn.AutoMigrate(all...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(all),
	})
	return nil
}
