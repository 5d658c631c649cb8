package database

import (
	"spacerent/config"
	"spacerent/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate creates the messaging tables. The users table is owned by the
// account service and is only migrated for local development.
func AutoMigrate(db *gorm.DB, migrateUsers bool) error {
	tables := []any{&models.Message{}, &models.Notification{}}
	if migrateUsers {
		tables = append([]any{&models.User{}}, tables...)
	}
	return db.AutoMigrate(tables...)
}
