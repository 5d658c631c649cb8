// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"spacerent/internal/database"
	"spacerent/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh database. A single connection keeps the in-memory
// schema alive for the whole test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.AutoMigrate(db, true); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// User inserts a user with the given name and role.
func User(t testing.TB, db *gorm.DB, name, role string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Username: name, Email: name + "@example.com", Role: role}
	if err := db.WithContext(context.Background()).Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}
