// Package testutil provides shared helpers for package tests.
package testutil

import (
	"fmt"
	"testing"

	"storefront-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens an isolated in-memory SQLite database that is closed when the
// test ends. Tables are created for the given models only, so passing none
// yields a store whose writes fail.
func OpenDB(t *testing.T, dst ...interface{}) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to access test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(dst) > 0 {
		if err := db.AutoMigrate(dst...); err != nil {
			t.Fatalf("Failed to migrate test database: %v", err)
		}
	}
	return db
}

// OpenPaymentsDB opens a test database with the payments table
func OpenPaymentsDB(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenDB(t, &models.PaymentRecord{})
}

// OpenCatalogDB opens a test database with the catalog and payments tables
func OpenCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenDB(t, &models.ProjectFile{}, &models.PaymentRecord{})
}

// File builds an unsaved catalog row
func File(batch string, fileType models.FileType, price int64) models.ProjectFile {
	return models.ProjectFile{
		Batch:   batch,
		Type:    fileType,
		Name:    fmt.Sprintf("%s %s", batch, fileType),
		Price:   decimal.NewFromInt(price),
		FileURL: fmt.Sprintf("https://files.example.com/%s/%s-%d", batch, fileType, price),
	}
}
