// Package dbtest testler için bellek içi sqlite veritabanı açar.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"restoran-analytics/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open migrate edilmiş, teste özel bir veritabanı döner.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("sqlite açılamadı: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite bağlantısı alınamadı: %v", err)
	}
	// bellek içi veritabanı tek bağlantı üzerinde yaşar
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Use Open ile açılan veritabanını global database.DB olarak kurar, test bitince eskisini geri koyar.
func Use(t *testing.T) *gorm.DB {
	t.Helper()
	db := Open(t)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}
