package db

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// NewTestDB returns a migrated in-memory sqlite database private to t. It is
// closed when the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("testonlydb_%d", testDBSeq.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", name, sqliteForeignKeys)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	// the in-memory database lives as long as its one connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := Migrate(database); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return database
}
