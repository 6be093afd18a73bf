package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/models"
)

const sqliteForeignKeys = "_pragma=foreign_keys(1)"

// Dialector picks the gorm driver from a database URL. The URL must start with
// postgres:// or sqlite://.
func Dialector(dbURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"):
		// the pgx driver takes the full URL as its DSN
		return postgres.Open(dbURL), nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		dsn := strings.TrimPrefix(dbURL, "sqlite://")
		return sqlite.Open(withForeignKeys(dsn)), nil
	}
	return nil, fmt.Errorf("invalid DATABASE_URL %q: must start with postgres:// or sqlite://", dbURL)
}

// sqlite leaves foreign keys off per connection unless asked.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteForeignKeys
	}
	return dsn + "?" + sqliteForeignKeys
}

// Init opens the database behind dbURL and configures its pool.
func Init(dbURL string) (*gorm.DB, error) {
	dialector, err := Dialector(dbURL)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("connecting to database", zap.String("driver", dialector.Name()))

	database, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	if dialector.Name() == "sqlite" {
		// one writer at a time keeps sqlite from returning SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Log.Info("database connection established")
	return database, nil
}

// Migrate creates or updates every table.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(models.All()...)
}
