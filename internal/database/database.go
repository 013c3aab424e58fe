package database

import (
	"log"
	"os"
	"strings"

	"github.com/johncourpayton/hackCC/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New creates a GORM database connection.
// When databaseURL is provided PostgreSQL is used, otherwise SQLite is used.
func New(databaseURL, sqlitePath string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	if databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), gormConfig)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&model.ReminderRecord{}); err != nil {
			return nil, err
		}
		logBackend(db)
		return db, nil
	}

	db, err := openSQLite(sqlitePath, gormConfig)
	if err != nil {
		// A corrupt ledger file degrades to an empty ledger instead of
		// blocking startup. Duplicate sends become possible afterwards;
		// that trade-off is deliberate.
		log.Printf("database: sqlite ledger %s unreadable (%v), starting from an empty ledger", sqlitePath, err)
		if rmErr := os.Remove(sqlitePath); rmErr != nil {
			return nil, err
		}
		return openSQLite(sqlitePath, gormConfig)
	}
	return db, nil
}

func openSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.ReminderRecord{}); err != nil {
		return nil, err
	}
	logBackend(db)
	return db, nil
}

func logBackend(db *gorm.DB) {
	dialector := db.Dialector.Name()
	switch strings.ToLower(dialector) {
	case "postgres":
		log.Printf("database: connected to PostgreSQL")
	case "sqlite":
		log.Printf("database: using SQLite ledger")
	default:
		log.Printf("database: connected via %s", dialector)
	}
}
