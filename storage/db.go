package storage

import (
	"fmt"

	"compound-db/config"
	"compound-db/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePragmas schaltet Fremdschlüssel (Cascade) und case-sensitives LIKE ein, damit SQLite
// sich bei Filtern wie PostgreSQL verhält.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=case_sensitive_like(1)"

// OpenDB öffnet die Datenbank entsprechend DB_DRIVER.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	switch cfg.DBDriver {
	case "postgres", "":
		return gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(SQLiteDSN(cfg.SQLitePath)), gormCfg)
		if err != nil {
			return nil, err
		}
		// SQLite serialisiert Schreibzugriffe ohnehin; eine Verbindung hält auch :memory: stabil.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// SQLiteDSN hängt die benötigten Pragmas an einen Dateipfad oder ":memory:" an.
func SQLiteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?" + sqlitePragmas
	}
	return "file:" + path + "?" + sqlitePragmas
}

// Migrate legt die Tabellen für Compounds und Properties an.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Compound{}, &models.ScalarProperty{}, &models.TextProperty{})
}
