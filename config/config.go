package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// postgres oder sqlite
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"compounds"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"compounds.db"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	// Unbekannte Vergleichsoperatoren im Filter ablehnen statt ignorieren
	StrictFilterLogic bool `envconfig:"STRICT_FILTER_LOGIC" default:"false"`
	// Jede Suche zusätzlich im Speicher nachrechnen und Abweichungen melden
	SearchCrossCheck bool `envconfig:"SEARCH_CROSSCHECK" default:"false"`

	// Snapshot-Export nach S3; leerer Schedule deaktiviert den Cron-Job
	SnapshotCronSchedule string `envconfig:"SNAPSHOT_CRON_SCHEDULE"`
	SnapshotKeep         int    `envconfig:"SNAPSHOT_KEEP" default:"4"`
	SnapshotPrefix       string `envconfig:"SNAPSHOT_PREFIX" default:"snapshots/"`

	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket string `envconfig:"S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// SnapshotsEnabled meldet, ob ein S3-Ziel für Snapshots konfiguriert ist.
func (c *Config) SnapshotsEnabled() bool {
	return c.S3Bucket != "" && c.S3URL != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
