package main

import (
	"context"
	"log"
	"time"

	"compound-db/config"
	"compound-db/services"
	"compound-db/storage"

	"go.uber.org/zap"
)

func main() {
	log.Println("Starte Snapshot-Export...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}
	if !cfg.SnapshotsEnabled() {
		log.Fatalf("S3_BUCKET und S3_URL müssen gesetzt sein")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren des Loggers: %v", err)
	}
	defer logger.Sync()

	// 1. Datenbank öffnen
	db, err := storage.OpenDB(cfg)
	if err != nil {
		log.Fatalf("Fehler beim Verbinden mit der Datenbank: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Fehler bei der Migration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// 2. S3-Client erstellen
	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des S3-Clients: %v", err)
	}
	bucket := &storage.Bucket{Client: s3Client, Name: cfg.S3Bucket, URL: cfg.S3URL}

	// 3. Snapshot hochladen und alte Snapshots rotieren
	compounds := services.NewCompoundService(cfg, db, logger)
	snapshots := services.NewSnapshotService(compounds, bucket, cfg.SnapshotPrefix, cfg.SnapshotKeep, logger)
	link, err := snapshots.Run(ctx)
	if err != nil {
		log.Fatalf("Fehler beim Snapshot-Export: %v", err)
	}

	log.Printf("Snapshot erfolgreich nach %s hochgeladen", link)
}
