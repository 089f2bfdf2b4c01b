package main

import (
	"context"
	"flag"
	"log"

	"compound-db/config"
	"compound-db/services"
	"compound-db/storage"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "CSV-Datei, JSON-Array oder Snapshot (.json.gz)")
	clearFirst := flag.Bool("clear", false, "vorhandene Compounds vor dem Import löschen")
	flag.Parse()

	if *file == "" {
		log.Fatalf("-file fehlt")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren des Loggers: %v", err)
	}
	defer logger.Sync()

	db, err := storage.OpenDB(cfg)
	if err != nil {
		log.Fatalf("Fehler beim Verbinden mit der Datenbank: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Fehler bei der Migration: %v", err)
	}

	compounds, err := services.LoadCompoundsFile(*file)
	if err != nil {
		log.Fatalf("Fehler beim Lesen von %s: %v", *file, err)
	}

	ctx := context.Background()
	svc := services.NewCompoundService(cfg, db, logger)
	if *clearFirst {
		if err := svc.Clear(ctx); err != nil {
			log.Fatalf("Fehler beim Löschen: %v", err)
		}
	}
	if err := svc.AddMany(ctx, compounds); err != nil {
		log.Fatalf("Fehler beim Import: %v", err)
	}

	log.Printf("%d Compounds aus %s importiert", len(compounds), *file)
}
