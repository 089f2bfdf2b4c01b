package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"compound-db/config"
	"compound-db/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxFieldLen entspricht der Spaltenbreite von Namen und Text-Werten.
const maxFieldLen = 127

// CompoundService kapselt alle Operationen auf dem Compound-Bestand.
type CompoundService struct {
	DB     *gorm.DB
	Logger *zap.Logger

	// StrictLogic lehnt unbekannte Vergleichsoperatoren ab, statt sie zu ignorieren.
	StrictLogic bool
	// CrossCheck rechnet jede Suche mit LocalSearch nach und meldet Abweichungen.
	CrossCheck bool
}

// NewCompoundService erstellt eine neue Instanz des CompoundService.
func NewCompoundService(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *CompoundService {
	return &CompoundService{
		DB:          db,
		Logger:      logger,
		StrictLogic: cfg.StrictFilterLogic,
		CrossCheck:  cfg.SearchCrossCheck,
	}
}

// Add legt eine Compound samt Properties in einer Transaktion an und gibt sie mit ID zurück.
func (s *CompoundService) Add(ctx context.Context, p models.CompoundPayload) (models.CompoundPayload, error) {
	if err := validatePayload(p); err != nil {
		return models.CompoundPayload{}, err
	}

	c := models.NewCompound(p)
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		s.Logger.Error("Fehler beim Speichern der Compound", zap.String("compound", p.Compound), zap.Error(err))
		return models.CompoundPayload{}, fmt.Errorf("create compound: %w", err)
	}
	compoundsAddedCounter.Inc()
	return c.Payload(), nil
}

// AddMany legt alle Compounds an oder keine: erst wird jedes Element validiert,
// dann alles in einer Transaktion geschrieben. Eine leere Liste ist ein No-op.
func (s *CompoundService) AddMany(ctx context.Context, payloads []models.CompoundPayload) error {
	if len(payloads) == 0 {
		return nil
	}
	for i, p := range payloads {
		if err := validatePayload(p); err != nil {
			verr := err.(*ValidationError)
			return &ValidationError{Field: fmt.Sprintf("[%d].%s", i, verr.Field), Reason: verr.Reason}
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range payloads {
			c := models.NewCompound(p)
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.Logger.Error("Batch-Import fehlgeschlagen", zap.Int("count", len(payloads)), zap.Error(err))
		return fmt.Errorf("create compounds: %w", err)
	}
	compoundsAddedCounter.Add(float64(len(payloads)))
	s.Logger.Info("Compounds importiert", zap.Int("count", len(payloads)))
	return nil
}

// Clear löscht alle Compounds und Properties. Mehrfaches Aufrufen ist unkritisch.
func (s *CompoundService) Clear(ctx context.Context) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.TextProperty{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&models.ScalarProperty{}).Error; err != nil {
			return err
		}
		return all.Delete(&models.Compound{}).Error
	})
	if err != nil {
		s.Logger.Error("Fehler beim Leeren der Datenbank", zap.Error(err))
		return fmt.Errorf("clear compounds: %w", err)
	}
	compoundsClearedCounter.Inc()
	return nil
}

// Search liefert alle Compounds, die den Filter erfüllen. Die Reihenfolge ist nicht garantiert.
func (s *CompoundService) Search(ctx context.Context, req models.FilterRequest) ([]models.CompoundPayload, error) {
	start := time.Now()

	filter, err := CompileFilter(req, s.StrictLogic)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var compounds []models.Compound
	query := filter.Scope(db.Model(&models.Compound{}))
	if err := query.Preload("ScalarProperties").Preload("TextProperties").Order("compounds.id").Find(&compounds).Error; err != nil {
		s.Logger.Error("Suche fehlgeschlagen", zap.Strings("clauses", filter.Describe()), zap.Error(err))
		return nil, fmt.Errorf("search compounds: %w", err)
	}
	searchDuration.Observe(time.Since(start).Seconds())

	result := toPayloads(compounds)
	s.Logger.Debug("Suche ausgeführt",
		zap.Strings("clauses", filter.Describe()),
		zap.Int("matches", len(result)))

	if s.CrossCheck {
		s.crossCheck(ctx, req, result)
	}
	return result, nil
}

// All liefert den gesamten Bestand.
func (s *CompoundService) All(ctx context.Context) ([]models.CompoundPayload, error) {
	var compounds []models.Compound
	if err := s.DB.WithContext(ctx).Preload("ScalarProperties").Preload("TextProperties").Order("id").Find(&compounds).Error; err != nil {
		return nil, fmt.Errorf("list compounds: %w", err)
	}
	return toPayloads(compounds), nil
}

// Count gibt die Anzahl gespeicherter Compounds zurück.
func (s *CompoundService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Compound{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count compounds: %w", err)
	}
	return n, nil
}

func (s *CompoundService) crossCheck(ctx context.Context, req models.FilterRequest, got []models.CompoundPayload) {
	all, err := s.All(ctx)
	if err != nil {
		s.Logger.Warn("Cross-Check übersprungen", zap.Error(err))
		return
	}
	missing, unexpected := diffIDs(LocalSearch(all, req), got)
	if len(missing) == 0 && len(unexpected) == 0 {
		return
	}
	crossCheckMismatches.Inc()
	s.Logger.Warn("Suchergebnis weicht vom Referenzfilter ab",
		zap.Uints("missing", missing),
		zap.Uints("unexpected", unexpected))
}

// diffIDs vergleicht zwei Ergebnismengen über die Compound-IDs.
func diffIDs(want, got []models.CompoundPayload) (missing, unexpected []uint) {
	gotIDs := make(map[uint]bool, len(got))
	for _, c := range got {
		gotIDs[c.ID] = true
	}
	wantIDs := make(map[uint]bool, len(want))
	for _, c := range want {
		wantIDs[c.ID] = true
		if !gotIDs[c.ID] {
			missing = append(missing, c.ID)
		}
	}
	for _, c := range got {
		if !wantIDs[c.ID] {
			unexpected = append(unexpected, c.ID)
		}
	}
	return missing, unexpected
}

func toPayloads(compounds []models.Compound) []models.CompoundPayload {
	out := make([]models.CompoundPayload, len(compounds))
	for i, c := range compounds {
		out[i] = c.Payload()
	}
	return out
}

func validatePayload(p models.CompoundPayload) error {
	if p.Compound == "" {
		return &ValidationError{Field: "compound", Reason: "is required"}
	}
	if utf8.RuneCountInString(p.Compound) > maxFieldLen {
		return &ValidationError{Field: "compound", Reason: fmt.Sprintf("exceeds %d characters", maxFieldLen)}
	}
	if p.Properties == nil {
		return &ValidationError{Field: "properties", Reason: "is required"}
	}
	for i, prop := range p.Properties {
		field := fmt.Sprintf("properties[%d]", i)
		switch {
		case prop.Name == "":
			return &ValidationError{Field: field + ".name", Reason: "is required"}
		case prop.Value == "":
			return &ValidationError{Field: field + ".value", Reason: "is required"}
		case utf8.RuneCountInString(prop.Name) > maxFieldLen:
			return &ValidationError{Field: field + ".name", Reason: fmt.Sprintf("exceeds %d characters", maxFieldLen)}
		case utf8.RuneCountInString(prop.Value) > maxFieldLen:
			return &ValidationError{Field: field + ".value", Reason: fmt.Sprintf("exceeds %d characters", maxFieldLen)}
		}
	}
	return nil
}
