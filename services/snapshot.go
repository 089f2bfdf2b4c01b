package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"compound-db/models"
	"compound-db/storage"

	"go.uber.org/zap"
)

// SnapshotService exportiert den Compound-Bestand als gzip-komprimiertes JSON nach S3
// und rotiert alte Snapshots.
type SnapshotService struct {
	Compounds *CompoundService
	Bucket    *storage.Bucket
	Prefix    string
	Keep      int
	Logger    *zap.Logger

	now func() time.Time
}

// NewSnapshotService erstellt eine neue Instanz des SnapshotService.
func NewSnapshotService(compounds *CompoundService, bucket *storage.Bucket, prefix string, keep int, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		Compounds: compounds,
		Bucket:    bucket,
		Prefix:    prefix,
		Keep:      keep,
		Logger:    logger,
		now:       time.Now,
	}
}

// Run schreibt einen Snapshot und gibt dessen Link zurück. Fehler bei der Rotation
// werden nur geloggt, der Snapshot selbst ist dann bereits gespeichert.
func (s *SnapshotService) Run(ctx context.Context) (string, error) {
	all, err := s.Compounds.All(ctx)
	if err != nil {
		return "", err
	}
	data, err := EncodeSnapshot(all)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := fmt.Sprintf("%scompounds-%s.json.gz", s.Prefix, s.now().UTC().Format("2006-01-02T15-04-05Z"))
	link, err := s.Bucket.Upload(ctx, key, "application/gzip", data)
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	snapshotsUploaded.Inc()
	s.Logger.Info("Snapshot hochgeladen", zap.String("link", link), zap.Int("compounds", len(all)), zap.Int("bytes", len(data)))

	if s.Keep > 0 {
		deleted, err := s.Bucket.Rotate(ctx, s.Prefix, s.Keep)
		if err != nil {
			s.Logger.Warn("Rotation alter Snapshots fehlgeschlagen", zap.Error(err))
		} else if len(deleted) > 0 {
			s.Logger.Info("Alte Snapshots gelöscht", zap.Strings("keys", deleted))
		}
	}
	return link, nil
}

// EncodeSnapshot serialisiert Compounds im Format von /data/batchadd/ (ohne IDs) und komprimiert es.
func EncodeSnapshot(compounds []models.CompoundPayload) ([]byte, error) {
	stripped := make([]models.CompoundPayload, len(compounds))
	for i, c := range compounds {
		stripped[i] = models.CompoundPayload{Compound: c.Compound, Properties: c.Properties}
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(stripped); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot liest einen mit EncodeSnapshot erzeugten Snapshot.
func DecodeSnapshot(r io.Reader) ([]models.CompoundPayload, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var compounds []models.CompoundPayload
	if err := json.NewDecoder(zr).Decode(&compounds); err != nil {
		return nil, err
	}
	return compounds, nil
}
