package services

import (
	"context"
	"os"
	"sort"
	"testing"

	"compound-db/config"
	"compound-db/models"
	"compound-db/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *CompoundService {
	t.Helper()
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}
	db, err := storage.OpenDB(cfg)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewCompoundService(cfg, db, zap.NewNop())
}

func loadCorpus(t *testing.T) []models.CompoundPayload {
	t.Helper()
	f, err := os.Open("testdata/compounds.csv")
	require.NoError(t, err)
	defer f.Close()
	compounds, err := ReadCompoundsCSV(f)
	require.NoError(t, err)
	return compounds
}

func seedCorpus(t *testing.T, svc *CompoundService) []models.CompoundPayload {
	t.Helper()
	require.NoError(t, svc.AddMany(context.Background(), loadCorpus(t)))
	all, err := svc.All(context.Background())
	require.NoError(t, err)
	return all
}

func names(compounds []models.CompoundPayload) []string {
	out := make([]string, len(compounds))
	for i, c := range compounds {
		out[i] = c.Compound
	}
	sort.Strings(out)
	return out
}

var leadCompounds = []models.CompoundPayload{
	{Compound: "PbS", Properties: []models.PropertyPayload{{Name: "Band gap", Value: "0.41"}}},
	{Compound: "PbSe", Properties: []models.PropertyPayload{{Name: "Band gap", Value: "0.27"}}},
}
