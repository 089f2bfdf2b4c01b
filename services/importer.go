package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"compound-db/models"
)

// ReadCompoundsCSV liest Compounds im Format
//
//	compound_name, prop_name_1, prop_value_1, prop_name_2, prop_value_2, ...
//
// Die erste Zeile ist ein Header und wird übersprungen. Leere Name/Wert-Paare am Zeilenende
// (aufgefüllte Spalten) werden ignoriert.
func ReadCompoundsCSV(r io.Reader) ([]models.CompoundPayload, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var compounds []models.CompoundPayload
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 {
			continue
		}

		raw := record[1:]
		if len(raw)%2 != 0 {
			return nil, fmt.Errorf("line %d: expected name/value pairs after the compound name, got %d fields", line, len(raw))
		}
		c := models.CompoundPayload{Compound: record[0], Properties: []models.PropertyPayload{}}
		for i := 0; i < len(raw); i += 2 {
			if raw[i] == "" && raw[i+1] == "" {
				continue
			}
			c.Properties = append(c.Properties, models.PropertyPayload{Name: raw[i], Value: raw[i+1]})
		}
		compounds = append(compounds, c)
	}
	return compounds, nil
}

// LoadCompoundsFile liest Compounds aus einer CSV-, JSON- oder Snapshot-Datei (.json.gz).
func LoadCompoundsFile(path string) ([]models.CompoundPayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".gz"):
		return DecodeSnapshot(f)
	case filepath.Ext(path) == ".json":
		var compounds []models.CompoundPayload
		if err := json.NewDecoder(f).Decode(&compounds); err != nil {
			return nil, err
		}
		return compounds, nil
	default:
		return ReadCompoundsCSV(f)
	}
}
