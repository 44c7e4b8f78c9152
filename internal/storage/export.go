package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Metadata *RunMetadata         `json:"metadata"`
	Times    []float64            `json:"times"`
	Samples  map[string][]float64 `json:"samples"`
}

// ExportJSON writes a run's metadata and metric series to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	times, samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		Metadata: meta,
		Times:    times,
		Samples:  samples,
	})
}
