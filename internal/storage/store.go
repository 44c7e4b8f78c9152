package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	snapshotFile = "snapshot.csv"
)

// ErrRunNotFound is returned when a run directory has no metadata.
var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Particles  int                `json:"particles"`
	StepsTaken int                `json:"steps_taken"`
	ElapsedMS  float64            `json:"elapsed_ms"`
	Config     *config.Config     `json:"config"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
}

// Run is everything persisted for one headless simulation.
type Run struct {
	Preset    string
	Config    *config.Config
	Result    *sim.Result
	Positions []r3.Vec
	Colors    []r3.Vec
}

// Save writes the run under a new directory and returns its ID.
func (s *Store) Save(run Run) (string, error) {
	if run.Result == nil {
		return "", fmt.Errorf("storage: nil result")
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	name := run.Preset
	if name == "" {
		name = "custom"
	}
	runID, runDir, err := s.createRunDir(name)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Preset:     run.Preset,
		Timestamp:  time.Now(),
		Particles:  run.Result.Particles,
		StepsTaken: run.Result.StepsTaken,
		ElapsedMS:  float64(run.Result.Elapsed.Microseconds()) / 1000,
		Config:     run.Config,
		Metrics:    run.Result.Metrics,
	}
	for _, e := range run.Result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), run.Result); err != nil {
		return "", err
	}
	if len(run.Positions) > 0 {
		if err := writeSnapshot(filepath.Join(runDir, snapshotFile), run.Positions, run.Colors); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) createRunDir(name string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	for n := 0; ; n++ {
		runID := base
		if n > 0 {
			runID = fmt.Sprintf("%s_%d", base, n)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSamples(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(result.Samples))
	for name := range result.Samples {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}

	for i, t := range result.Times {
		row := []string{formatFloat(t)}
		for _, name := range names {
			series := result.Samples[name]
			if i < len(series) {
				row = append(row, formatFloat(series[i]))
			} else {
				row = append(row, "0")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeSnapshot(path string, pos, col []r3.Vec) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "x", "y", "z", "r", "g", "b"}); err != nil {
		return err
	}
	for i, p := range pos {
		var c r3.Vec
		if i < len(col) {
			c = col[i]
		}
		row := []string{
			strconv.Itoa(i),
			formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
			formatFloat(c.X), formatFloat(c.Y), formatFloat(c.Z),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns all runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadSamples reads the per-tick metric series of a run.
func (s *Store) LoadSamples(runID string) ([]float64, map[string][]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, nil, err
	}

	series := make(map[string][]float64)
	if len(records) < 1 {
		return []float64{}, series, nil
	}

	header := records[0]
	for _, name := range header[1:] {
		series[name] = make([]float64, 0, len(records)-1)
	}

	times := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(header) {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		for j, name := range header[1:] {
			v, _ := strconv.ParseFloat(record[j+1], 64)
			series[name] = append(series[name], v)
		}
	}

	return times, series, nil
}

// LoadSnapshot reads the final positions and colors of a run.
func (s *Store) LoadSnapshot(runID string) ([]r3.Vec, []r3.Vec, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, snapshotFile))
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []r3.Vec{}, []r3.Vec{}, nil
	}

	pos := make([]r3.Vec, 0, len(records)-1)
	col := make([]r3.Vec, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 7 {
			return nil, nil, fmt.Errorf("storage: %s: row %d has %d fields", snapshotFile, i+1, len(record))
		}
		var v [6]float64
		for j := range v {
			f, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s: row %d: %w", snapshotFile, i+1, err)
			}
			v[j] = f
		}
		pos = append(pos, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
		col = append(col, r3.Vec{X: v[3], Y: v[4], Z: v[5]})
	}

	return pos, col, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
