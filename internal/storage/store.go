package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/fuelsim/internal/fuelflow"
	"github.com/san-kum/fuelsim/internal/scheduler"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	ProfileVacuum      = fuelflow.ProfileVacuum
	ProfileAtmospheric = fuelflow.ProfileAtmospheric

	metadataFile = "metadata.json"
	stagesFile   = "stages.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string              `json:"id"`
	Vessel     string              `json:"vessel"`
	Timestamp  time.Time           `json:"timestamp"`
	Duration   time.Duration       `json:"duration"`
	Conditions fuelflow.Conditions `json:"conditions"`
	Stages     int                 `json:"stages"`
	Summary    map[string]float64  `json:"summary"`
}

// Summarize computes the headline numbers stored with every run.
func Summarize(res *scheduler.Results) map[string]float64 {
	return map[string]float64{
		"vacuum_delta_v":      fuelflow.TotalDeltaV(res.Vacuum),
		"atmospheric_delta_v": fuelflow.TotalDeltaV(res.Atmospheric),
		"burn_time":           fuelflow.BurnTime(res.Vacuum),
	}
}

// Save writes a published result under its run id. Extra values are merged
// into the summary.
func (s *Store) Save(res *scheduler.Results, extra map[string]float64) (string, error) {
	runID := res.RunID
	if runID == "" {
		runID = uuid.Must(uuid.NewV7()).String()
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	summary := Summarize(res)
	for k, v := range extra {
		summary[k] = v
	}
	meta := RunMetadata{
		ID:         runID,
		Vessel:     res.Vessel,
		Timestamp:  res.Started,
		Duration:   res.Duration,
		Conditions: res.Conditions,
		Stages:     res.Stages(),
		Summary:    summary,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, stagesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, p := range []struct {
		name  string
		stats []fuelflow.FuelStats
	}{
		{ProfileVacuum, res.Vacuum},
		{ProfileAtmospheric, res.Atmospheric},
	} {
		for stage, st := range p.stats {
			if err := w.Write(encodeRow(p.name, stage, st)); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

var header = []string{
	"profile", "stage", "start_mass", "end_mass", "start_thrust", "end_thrust",
	"max_accel", "delta_time", "delta_v", "resource_mass", "isp", "staged_mass", "parts",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func encodeRow(profile string, stage int, st fuelflow.FuelStats) []string {
	return []string{
		profile,
		strconv.Itoa(stage),
		formatFloat(st.StartMass),
		formatFloat(st.EndMass),
		formatFloat(st.StartThrust),
		formatFloat(st.EndThrust),
		formatFloat(st.MaxAccel),
		formatFloat(st.DeltaTime),
		formatFloat(st.DeltaV),
		formatFloat(st.ResourceMass),
		formatFloat(st.Isp),
		formatFloat(st.StagedMass),
		strings.Join(st.Parts, ";"),
	}
}

func decodeRow(record []string) (string, int, fuelflow.FuelStats, error) {
	if len(record) != len(header) {
		return "", 0, fuelflow.FuelStats{}, fmt.Errorf("expected %d fields, got %d", len(header), len(record))
	}
	stage, err := strconv.Atoi(record[1])
	if err != nil {
		return "", 0, fuelflow.FuelStats{}, err
	}
	vals := make([]float64, 10)
	for i := range vals {
		vals[i], err = strconv.ParseFloat(record[i+2], 64)
		if err != nil {
			return "", 0, fuelflow.FuelStats{}, fmt.Errorf("%s: %w", header[i+2], err)
		}
	}
	st := fuelflow.FuelStats{
		StartMass:    vals[0],
		EndMass:      vals[1],
		StartThrust:  vals[2],
		EndThrust:    vals[3],
		MaxAccel:     vals[4],
		DeltaTime:    vals[5],
		DeltaV:       vals[6],
		ResourceMass: vals[7],
		Isp:          vals[8],
		StagedMass:   vals[9],
	}
	if record[12] != "" {
		st.Parts = strings.Split(record[12], ";")
	}
	return record[0], stage, st, nil
}

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

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStages reads back the per-stage stats of both profiles, indexed by
// stage ordinal.
func (s *Store) LoadStages(runID string) (vacuum, atmospheric []fuelflow.FuelStats, err error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, stagesFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []fuelflow.FuelStats{}, []fuelflow.FuelStats{}, nil
	}

	for i, record := range records[1:] {
		profile, stage, st, err := decodeRow(record)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", stagesFile, i+2, err)
		}
		switch profile {
		case ProfileVacuum:
			vacuum = place(vacuum, stage, st)
		case ProfileAtmospheric:
			atmospheric = place(atmospheric, stage, st)
		default:
			return nil, nil, fmt.Errorf("%s line %d: unknown profile %q", stagesFile, i+2, profile)
		}
	}
	return vacuum, atmospheric, nil
}

func place(stats []fuelflow.FuelStats, stage int, st fuelflow.FuelStats) []fuelflow.FuelStats {
	for len(stats) <= stage {
		stats = append(stats, fuelflow.FuelStats{})
	}
	stats[stage] = st
	return stats
}
