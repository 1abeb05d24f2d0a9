package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/san-kum/fuelsim/internal/fuelflow"
)

type ExportData struct {
	Run         RunMetadata          `json:"run"`
	TotalVacuum float64              `json:"total_vacuum_delta_v"`
	TotalAtmo   float64              `json:"total_atmospheric_delta_v"`
	Vacuum      []fuelflow.FuelStats `json:"vacuum"`
	Atmospheric []fuelflow.FuelStats `json:"atmospheric"`
}

// ExportJSON writes a stored run as one JSON document. JSON has no
// infinity, so unbounded burn times are written as zero.
func ExportJSON(w io.Writer, meta RunMetadata, vacuum, atmospheric []fuelflow.FuelStats) error {
	data := ExportData{
		Run:         meta,
		TotalVacuum: fuelflow.TotalDeltaV(vacuum),
		TotalAtmo:   fuelflow.TotalDeltaV(atmospheric),
		Vacuum:      finite(vacuum),
		Atmospheric: finite(atmospheric),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta RunMetadata, vacuum, atmospheric []fuelflow.FuelStats) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSON(file, meta, vacuum, atmospheric)
}

func finite(stats []fuelflow.FuelStats) []fuelflow.FuelStats {
	out := make([]fuelflow.FuelStats, len(stats))
	for i, st := range stats {
		if math.IsInf(st.DeltaTime, 0) || math.IsNaN(st.DeltaTime) {
			st.DeltaTime = 0
		}
		out[i] = st
	}
	return out
}
