package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dynenv/internal/env"
)

// ExportData is the JSON form of a run. NoControl actions are null.
type ExportData struct {
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Policy     string             `json:"policy"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	States     [][]float64        `json:"states"`
	Actions    [][]float64        `json:"actions"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewExportData(meta RunMetadata, traj env.Trajectory) ExportData {
	data := ExportData{
		Model:      meta.Model,
		Integrator: meta.Integrator,
		Policy:     meta.Policy,
		Dt:         meta.Dt,
		Steps:      max(traj.Len()-1, 0),
		States:     make([][]float64, 0, traj.Len()),
		Actions:    make([][]float64, 0, traj.Len()),
		Metrics:    meta.Metrics,
	}
	for _, e := range traj.All() {
		data.States = append(data.States, e.State.Flatten())
		data.Actions = append(data.Actions, []float64(e.Action))
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, traj env.Trajectory) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, traj))
}
