package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/isingsim/internal/sim"
)

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

type ExportSample struct {
	Sweep         int     `json:"sweep"`
	Magnetisation float64 `json:"magnetisation"`
	Energy        float64 `json:"energy"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, samples []sim.Sample) error {
	data := ExportData{
		Run:     *meta,
		Samples: make([]ExportSample, len(samples)),
	}
	for i, s := range samples {
		data.Samples[i] = ExportSample{Sweep: s.Sweep, Magnetisation: s.Magnetisation, Energy: s.Energy}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
