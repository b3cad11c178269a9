package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/spawn"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	frameFile    = "frame.csv"
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

type RunMetadata struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Timestamp time.Time             `json:"timestamp"`
	Seed      int64                 `json:"seed"`
	Dt        float64               `json:"dt"`
	Duration  float64               `json:"duration"`
	SubSteps  int                   `json:"sub_steps"`
	Pattern   string                `json:"pattern"`
	Particles int                   `json:"particles"`
	Steps     int                   `json:"steps"`
	WallTime  time.Duration         `json:"wall_time_ns"`
	Columns   []string              `json:"columns"`
	Metrics   map[string]float64    `json:"metrics"`
	Profile   metrics.ProfileReport `json:"profile"`
	Config    *config.Config        `json:"config"`
}

// Save writes a run directory and returns its id.
func (s *Store) Save(name string, cfg *config.Config, result *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: now,
		Seed:      cfg.Seed,
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		SubSteps:  cfg.SubSteps,
		Pattern:   cfg.Spawn.Pattern,
		Particles: len(result.Frame),
		Steps:     result.StepsTaken,
		WallTime:  result.WallTime,
		Columns:   experiment.SampleColumns,
		Metrics:   result.Metrics,
		Profile:   result.Profile,
		Config:    cfg,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result); err != nil {
		return "", err
	}
	if err := writeFrame(filepath.Join(runDir, frameFile), result.Frame); err != nil {
		return "", err
	}
	return runID, nil
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

func writeCSV(path string, header []string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func writeSamples(path string, result *experiment.Result) error {
	header := append([]string{"time"}, experiment.SampleColumns...)
	return writeCSV(path, header, func(w *csv.Writer) error {
		for i, sample := range result.Samples {
			row := []string{formatFloat(result.Times[i])}
			for _, val := range sample {
				row = append(row, formatFloat(val))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

var frameHeader = []string{"handle", "x", "y", "vx", "vy", "radius", "fixed", "visible", "color"}

func writeFrame(path string, frame []dynamo.Drawable) error {
	return writeCSV(path, frameHeader, func(w *csv.Writer) error {
		for _, d := range frame {
			row := []string{
				strconv.Itoa(int(d.Handle)),
				formatFloat(d.Position.X),
				formatFloat(d.Position.Y),
				formatFloat(d.Velocity.X),
				formatFloat(d.Velocity.Y),
				formatFloat(d.Radius),
				strconv.FormatBool(d.Fixed),
				strconv.FormatBool(d.Visible),
				spawn.Hex(d.Color),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns the metadata of every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) readCSV(runID, name string) ([][]string, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// LoadSamples returns the sample rows, their times and the column names.
func (s *Store) LoadSamples(runID string) ([][]float64, []float64, []string, error) {
	records, err := s.readCSV(runID, samplesFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 1 {
		return [][]float64{}, []float64{}, nil, nil
	}

	columns := records[0][1:]
	times := make([]float64, 0, len(records)-1)
	samples := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s line %d: %w", samplesFile, i+1, err)
		}

		row := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s line %d: %w", samplesFile, i+1, err)
			}
			row = append(row, val)
		}
		times = append(times, t)
		samples = append(samples, row)
	}

	return samples, times, columns, nil
}

// LoadFrame reads the final particle frame of a run.
func (s *Store) LoadFrame(runID string) ([]dynamo.Drawable, error) {
	records, err := s.readCSV(runID, frameFile)
	if err != nil {
		return nil, err
	}

	frame := make([]dynamo.Drawable, 0, len(records))
	for i := 1; i < len(records); i++ {
		d, err := parseDrawable(records[i])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", frameFile, i+1, err)
		}
		frame = append(frame, d)
	}
	return frame, nil
}

func parseDrawable(rec []string) (dynamo.Drawable, error) {
	var d dynamo.Drawable
	if len(rec) != len(frameHeader) {
		return d, fmt.Errorf("expected %d fields, got %d", len(frameHeader), len(rec))
	}

	h, err := strconv.Atoi(rec[0])
	if err != nil {
		return d, err
	}
	d.Handle = dynamo.Handle(h)

	floats := make([]float64, 5)
	for i := range floats {
		if floats[i], err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return d, err
		}
	}
	d.Position.X, d.Position.Y = floats[0], floats[1]
	d.Velocity.X, d.Velocity.Y = floats[2], floats[3]
	d.Radius = floats[4]

	if d.Fixed, err = strconv.ParseBool(rec[6]); err != nil {
		return d, err
	}
	if d.Visible, err = strconv.ParseBool(rec[7]); err != nil {
		return d, err
	}

	c, err := colorful.Hex(rec[8])
	if err != nil {
		return d, err
	}
	d.Color = dynamo.Color{R: c.R, G: c.G, B: c.B}
	return d, nil
}

type ExportData struct {
	Metadata *RunMetadata      `json:"metadata"`
	Columns  []string          `json:"columns"`
	Times    []float64         `json:"times"`
	Samples  [][]float64       `json:"samples"`
	Frame    []dynamo.Drawable `json:"frame"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, times, columns, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	frame, err := s.LoadFrame(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		Metadata: meta,
		Columns:  columns,
		Times:    times,
		Samples:  samples,
		Frame:    frame,
	})
}

// ExportCSV copies a run's samples file to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
