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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/dynenv/internal/dynamo"
	"github.com/san-kum/dynenv/internal/env"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var (
	ErrMalformed = errors.New("storage: malformed trajectory file")
	ErrBadRunID  = errors.New("storage: run id is not a plain directory name")
)

type Store struct {
	baseDir string
	newID   func(model string) string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, newID: newRunID}
}

func newRunID(model string) string {
	return fmt.Sprintf("%s_%s", sanitize(model), uuid.NewString()[:8])
}

// sanitize maps model names onto [A-Za-z0-9._-] without leading dots.
func sanitize(model string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, model)
	clean = strings.TrimLeft(clean, ".")
	if clean == "" {
		return "run"
	}
	return clean
}

// runDir resolves runID to a directory directly under the base directory.
func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || !filepath.IsLocal(runID) || strings.ContainsAny(runID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadRunID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Integrator string             `json:"integrator"`
	Policy     string             `json:"policy"`
	NQ         int                `json:"nq"`
	NV         int                `json:"nv"`
	NU         int                `json:"nu"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes meta and traj under a fresh run ID and returns it. The ID,
// timestamp and step count in meta are filled in.
func (s *Store) Save(meta RunMetadata, traj env.Trajectory) (string, error) {
	runID := s.newID(meta.Model)
	runDir, err := s.runDir(runID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = traj.Len() - 1
	if meta.Steps < 0 {
		meta.Steps = 0
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

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := writeTrajectory(w, traj, meta.NU); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

// writeTrajectory emits one row per entry. NoControl entries leave the action
// cells empty.
func writeTrajectory(w *csv.Writer, traj env.Trajectory, nu int) error {
	if traj.Len() == 0 {
		return nil
	}
	first := traj.At(0).State
	for _, e := range traj.All() {
		if len(e.Action) > nu {
			nu = len(e.Action)
		}
	}

	header := []string{"t"}
	header = append(header, columns("q", len(first.Pos))...)
	header = append(header, columns("v", len(first.Vel))...)
	header = append(header, columns("a", len(first.Acc))...)
	header = append(header, columns("u", nu)...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, e := range traj.All() {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(i))
		for _, val := range e.State.Flatten() {
			row = append(row, formatFloat(val))
		}
		for j := 0; j < nu; j++ {
			if e.Action.IsNoControl() || j >= len(e.Action) {
				row = append(row, "")
				continue
			}
			row = append(row, formatFloat(e.Action[j]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func columns(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, newest first.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectory reads a stored trajectory back. Rows whose action cells are
// all empty become NoControl entries.
func (s *Store) LoadTrajectory(runID string) (env.Trajectory, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return env.Trajectory{}, err
	}
	file, err := os.Open(filepath.Join(dir, trajectoryFile))
	if err != nil {
		return env.Trajectory{}, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return env.Trajectory{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return env.NewTrajectory(nil), nil
	}

	layout, err := parseHeader(records[0])
	if err != nil {
		return env.Trajectory{}, err
	}

	entries := make([]env.Entry, 0, len(records)-1)
	for i, record := range records[1:] {
		e, err := layout.entry(record)
		if err != nil {
			return env.Trajectory{}, fmt.Errorf("%w: row %d: %v", ErrMalformed, i+1, err)
		}
		entries = append(entries, e)
	}
	return env.NewTrajectory(entries), nil
}

type layout struct {
	nq, nv, na, nu int
}

func parseHeader(header []string) (layout, error) {
	var l layout
	if len(header) == 0 || header[0] != "t" {
		return l, fmt.Errorf("%w: missing t column", ErrMalformed)
	}
	for _, col := range header[1:] {
		switch {
		case strings.HasPrefix(col, "q"):
			l.nq++
		case strings.HasPrefix(col, "v"):
			l.nv++
		case strings.HasPrefix(col, "a"):
			l.na++
		case strings.HasPrefix(col, "u"):
			l.nu++
		default:
			return l, fmt.Errorf("%w: unknown column %q", ErrMalformed, col)
		}
	}
	return l, nil
}

func (l layout) entry(record []string) (env.Entry, error) {
	cells := record[1:]

	pos, err := parseCells(cells[:l.nq])
	if err != nil {
		return env.Entry{}, err
	}
	cells = cells[l.nq:]
	vel, err := parseCells(cells[:l.nv])
	if err != nil {
		return env.Entry{}, err
	}
	cells = cells[l.nv:]
	acc, err := parseCells(cells[:l.na])
	if err != nil {
		return env.Entry{}, err
	}
	cells = cells[l.na:]

	e := env.Entry{State: dynamo.State{Pos: pos, Vel: vel, Acc: acc}}
	if allEmpty(cells) {
		e.Action = dynamo.NoControl
		return e, nil
	}
	u, err := parseCells(cells)
	if err != nil {
		return env.Entry{}, err
	}
	e.Action = dynamo.Action(u)
	return e, nil
}

func parseCells(cells []string) (dynamo.Vector, error) {
	out := make(dynamo.Vector, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
