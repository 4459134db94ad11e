// Package runlog persists a manifest for every analysis run.
package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/utils"
)

const manifestFileName = "run.json"

// Counts summarizes row flow through the pipeline.
type Counts struct {
	InputRows         int `json:"input_rows"`
	Malformed         int `json:"malformed"`
	DroppedByYear     int `json:"dropped_by_year"`
	DroppedByPlatform int `json:"dropped_by_platform"`
	AnalyzedRows      int `json:"analyzed_rows"`
	FilledCritic      int `json:"filled_critic"`
	FilledUser        int `json:"filled_user"`
	Unfilled          int `json:"unfilled"`
	SalesTitles       int `json:"sales_titles"`
	RatingTitles      int `json:"rating_titles"`
	CombinedTitles    int `json:"combined_titles"`
}

// Artifact is one file written by a run.
type Artifact struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Manifest records one run on disk.
type Manifest struct {
	ID         string           `json:"id"`
	Input      string           `json:"input"`
	Options    pipeline.Options `json:"options"`
	Counts     Counts           `json:"counts"`
	Artifacts  []Artifact       `json:"artifacts"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	FinishedAt time.Time        `json:"finished_at"`

	// Not serialized: output directory holding run.json
	outDir string `json:"-"`
}

// New constructs a manifest for a run writing into outDir. Call Save() to persist.
func New(input string, opt pipeline.Options, outDir string) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Input:     input,
		Options:   opt,
		CreatedAt: time.Now(),
		outDir:    outDir,
	}
}

// OutDir returns the run's output directory.
func (m *Manifest) OutDir() string { return m.outDir }

// ShortID is the first block of the run id.
func (m *Manifest) ShortID() string {
	if i := strings.IndexByte(m.ID, '-'); i > 0 {
		return m.ID[:i]
	}
	return m.ID
}

// SetCounts copies row counts from a pipeline result.
func (m *Manifest) SetCounts(res *pipeline.Result) {
	if res == nil {
		return
	}
	var c Counts
	if res.Source != nil {
		c.InputRows = res.Source.Len()
		c.Malformed = res.Source.Malformed
	}
	if n := res.Normalized; n != nil {
		c.DroppedByYear = n.DroppedByYear
		c.DroppedByPlatform = n.DroppedByPlatform
		c.AnalyzedRows = len(n.Games)
	}
	if im := res.Imputed; im != nil {
		c.FilledCritic = im.FilledCritic
		c.FilledUser = im.FilledUser
		c.Unfilled = im.Unfilled
	}
	c.SalesTitles = len(res.Sales)
	c.RatingTitles = len(res.Ratings)
	c.CombinedTitles = len(res.Combined)
	m.Counts = c
}

// AddArtifact records a written file.
func (m *Manifest) AddArtifact(kind, path string) {
	m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: path})
}

// Finish stamps the end time and any failure.
func (m *Manifest) Finish(err error) {
	m.FinishedAt = time.Now()
	if err != nil {
		m.Error = err.Error()
	}
}

// Save writes run.json into the output directory using atomic write.
func (m *Manifest) Save() error {
	if m.outDir == "" {
		return errors.New("run output directory not set")
	}
	return m.writeTo(m.outDir, manifestFileName)
}

// Record writes a copy of the manifest to runsDir/<id>.json.
func (m *Manifest) Record(runsDir string) error {
	if runsDir == "" {
		return errors.New("runs directory not set")
	}
	return m.writeTo(runsDir, m.ID+".json")
}

func (m *Manifest) writeTo(dir, name string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(dir, name), data)
}

// Load reads a manifest file, or run.json when path is a directory.
func Load(path string) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, manifestFileName)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	m.outDir = filepath.Dir(path)
	return &m, nil
}

// List returns recorded runs newest first. A missing directory yields no runs.
// Files that fail to parse are skipped and reported in the second return value.
func List(runsDir string) ([]*Manifest, []string, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read runs dir: %w", err)
	}
	var runs []*Manifest
	var skipped []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		m, err := Load(filepath.Join(runsDir, e.Name()))
		if err != nil {
			skipped = append(skipped, e.Name())
			continue
		}
		runs = append(runs, m)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, skipped, nil
}

// Find returns the recorded run whose id starts with prefix.
func Find(runsDir, prefix string) (*Manifest, error) {
	runs, _, err := List(runsDir)
	if err != nil {
		return nil, err
	}
	var found *Manifest
	for _, m := range runs {
		if strings.HasPrefix(m.ID, prefix) {
			if found != nil {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
			}
			found = m
		}
	}
	if found == nil {
		return nil, fmt.Errorf("no run matches %q", prefix)
	}
	return found, nil
}
