package report

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aevon-lab/salescube/internal/core/aggregation"
	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/core/window"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

// Definition is a saved report. Definitions are loaded at startup from YAML
// files and fingerprinted so clients can tell when a report changed.
type Definition struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	GroupBy     []string            `json:"group_by"`
	Mode        aggregation.Mode    `json:"mode"`
	Aggregates  []aggregation.Spec  `json:"aggregates"`
	Windows     []window.Spec       `json:"windows,omitempty"`
	Filters     map[string][]string `json:"filters,omitempty"`
	Levels      []uint64            `json:"levels,omitempty"`
	Fingerprint string              `json:"fingerprint"` // SHA-256 of the raw YAML file
}

// Query builds the warehouse query for this report over sel. Filters in sel
// replace the definition's filter on the same attribute.
func (d Definition) Query(sel warehouse.Selection) warehouse.Query {
	filters := make(map[string][]string, len(d.Filters)+len(sel.Filters))
	for k, v := range d.Filters {
		filters[k] = v
	}
	for k, v := range sel.Filters {
		filters[k] = v
	}
	sel.Filters = filters

	return warehouse.Query{
		Selection:  sel,
		GroupBy:    d.GroupBy,
		Mode:       d.Mode,
		Aggregates: d.Aggregates,
		Windows:    d.Windows,
		Levels:     d.Levels,
	}
}

// rawDefinition is the on-disk YAML shape.
type rawDefinition struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	GroupBy     []string            `yaml:"group_by"`
	Mode        string              `yaml:"mode"`
	Aggregates  []aggregation.Spec  `yaml:"aggregates"`
	Windows     []window.Spec       `yaml:"windows"`
	Filters     map[string][]string `yaml:"filters"`
	Levels      []uint64            `yaml:"levels"`
}

// Repository looks up saved reports.
type Repository interface {
	// Get returns the report with the given name, or a NotFound error.
	Get(ctx context.Context, name string) (*Definition, error)

	// List returns all loaded reports ordered by name.
	List(ctx context.Context) ([]Definition, error)
}

// FileSystemRepository loads report definitions from *.yaml files in a
// directory, one report per file. Definitions are loaded once at startup.
type FileSystemRepository struct {
	dir  string
	star *schema.Star
	defs map[string]Definition // keyed by Name
}

// NewFileSystemRepository creates a repository and eagerly loads every
// definition in dir, checking it against star. A missing directory yields
// zero reports; any malformed or invalid file fails the load.
func NewFileSystemRepository(dir string, star *schema.Star) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		dir:  dir,
		star: star,
		defs: make(map[string]Definition),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("report dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("report path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading report dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading report file %s: %w", path, err)
		}

		var raw rawDefinition
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing report file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		def, err := r.validate(raw)
		if err != nil {
			return fmt.Errorf("report %q: %w", raw.Name, err)
		}
		if _, exists := r.defs[def.Name]; exists {
			return fmt.Errorf("report %q: duplicate report name (check multiple YAML files)", def.Name)
		}

		def.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))
		r.defs[def.Name] = def
	}
	return nil
}

func (r *FileSystemRepository) validate(raw rawDefinition) (Definition, error) {
	mode, err := aggregation.ParseMode(raw.Mode)
	if err != nil {
		return Definition{}, err
	}
	for _, ref := range raw.GroupBy {
		if _, err := r.star.GroupableAttribute(ref); err != nil {
			return Definition{}, err
		}
	}
	for ref := range raw.Filters {
		if _, err := r.star.GroupableAttribute(ref); err != nil {
			return Definition{}, err
		}
	}

	if len(raw.Aggregates) == 0 {
		return Definition{}, fmt.Errorf("at least one aggregate is required")
	}
	for _, a := range raw.Aggregates {
		if !aggregation.ValidOperator(a.Function) {
			return Definition{}, fmt.Errorf("unsupported aggregate function %q", a.Function)
		}
		if a.Measure == "" || a.Measure == aggregation.CountAll {
			continue
		}
		if _, ok := r.star.Measure(a.Measure); ok {
			continue
		}
		if _, _, err := r.star.Attribute(a.Measure); err != nil {
			return Definition{}, fmt.Errorf("unknown measure %q", a.Measure)
		}
	}
	for _, w := range raw.Windows {
		if !window.ValidKind(w.Kind) {
			return Definition{}, fmt.Errorf("unsupported window kind %q", w.Kind)
		}
		if w.Column == "" {
			return Definition{}, fmt.Errorf("window %s: column must not be empty", w.Kind)
		}
	}

	return Definition{
		Name:        raw.Name,
		Description: raw.Description,
		GroupBy:     raw.GroupBy,
		Mode:        mode,
		Aggregates:  raw.Aggregates,
		Windows:     raw.Windows,
		Filters:     raw.Filters,
		Levels:      raw.Levels,
	}, nil
}

// Get returns the report with the given name.
func (r *FileSystemRepository) Get(_ context.Context, name string) (*Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, werr.New(werr.KindNotFound, name, "unknown report")
	}
	return &def, nil
}

// List returns all loaded reports ordered by name.
func (r *FileSystemRepository) List(_ context.Context) ([]Definition, error) {
	return r.Definitions(), nil
}

// Definitions returns all reports ordered by name.
func (r *FileSystemRepository) Definitions() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
