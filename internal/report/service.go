package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	v1 "github.com/aevon-lab/salescube/internal/api/v1"
	"github.com/aevon-lab/salescube/internal/core/aggregation"
	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

// Runner evaluates a warehouse query.
type Runner interface {
	Query(ctx context.Context, q warehouse.Query) (*aggregation.Result, error)
}

// Generational is implemented by runners whose data changes between queries.
// Generation must grow with every write visible to later queries.
type Generational interface {
	Generation() uint64
}

// Service runs saved and ad-hoc reports. Identical queries in flight at the
// same time share one evaluation; every caller still gets its own query ID.
// When the runner is Generational, a caller only joins an evaluation that
// started at its own generation, so it always sees the writes that finished
// before it called.
type Service struct {
	runner Runner
	repo   Repository
	group  singleflight.Group
	nowFn  func() time.Time
}

// NewService creates a report service. repo may be nil when no saved
// reports are configured.
func NewService(runner Runner, repo Repository) *Service {
	if runner == nil {
		panic("report: runner must not be nil")
	}
	return &Service{
		runner: runner,
		repo:   repo,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Execute runs an ad-hoc query.
func (s *Service) Execute(ctx context.Context, q warehouse.Query) (*v1.QueryResponse, error) {
	res, err := s.evaluate(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.respond(res, nil), nil
}

// Run evaluates the saved report name over sel.
func (s *Service) Run(ctx context.Context, name string, sel warehouse.Selection) (*v1.QueryResponse, error) {
	def, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	res, err := s.evaluate(ctx, def.Query(sel))
	if err != nil {
		return nil, err
	}
	return s.respond(res, def), nil
}

// Get returns a saved report definition.
func (s *Service) Get(ctx context.Context, name string) (*Definition, error) {
	if s.repo == nil {
		return nil, werr.New(werr.KindNotFound, name, "unknown report")
	}
	return s.repo.Get(ctx, name)
}

// List returns every saved report.
func (s *Service) List(ctx context.Context) ([]Definition, error) {
	if s.repo == nil {
		return []Definition{}, nil
	}
	return s.repo.List(ctx)
}

func (s *Service) evaluate(ctx context.Context, q warehouse.Query) (*aggregation.Result, error) {
	var generation uint64
	if g, ok := s.runner.(Generational); ok {
		generation = g.Generation()
	}
	key, err := queryKey(generation, q)
	if err != nil {
		return nil, err
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.runner.Query(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("[Reports] Shared in-flight query result", "group_by", q.GroupBy, "mode", q.Mode)
	}
	return v.(*aggregation.Result), nil
}

func (s *Service) respond(res *aggregation.Result, def *Definition) *v1.QueryResponse {
	resp := &v1.QueryResponse{
		QueryID:     uuid.NewString(),
		GeneratedAt: s.nowFn(),
		Result:      res,
	}
	if def != nil {
		resp.Report = def.Name
		resp.Fingerprint = def.Fingerprint
	}
	slog.Info("[Reports] Query served",
		"query_id", resp.QueryID,
		"report", resp.Report,
		"rows", len(res.Rows))
	return resp
}

// queryKey identifies a query at a data generation for in-flight
// deduplication. encoding/json sorts map keys, so equal queries produce
// equal keys.
func queryKey(generation uint64, q warehouse.Query) (string, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("query key: %w", err)
	}
	return strconv.FormatUint(generation, 10) + "|" + string(b), nil
}
