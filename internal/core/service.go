package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JonMunkholm/csvclean/internal/logging"
)

// ErrRunNotFound is returned when a run ID is neither cached nor stored.
var ErrRunNotFound = errors.New("run not found")

// RunTimeout is the default maximum duration of one run.
var RunTimeout = 2 * time.Minute

// DefaultCacheSize is the number of recent runs kept in memory.
const DefaultCacheSize = 128

// TableReader parses an uploaded file into a table.
type TableReader func(r io.Reader) (*Table, error)

// RunStore persists finished runs. Implementations must be safe for
// concurrent use.
type RunStore interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
}

// RunRequest is one file submitted for cleaning.
type RunRequest struct {
	FileName string
	Body     io.Reader

	// Rules overrides the service defaults field by field.
	Rules RuleSpec
}

// RunRecord is a finished run as cached, stored and served.
type RunRecord struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
	Rules     RuleSpec  `json:"rules"`
	Result    *Result   `json:"result"`
	Persisted bool      `json:"persisted"`
}

// ServiceConfig holds the tunables for NewService. Zero values use defaults.
type ServiceConfig struct {
	MaxConcurrent int
	MaxWait       time.Duration
	RunTimeout    time.Duration
	CacheSize     int

	// Workers bounds the parallel validation scan of every run.
	Workers int

	// Defaults are the rules applied when a request leaves a field unset.
	Defaults RuleSpec
}

// Service runs the cleaning pipeline for uploaded files and keeps the
// results available for later retrieval.
type Service struct {
	read     TableReader
	store    RunStore
	limiter  *RunLimiter
	cache    *lru.Cache[string, *RunRecord]
	timeout  time.Duration
	workers  int
	defaults RuleSpec
}

// NewService creates a Service. store may be nil, in which case runs live
// only in the in-memory cache.
func NewService(read TableReader, store RunStore, cfg ServiceConfig) (*Service, error) {
	if read == nil {
		return nil, fmt.Errorf("new service: nil table reader")
	}
	if _, err := cfg.Defaults.Compile(); err != nil {
		return nil, fmt.Errorf("default rules: %w", err)
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *RunRecord](size)
	if err != nil {
		return nil, fmt.Errorf("create run cache: %w", err)
	}

	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = RunTimeout
	}

	return &Service{
		read:     read,
		store:    store,
		limiter:  NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cache:    cache,
		timeout:  timeout,
		workers:  cfg.Workers,
		defaults: cfg.Defaults,
	}, nil
}

// Defaults returns the rules applied to requests that set nothing.
func (s *Service) Defaults() RuleSpec {
	return s.defaults
}

// Run cleans one file. The rules are compiled before a run slot is taken so
// configuration errors never wait behind busy runs.
//
// A failure to persist the finished run is logged and reported through
// RunRecord.Persisted; the cleaned result is still returned.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunRecord, error) {
	spec := s.defaults.Override(req.Rules)
	rules, err := spec.Compile()
	if err != nil {
		return nil, err
	}
	rules.Workers = s.workers

	pipeline, err := NewPipeline(rules)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec := &RunRecord{
		ID:        uuid.New().String(),
		FileName:  req.FileName,
		CreatedAt: time.Now().UTC(),
		Rules:     spec,
	}
	ctx = logging.ContextWithRunID(ctx, rec.ID)
	logger := logging.WithFields(ctx, "file", req.FileName)

	table, err := s.read(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.FileName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("run started", "rows", table.Len(), "columns", len(table.Columns))

	result, err := pipeline.Run(ctx, table)
	if err != nil {
		logger.Error("run failed", "error", err, "code", MapError(err).Code)
		return nil, err
	}
	rec.Result = result

	if s.store != nil {
		if err := s.store.SaveRun(ctx, rec); err != nil {
			logger.Error("save run failed", "error", err, "code", MapError(err).Code)
		} else {
			rec.Persisted = true
		}
	}
	s.cache.Add(rec.ID, rec)

	logger.Info("run finished",
		"rows_in", result.RowsIn,
		"rows_out", result.RowsOut,
		"corrections", result.Report.Total(),
		"duration", result.Duration,
	)
	return rec, nil
}

// GetRun returns a finished run from the cache or, failing that, the store.
func (s *Service) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}
	if s.store == nil {
		return nil, ErrRunNotFound
	}

	rec, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, rec)
	return rec, nil
}

// CorrectionLister is implemented by stores that can list corrections
// without loading the whole run.
type CorrectionLister interface {
	ListCorrections(ctx context.Context, id string) ([]RowCorrections, error)
}

// RowCorrections is one row's entry in a correction listing.
type RowCorrections struct {
	Row         RowID        `json:"row"`
	Corrections []Correction `json:"corrections"`
}

// Corrections lists a run's corrections in row order.
func (s *Service) Corrections(ctx context.Context, id string) ([]RowCorrections, error) {
	if _, cached := s.cache.Peek(id); !cached {
		if lister, ok := s.store.(CorrectionLister); ok {
			return lister.ListCorrections(ctx, id)
		}
	}

	rec, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Result == nil || rec.Result.Report == nil {
		return nil, nil
	}

	report := rec.Result.Report
	out := make([]RowCorrections, 0, len(report.Corrections))
	for _, row := range report.Rows() {
		out = append(out, RowCorrections{Row: row, Corrections: report.Corrections[row]})
	}
	return out, nil
}

// Status reports run slot usage.
func (s *Service) Status() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until in-flight runs finish or ctx ends.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
