package core

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// readTestCSV is a minimal TableReader: header row, then data rows, with
// empty fields as missing cells.
func readTestCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty file")
	}
	rows := make([][]Cell, 0, len(records)-1)
	for _, rec := range records[1:] {
		cells := make([]Cell, len(rec))
		for i, v := range rec {
			if v != "" {
				cells[i] = Text(v)
			}
		}
		rows = append(rows, cells)
	}
	return NewTable(cols(records[0]...), rows), nil
}

const peopleCSV = "age,name,date\n25,Ana,2023-01-01\n,,2023-02-30\n30,Carlos,invalid\n"

type memStore struct {
	mu      sync.Mutex
	runs    map[string]*RunRecord
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*RunRecord)}
}

func (m *memStore) SaveRun(_ context.Context, rec *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs[rec.ID] = rec
	return nil
}

func (m *memStore) GetRun(_ context.Context, id string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return rec, nil
}

// listingStore also answers correction listings directly.
type listingStore struct {
	*memStore
	listed int
}

func (l *listingStore) ListCorrections(_ context.Context, id string) ([]RowCorrections, error) {
	l.listed++
	return []RowCorrections{{Row: 7, Corrections: []Correction{{Column: "x", Kind: CorrectionTypeFixed}}}}, nil
}

func newTestService(t *testing.T, store RunStore, cfg ServiceConfig) *Service {
	t.Helper()
	svc, err := NewService(readTestCSV, store, cfg)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

var peopleRules = RuleSpec{
	NullStrategy:   "impute",
	ImputeStrategy: "unknown",
	TypeMapping:    map[string]string{"age": "int", "name": "str", "date": "datetime"},
}

func TestService_Run(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, ServiceConfig{})

	rec, err := svc.Run(context.Background(), RunRequest{
		FileName: "people.csv",
		Body:     strings.NewReader(peopleCSV),
		Rules:    peopleRules,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.ID == "" || rec.FileName != "people.csv" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.Persisted {
		t.Error("Persisted = false with a working store")
	}
	if _, ok := store.runs[rec.ID]; !ok {
		t.Error("run was not saved")
	}
	if rec.Result.Report.Counters[CounterNullsFilled] != 2 {
		t.Errorf("nulls_filled = %d, want 2", rec.Result.Report.Counters[CounterNullsFilled])
	}

	got, err := svc.GetRun(context.Background(), rec.ID)
	if err != nil || got != rec {
		t.Errorf("GetRun() = %v, %v, want the cached record", got, err)
	}
}

func TestService_RunDefaultsApplied(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{Defaults: RuleSpec{NullStrategy: "drop"}})

	rec, err := svc.Run(context.Background(), RunRequest{Body: strings.NewReader(peopleCSV)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rec.Rules.NullStrategy != "drop" {
		t.Errorf("Rules = %+v, want defaults", rec.Rules)
	}
	if rec.Result.RowsOut != 2 {
		t.Errorf("RowsOut = %d, want 2", rec.Result.RowsOut)
	}
}

func TestService_RunInvalidRules(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	_, err := svc.Run(context.Background(), RunRequest{
		Body:  strings.NewReader(peopleCSV),
		Rules: RuleSpec{DuplicateStrategy: "keep_some"},
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Run() error = %v, want ErrInvalidConfig", err)
	}
	if svc.Status().Active != 0 {
		t.Error("run slot leaked")
	}
}

func TestService_RunReadError(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	_, err := svc.Run(context.Background(), RunRequest{FileName: "blank.csv", Body: strings.NewReader("")})
	if err == nil || !strings.Contains(err.Error(), "blank.csv") {
		t.Errorf("Run() error = %v, want read error naming the file", err)
	}
}

func TestService_SaveFailureKeepsResult(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("connection reset by peer")
	svc := newTestService(t, store, ServiceConfig{})

	rec, err := svc.Run(context.Background(), RunRequest{Body: strings.NewReader(peopleCSV)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rec.Persisted {
		t.Error("Persisted = true after a failed save")
	}
	if _, err := svc.GetRun(context.Background(), rec.ID); err != nil {
		t.Errorf("GetRun() error = %v, want cached run", err)
	}
}

func TestService_GetRunFallsBackToStore(t *testing.T) {
	store := newMemStore()
	store.runs["stored"] = &RunRecord{ID: "stored", Persisted: true}
	svc := newTestService(t, store, ServiceConfig{})

	rec, err := svc.GetRun(context.Background(), "stored")
	if err != nil || rec.ID != "stored" {
		t.Fatalf("GetRun() = %v, %v", rec, err)
	}

	if _, err := svc.GetRun(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestService_GetRunWithoutStore(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	if _, err := svc.GetRun(context.Background(), "x"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestService_CacheEviction(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{CacheSize: 1})

	first, err := svc.Run(context.Background(), RunRequest{Body: strings.NewReader(peopleCSV)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Run(context.Background(), RunRequest{Body: strings.NewReader(peopleCSV)}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetRun(context.Background(), first.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun(evicted) error = %v, want ErrRunNotFound", err)
	}
}

func TestService_Corrections(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	rec, err := svc.Run(context.Background(), RunRequest{
		Body:  strings.NewReader(peopleCSV),
		Rules: peopleRules,
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := svc.Corrections(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Corrections() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Row != 1 || len(rows[0].Corrections) != 3 {
		t.Errorf("Corrections() = %+v, want three corrections on row 1", rows)
	}
}

func TestService_CorrectionsFromStore(t *testing.T) {
	store := &listingStore{memStore: newMemStore()}
	svc := newTestService(t, store, ServiceConfig{})

	rows, err := svc.Corrections(context.Background(), "old-run")
	if err != nil {
		t.Fatalf("Corrections() error = %v", err)
	}
	if store.listed != 1 || len(rows) != 1 || rows[0].Row != 7 {
		t.Errorf("Corrections() = %+v (listed %d), want the store listing", rows, store.listed)
	}

	// Cached runs are answered from memory.
	rec, err := svc.Run(context.Background(), RunRequest{Body: strings.NewReader(peopleCSV), Rules: peopleRules})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Corrections(context.Background(), rec.ID); err != nil {
		t.Fatal(err)
	}
	if store.listed != 1 {
		t.Errorf("store listed %d times, want 1", store.listed)
	}
}

func TestService_Busy(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})

	if !svc.limiter.TryAcquire() {
		t.Fatal("could not take the only slot")
	}
	defer svc.limiter.Release()

	_, err := svc.Run(context.Background(), RunRequest{Body: strings.NewReader(peopleCSV)})
	if !errors.Is(err, ErrTooManyRuns) {
		t.Errorf("Run() error = %v, want ErrTooManyRuns", err)
	}
}

func TestService_RunExpiredContext(t *testing.T) {
	svc := newTestService(t, nil, ServiceConfig{})

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := svc.Run(ctx, RunRequest{Body: strings.NewReader(peopleCSV), Rules: peopleRules})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
	}
	if svc.Status().Active != 0 {
		t.Error("run slot leaked")
	}
}

func TestService_RunTimeout(t *testing.T) {
	slow := func(r io.Reader) (*Table, error) {
		time.Sleep(50 * time.Millisecond)
		return readTestCSV(r)
	}
	svc, err := NewService(slow, nil, ServiceConfig{RunTimeout: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Run(context.Background(), RunRequest{Body: strings.NewReader(peopleCSV), Rules: peopleRules})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want context.DeadlineExceeded", err)
	}
	if MapError(err).Code != "RUN005" {
		t.Errorf("code = %s, want RUN005", MapError(err).Code)
	}
}

func TestNewService_InvalidDefaults(t *testing.T) {
	_, err := NewService(readTestCSV, nil, ServiceConfig{Defaults: RuleSpec{NullStrategy: "ignore"}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewService() error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewService(nil, nil, ServiceConfig{}); err == nil {
		t.Error("NewService(nil reader) should fail")
	}
}
