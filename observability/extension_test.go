package observability_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xraph/boxrate/account"
	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/observability"
	"github.com/xraph/boxrate/rate"
	"github.com/xraph/boxrate/types"
)

type metric struct {
	mu     sync.Mutex
	total  float64
	values []float64
}

func (m *metric) Inc() { m.Add(1) }

func (m *metric) Add(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total += v
}

func (m *metric) Observe(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = append(m.values, v)
}

type factory struct {
	metrics map[string]*metric
}

func newFactory() *factory { return &factory{metrics: make(map[string]*metric)} }

func (f *factory) get(name string) *metric {
	if m, ok := f.metrics[name]; ok {
		return m
	}
	m := &metric{}
	f.metrics[name] = m
	return m
}

func (f *factory) Counter(name string) observability.Counter     { return f.get(name) }
func (f *factory) Histogram(name string) observability.Histogram { return f.get(name) }

func TestAccountAuditedCounters(t *testing.T) {
	f := newFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()
	run := id.NewAuditRunID()

	results := []*audit.Result{
		{State: audit.StateOK},
		{State: audit.StateOverrideAccepted},
		{State: audit.StateFlagged, FlagType: account.FlagUndercharged, Discrepancy: types.USD(-2100)},
		{State: audit.StateFlagged, FlagType: account.FlagOvercharged, Discrepancy: types.USD(500)},
		{State: audit.StateFlagged, FlagType: account.FlagUndercharged, MissingRate: true},
	}
	for _, r := range results {
		if err := m.OnAccountAudited(ctx, run, r); err != nil {
			t.Fatal(err)
		}
	}

	want := map[string]float64{
		"boxrate.audit.accounts":                   5,
		"boxrate.audit.accounts.ok":                1,
		"boxrate.audit.accounts.override_accepted": 1,
		"boxrate.audit.accounts.flagged":           3,
		"boxrate.flag.undercharged":                2,
		"boxrate.flag.overcharged":                 1,
		"boxrate.flag.recipient_overflow":          0,
		"boxrate.audit.missing_rates":              1,
	}
	for name, v := range want {
		if got := f.get(name).total; got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}

	disc := f.get("boxrate.audit.discrepancy_cents").values
	if len(disc) != 3 || disc[0] != 2100 || disc[1] != 500 {
		t.Errorf("discrepancy observations = %v", disc)
	}
}

func TestRunAndRateCounters(t *testing.T) {
	f := newFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	_ = m.OnRateVersionCreated(ctx, &rate.Version{}, nil)
	_ = m.OnRateVersionCreated(ctx, &rate.Version{}, &rate.Version{})
	_ = m.OnAuditStarted(ctx, id.NewAuditRunID(), 40)
	_ = m.OnAuditCompleted(ctx, &audit.Summary{}, 1500*time.Millisecond)
	_ = m.OnAuditFailed(ctx, id.NewAuditRunID(), context.Canceled)

	checks := map[string]float64{
		"boxrate.rate_version.created": 2,
		"boxrate.rate_version.closed":  1,
		"boxrate.audit.runs":           1,
		"boxrate.audit.failures":       1,
	}
	for name, v := range checks {
		if got := f.get(name).total; got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}
	if got := f.get("boxrate.audit.batch.size").values; len(got) != 1 || got[0] != 40 {
		t.Errorf("batch size = %v", got)
	}
	if got := f.get("boxrate.audit.latency_ms").values; len(got) != 1 || got[0] != 1500 {
		t.Errorf("latency = %v", got)
	}
}
