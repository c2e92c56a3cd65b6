package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/boxrate/audit"
	"github.com/xraph/boxrate/id"
	"github.com/xraph/boxrate/plugin"
)

type counting struct {
	name    string
	audited atomic.Int32
	flagged atomic.Int32
	failErr error
}

func (c *counting) Name() string { return c.name }

func (c *counting) OnAccountAudited(context.Context, id.AuditRunID, *audit.Result) error {
	c.audited.Add(1)
	return c.failErr
}

func (c *counting) OnAccountFlagged(context.Context, id.AuditRunID, *audit.Result) error {
	c.flagged.Add(1)
	return c.failErr
}

type slow struct{ delay time.Duration }

func (s slow) Name() string { return "slow" }

func (s slow) OnAuditDataCleared(ctx context.Context, _ int64) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
	return nil
}

type nameOnly struct{}

func (nameOnly) Name() string { return "bare" }

func newRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterDuplicate(t *testing.T) {
	r := newRegistry()
	if err := r.Register(&counting{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&counting{name: "a"}); err == nil {
		t.Fatal("duplicate registration accepted")
	}
	if err := r.Register(nameOnly{}); err != nil {
		t.Fatal(err)
	}
	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}
	if r.Get("bare") == nil || r.Get("missing") != nil {
		t.Error("Get returned the wrong plugin")
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("List len = %d", got)
	}
}

func TestEmitAccountAudited(t *testing.T) {
	tests := []struct {
		name        string
		state       audit.State
		wantFlagged int32
	}{
		{name: "ok", state: audit.StateOK, wantFlagged: 0},
		{name: "override", state: audit.StateOverrideAccepted, wantFlagged: 0},
		{name: "flagged", state: audit.StateFlagged, wantFlagged: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry()
			c := &counting{name: "c"}
			_ = r.Register(c)

			r.EmitAccountAudited(context.Background(), id.NewAuditRunID(), &audit.Result{State: tt.state})

			if c.audited.Load() != 1 {
				t.Errorf("audited = %d, want 1", c.audited.Load())
			}
			if c.flagged.Load() != tt.wantFlagged {
				t.Errorf("flagged = %d, want %d", c.flagged.Load(), tt.wantFlagged)
			}
		})
	}
}

func TestHookErrorsDoNotStopDispatch(t *testing.T) {
	r := newRegistry()
	bad := &counting{name: "bad", failErr: errors.New("boom")}
	good := &counting{name: "good"}
	_ = r.Register(bad)
	_ = r.Register(good)

	r.EmitAccountAudited(context.Background(), id.NewAuditRunID(), &audit.Result{State: audit.StateFlagged})

	if good.audited.Load() != 1 || good.flagged.Load() != 1 {
		t.Errorf("good plugin missed events: audited=%d flagged=%d", good.audited.Load(), good.flagged.Load())
	}
}

func TestHookTimeout(t *testing.T) {
	r := newRegistry().WithTimeout(20 * time.Millisecond)
	_ = r.Register(slow{delay: time.Second})

	start := time.Now()
	r.EmitAuditDataCleared(context.Background(), 3)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("emit blocked for %s", elapsed)
	}
}
