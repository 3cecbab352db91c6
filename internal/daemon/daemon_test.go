package daemon_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"

	"clipcaster/internal/daemon"
	"clipcaster/internal/testsupport"
)

type blockingLoop struct {
	started atomic.Int32
	stopped atomic.Int32
}

func (l *blockingLoop) Run(ctx context.Context) error {
	l.started.Add(1)
	<-ctx.Done()
	l.stopped.Add(1)
	return nil
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	loop := &blockingLoop{}
	d, err := daemon.New(cfg, loop, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
	if loop.started.Load() != 1 || loop.stopped.Load() != 1 {
		t.Fatalf("loop started=%d stopped=%d", loop.started.Load(), loop.stopped.Load())
	}
	d.Stop()
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	first, err := daemon.New(cfg, &blockingLoop{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := daemon.New(cfg, &blockingLoop{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock contention error")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
	second.Stop()
}

func TestNewRequiresLoop(t *testing.T) {
	if _, err := daemon.New(testsupport.NewConfig(t), nil, nil); err == nil {
		t.Fatal("expected error without scheduler")
	}
}

func TestProbeReportsLockHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	st, err := daemon.Probe(cfg)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if st.Running {
		t.Fatal("expected idle daemon before start")
	}

	d, err := daemon.New(cfg, &blockingLoop{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	st, err = daemon.Probe(cfg)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !st.Running || st.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected status %+v", st)
	}
}
