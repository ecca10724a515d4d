package gatekit

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMetricsCountLifecycle(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	ctx := context.Background()

	pair, err := engine.Login(ctx, testEmail, testSecret)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("expected ErrReuseDetected, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("login success = %d, want 1", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricRefreshSuccess] != 1 {
		t.Fatalf("refresh success = %d, want 1", snap.Counters[MetricRefreshSuccess])
	}
	if snap.Counters[MetricReuseDetected] != 1 {
		t.Fatalf("reuse detected = %d, want 1", snap.Counters[MetricReuseDetected])
	}
	if snap.Counters[MetricFamilyPoisoned] != 1 {
		t.Fatalf("family poisoned = %d, want 1", snap.Counters[MetricFamilyPoisoned])
	}
	if snap.Counters[MetricTokenRevoked] == 0 {
		t.Fatal("expected revocation writes to be counted")
	}
}

func TestMetricsDisabledSnapshotEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false

	engine, _, done := newTestEngineWithConfig(t, cfg)
	defer done()

	if _, err := engine.Login(context.Background(), testEmail, testSecret); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("disabled metrics must snapshot empty, got %d counters", len(snap.Counters))
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const (
		workers = 8
		perG    = 1000
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricLogout)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLogout); got != workers*perG {
		t.Fatalf("logout counter = %d, want %d", got, workers*perG)
	}
}

func TestMetricsOutOfRangeIDIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricIDCount)
	m.Inc(metricIDCount + 100)

	if got := m.Value(metricIDCount + 100); got != 0 {
		t.Fatalf("out of range id must read zero, got %d", got)
	}
}
