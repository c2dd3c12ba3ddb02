package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatusMonitorInitialStateOffline(t *testing.T) {
	m := NewStatusMonitor(&fakeSidecar{}, &mockLogger{}, time.Second, time.Minute)

	if m.Status() != StatusOffline {
		t.Errorf("initial status = %v, want OFFLINE", m.Status())
	}

	select {
	case <-m.Ready():
		t.Error("ready channel must not be closed before the first successful probe")
	default:
	}
}

func TestStatusMonitorLoopNotStartedWhenFirstProbeFails(t *testing.T) {
	fake := &fakeSidecar{pingErr: errors.New("connection refused")}
	m := NewStatusMonitor(fake, &mockLogger{}, time.Millisecond, 10*time.Millisecond)

	m.Start(context.Background())

	time.Sleep(20 * time.Millisecond)

	fake.mu.Lock()
	pings := fake.pingCalls
	fake.mu.Unlock()
	if pings != 1 {
		t.Errorf("pings = %d, want 1 (loop must not start after a failed first probe)", pings)
	}
	if m.Status() != StatusOffline {
		t.Errorf("status = %v, want OFFLINE", m.Status())
	}
}

func TestStatusMonitorOnlineTransition(t *testing.T) {
	fake := &fakeSidecar{}
	m := NewStatusMonitor(fake, &mockLogger{}, 50*time.Millisecond, time.Second)

	onlineFired := make(chan struct{}, 1)
	m.SetCallbacks(func() { onlineFired <- struct{}{} }, nil)

	m.Start(context.Background())
	defer m.Stop()

	select {
	case <-onlineFired:
	case <-time.After(time.Second):
		t.Fatal("online hook not fired")
	}

	if m.Status() != StatusOnline {
		t.Errorf("status = %v, want ONLINE", m.Status())
	}

	select {
	case <-m.Ready():
	default:
		t.Error("ready channel must be closed while online")
	}

	fake.mu.Lock()
	inits := fake.initCalls
	fake.mu.Unlock()
	if inits != 1 {
		t.Errorf("InitializeGateway calls = %d, want 1 on the online transition", inits)
	}
}

func TestStatusMonitorWarmupFailureDoesNotFlipStatus(t *testing.T) {
	fake := &fakeSidecar{initErr: errors.New("warm-up failed")}
	m := NewStatusMonitor(fake, &mockLogger{}, 50*time.Millisecond, time.Second)

	m.Start(context.Background())
	defer m.Stop()

	if m.Status() != StatusOnline {
		t.Errorf("status = %v, want ONLINE despite warm-up failure", m.Status())
	}
}

func TestStatusMonitorBackoffFormula(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second
	fake := &fakeSidecar{}
	m := NewStatusMonitor(fake, &mockLogger{}, base, max)

	ctx := context.Background()

	// Bring it online first so failures walk the backoff ladder.
	m.probe(ctx)

	wantIntervals := []time.Duration{
		100 * time.Millisecond, // 2^0
		200 * time.Millisecond, // 2^1
		400 * time.Millisecond, // 2^2
		800 * time.Millisecond, // 2^3
		time.Second,            // 2^4 = 1.6s capped at max
		time.Second,            // 2^5 capped
		time.Second,            // shift capped at 5, still max
	}

	fake.pingErr = errors.New("down")
	for i, want := range wantIntervals {
		m.probe(ctx)
		if got := m.BackoffInterval(); got != want {
			t.Errorf("interval after %d failures = %s, want %s", i+1, got, want)
		}
	}

	// A successful probe resets the ladder.
	fake.pingErr = nil
	m.probe(ctx)
	if got := m.BackoffInterval(); got != base {
		t.Errorf("interval after recovery = %s, want base %s", got, base)
	}
}

func TestStatusMonitorMaxIntervalNeverBelowBase(t *testing.T) {
	base := 100 * time.Millisecond
	fake := &fakeSidecar{}
	m := NewStatusMonitor(fake, &mockLogger{}, base, 10*time.Millisecond)

	ctx := context.Background()
	m.probe(ctx)

	fake.pingErr = errors.New("down")
	for i := 0; i < 4; i++ {
		m.probe(ctx)
		if got := m.BackoffInterval(); got < base {
			t.Fatalf("interval after %d failures = %s, below base %s", i+1, got, base)
		}
	}
	if got := m.BackoffInterval(); got != base {
		t.Errorf("interval = %s, want cap clamped to base %s", got, base)
	}
}

func TestStatusMonitorOfflineTransitionRearmsReady(t *testing.T) {
	fake := &fakeSidecar{}
	m := NewStatusMonitor(fake, &mockLogger{}, 10*time.Millisecond, time.Second)

	offlineFired := make(chan struct{}, 1)
	m.SetCallbacks(nil, func() { offlineFired <- struct{}{} })

	ctx := context.Background()
	m.probe(ctx)
	readyWhileOnline := m.Ready()

	fake.pingErr = errors.New("down")
	m.probe(ctx)

	select {
	case <-offlineFired:
	default:
		t.Error("offline hook not fired on ONLINE to OFFLINE transition")
	}
	if m.Status() != StatusOffline {
		t.Errorf("status = %v, want OFFLINE", m.Status())
	}

	select {
	case <-readyWhileOnline:
	default:
		t.Error("previously returned ready channel should remain closed")
	}

	select {
	case <-m.Ready():
		t.Error("new ready channel must be open while offline")
	default:
	}
}

func TestCheckOnceHasNoStateSideEffects(t *testing.T) {
	fake := &fakeSidecar{pingErr: errors.New("down")}
	m := NewStatusMonitor(fake, &mockLogger{}, time.Second, time.Minute)

	if m.CheckOnce(context.Background()) {
		t.Error("CheckOnce = true, want false for a failing probe")
	}
	if m.BackoffInterval() != time.Second {
		t.Error("CheckOnce must not touch the backoff interval")
	}

	fake.pingErr = nil
	if !m.CheckOnce(context.Background()) {
		t.Error("CheckOnce = false, want true")
	}
	if m.Status() != StatusOffline {
		t.Error("CheckOnce must not change the status")
	}
}
