package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/helix-trading/gateway-core/business/gateway/domain"
)

// collectEvents runs MonitorTransaction synchronously and returns the
// delivered events.
func collectEvents(t *testing.T, m *TransactionMonitor, resp domain.SubmissionResponse, orderID string) []domain.Event {
	t.Helper()

	var mu sync.Mutex
	var events []domain.Event
	m.MonitorTransaction(context.Background(), resp, "solana", "mainnet-beta", orderID, func(ev domain.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	return events
}

func TestMonitorNoHashNoEvents(t *testing.T) {
	fake := &fakeSidecar{}
	m := NewTransactionMonitor(fake, &mockLogger{}, time.Millisecond, 10*time.Millisecond)

	events := collectEvents(t, m, domain.SubmissionResponse{}, "order-1")

	if len(events) != 0 {
		t.Errorf("events = %+v, want none without a hash", events)
	}
	if fake.polls() != 0 {
		t.Errorf("polls = %d, want 0", fake.polls())
	}
}

func TestMonitorImmediateConfirmedNoPolls(t *testing.T) {
	fake := &fakeSidecar{}
	m := NewTransactionMonitor(fake, &mockLogger{}, time.Millisecond, 10*time.Millisecond)

	confirmed := 1
	events := collectEvents(t, m, domain.SubmissionResponse{Signature: "0xabc", Status: &confirmed}, "order-1")

	if len(events) != 2 {
		t.Fatalf("events = %d, want exactly 2", len(events))
	}
	if events[0].Kind != domain.EventTxHash || events[0].Payload != "0xabc" {
		t.Errorf("first event = %+v, want tx_hash 0xabc", events[0])
	}
	if events[1].Kind != domain.EventConfirmed {
		t.Errorf("second event = %+v, want confirmed", events[1])
	}
	if fake.polls() != 0 {
		t.Errorf("polls = %d, want 0 for a synchronously resolved submission", fake.polls())
	}
}

func TestMonitorImmediateFailed(t *testing.T) {
	fake := &fakeSidecar{}
	m := NewTransactionMonitor(fake, &mockLogger{}, time.Millisecond, 10*time.Millisecond)

	failed := -1
	events := collectEvents(t, m, domain.SubmissionResponse{TxHash: "0xdead", Status: &failed}, "order-1")

	if len(events) != 2 || events[1].Kind != domain.EventFailed {
		t.Errorf("events = %+v, want tx_hash then failed", events)
	}
}

func TestMonitorAllPendingTimesOutAfterExactBudget(t *testing.T) {
	fake := &fakeSidecar{
		pollFn: func(string) (domain.PollResponse, error) {
			return domain.PollResponse{}, nil // always pending
		},
	}
	pollInterval := time.Millisecond
	maxPollTime := 10 * time.Millisecond
	m := NewTransactionMonitor(fake, &mockLogger{}, pollInterval, maxPollTime)

	events := collectEvents(t, m, domain.SubmissionResponse{Signature: "0xabc"}, "order-1")

	wantPolls := int(maxPollTime / pollInterval)
	if fake.polls() != wantPolls {
		t.Errorf("polls = %d, want exactly %d", fake.polls(), wantPolls)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	last := events[1]
	if last.Kind != domain.EventFailed {
		t.Fatalf("terminal event = %+v, want failed", last)
	}
	msg, ok := last.Payload.(string)
	if !ok || !strings.Contains(msg, "timed out") {
		t.Errorf("timeout payload = %v, want message containing 'timed out'", last.Payload)
	}
}

func TestMonitorPollErrorsCountAsPending(t *testing.T) {
	calls := 0
	confirmed := 1
	var mu sync.Mutex
	fake := &fakeSidecar{}
	fake.pollFn = func(string) (domain.PollResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return domain.PollResponse{}, errors.New("gateway hiccup")
		}
		return domain.PollResponse{TxStatus: &confirmed}, nil
	}
	m := NewTransactionMonitor(fake, &mockLogger{}, time.Millisecond, 20*time.Millisecond)

	events := collectEvents(t, m, domain.SubmissionResponse{Signature: "0xabc"}, "order-1")

	if len(events) != 2 || events[1].Kind != domain.EventConfirmed {
		t.Fatalf("events = %+v, want tx_hash then confirmed despite poll errors", events)
	}
	if fake.polls() != 3 {
		t.Errorf("polls = %d, want 3 (loop must survive the two errors)", fake.polls())
	}
}

func TestMonitorTerminalOnFailedPoll(t *testing.T) {
	failed := -1
	fake := &fakeSidecar{
		pollFn: func(string) (domain.PollResponse, error) {
			return domain.PollResponse{TxStatus: &failed}, nil
		},
	}
	m := NewTransactionMonitor(fake, &mockLogger{}, time.Millisecond, 20*time.Millisecond)

	events := collectEvents(t, m, domain.SubmissionResponse{Signature: "0xabc"}, "order-1")

	if len(events) != 2 || events[1].Kind != domain.EventFailed {
		t.Fatalf("events = %+v, want tx_hash then failed", events)
	}
	if fake.polls() != 1 {
		t.Errorf("polls = %d, want 1 (loop ends on first terminal status)", fake.polls())
	}
}

func TestConcurrentMonitorsAreIndependent(t *testing.T) {
	confirmed := 1
	perOrder := make(map[string]int)
	var mu sync.Mutex

	fakeA := &fakeSidecar{pollFn: func(sig string) (domain.PollResponse, error) {
		mu.Lock()
		perOrder["a"]++
		n := perOrder["a"]
		mu.Unlock()
		if n < 3 {
			return domain.PollResponse{}, nil
		}
		return domain.PollResponse{TxStatus: &confirmed}, nil
	}}
	fakeB := &fakeSidecar{pollFn: func(sig string) (domain.PollResponse, error) {
		mu.Lock()
		perOrder["b"]++
		n := perOrder["b"]
		mu.Unlock()
		if n < 5 {
			return domain.PollResponse{}, nil
		}
		return domain.PollResponse{TxStatus: &confirmed}, nil
	}}

	mA := NewTransactionMonitor(fakeA, &mockLogger{}, time.Millisecond, 50*time.Millisecond)
	mB := NewTransactionMonitor(fakeB, &mockLogger{}, time.Millisecond, 50*time.Millisecond)

	resp := domain.SubmissionResponse{Signature: "0xshared"}

	var wg sync.WaitGroup
	terminal := make(chan domain.Event, 2)
	for _, run := range []struct {
		m  *TransactionMonitor
		id string
	}{{mA, "order-a"}, {mB, "order-b"}} {
		wg.Add(1)
		go func(m *TransactionMonitor, id string) {
			defer wg.Done()
			m.MonitorTransaction(context.Background(), resp, "solana", "mainnet-beta", id, func(ev domain.Event) {
				if ev.Kind != domain.EventTxHash {
					terminal <- ev
				}
			})
		}(run.m, run.id)
	}
	wg.Wait()
	close(terminal)

	var got []domain.Event
	for ev := range terminal {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("terminal events = %d, want one per order", len(got))
	}
	for _, ev := range got {
		if ev.Kind != domain.EventConfirmed {
			t.Errorf("order %s terminal = %v, want confirmed", ev.OrderID, ev.Kind)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if perOrder["a"] != 3 || perOrder["b"] != 5 {
		t.Errorf("poll counts = %v, want a:3 b:5 (independent budgets)", perOrder)
	}
}
