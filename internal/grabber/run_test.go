package grabber

import (
	"context"
	"testing"
	"time"

	"github.com/opentvepg/grabber/internal/metrics"
	"github.com/opentvepg/grabber/internal/provider"
	"github.com/opentvepg/grabber/internal/svcmgr"
)

func TestRunInvokesTeardownOnRevolutionCompletion(t *testing.T) {
	p := &provider.Provider{ID: "single", ChannelPIDs: []uint16{700}}
	store := newFakeStore()
	reg := NewRegistry(store, svcmgr.NewStaticRegistry(), metrics.New())
	mod := reg.AddModule(p, 50*time.Millisecond, 10*time.Minute)

	fp := make([]byte, 20)
	mod.tracker.Observe(700, fp)
	if mod.tracker.Observe(700, fp); !mod.tracker.AllComplete() {
		t.Fatalf("tracker should be complete before Run starts")
	}

	teardowns := make(chan string, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		reg.Run(ctx, func(providerID string) { teardowns <- providerID })
		close(done)
	}()

	select {
	case id := <-teardowns:
		if id != "single" {
			t.Fatalf("teardown for provider %q, want %q", id, "single")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("teardown was never invoked")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRunStopsOnContextCancelWithoutCompletion(t *testing.T) {
	p := &provider.Provider{ID: "never", ChannelPIDs: []uint16{701}}
	store := newFakeStore()
	reg := NewRegistry(store, svcmgr.NewStaticRegistry(), metrics.New())
	reg.AddModule(p, time.Hour, 10*time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	called := false
	go func() {
		reg.Run(ctx, func(string) { called = true })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Run did not return promptly on context cancellation")
	}
	if called {
		t.Fatal("teardown should never fire when the carousel never completes")
	}
}
