package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/relaylabs/switchboard/internal/registry"
)

func TestRegisterThenComplete(t *testing.T) {
	r := registry.New[string, int]()

	cell := r.Register("k1")
	if !r.Complete("k1", 42) {
		t.Fatal("Complete returned false for a registered key")
	}

	got, err := cell.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got != 42 {
		t.Errorf("Wait = %d, want 42", got)
	}
}

func TestWaitTimesOutWithoutCompletion(t *testing.T) {
	r := registry.New[string, int]()
	cell := r.Register("never")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cell.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait error = %v, want DeadlineExceeded", err)
	}

	if r.Pending() != 1 {
		t.Errorf("Pending = %d, want 1 (entry is not reclaimed on timeout)", r.Pending())
	}
}

func TestCompleteUnknownKeyIsNoOp(t *testing.T) {
	r := registry.New[string, int]()

	if r.Complete("ghost", 1) {
		t.Error("Complete returned true for an unregistered key")
	}
	if r.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", r.Pending())
	}
}

func TestDoubleCompleteDeliversFirstValueOnly(t *testing.T) {
	r := registry.New[string, int]()
	cell := r.Register("k")

	if !r.Complete("k", 1) {
		t.Fatal("first Complete returned false")
	}
	if r.Complete("k", 2) {
		t.Error("second Complete returned true, want no-op")
	}

	got, err := cell.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got != 1 {
		t.Errorf("Wait = %d, want first value 1", got)
	}
}

func TestReRegisterOrphansFirstWaiter(t *testing.T) {
	r := registry.New[string, int]()

	first := r.Register("k")
	second := r.Register("k")

	r.Complete("k", 7)

	got, err := second.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait on second cell: %v", err)
	}
	if got != 7 {
		t.Errorf("second cell = %d, want 7", got)
	}

	// The first registration was overwritten; its cell is never fulfilled.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := first.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("first cell Wait error = %v, want DeadlineExceeded", err)
	}
}

func TestAllReadersObserveSameValue(t *testing.T) {
	r := registry.New[string, string]()
	cell := r.Register("k")

	const readers = 8
	results := make(chan string, readers)
	for i := 0; i < readers; i++ {
		go func() {
			v, err := cell.Wait(context.Background())
			if err != nil {
				t.Errorf("Wait: %v", err)
			}
			results <- v
		}()
	}

	r.Complete("k", "hello")

	for i := 0; i < readers; i++ {
		if v := <-results; v != "hello" {
			t.Errorf("reader got %q, want %q", v, "hello")
		}
	}
}

func TestConcurrentPairsNoCrossDelivery(t *testing.T) {
	r := registry.New[int, int]()
	const n = 200

	var wg sync.WaitGroup
	for k := 0; k < n; k++ {
		wg.Add(2)

		cell := r.Register(k)
		go func(k int) {
			defer wg.Done()
			got, err := cell.Wait(context.Background())
			if err != nil {
				t.Errorf("Wait(%d): %v", k, err)
				return
			}
			if got != k*3 {
				t.Errorf("key %d got %d, want %d", k, got, k*3)
			}
		}(k)

		go func(k int) {
			defer wg.Done()
			if !r.Complete(k, k*3) {
				t.Errorf("Complete(%d) returned false", k)
			}
		}(k)
	}

	wg.Wait()
	if r.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", r.Pending())
	}
}

func TestConcurrentCompletesFulfillOnce(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("k")

	const callers = 16
	var delivered int
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if r.Complete("k", v) {
				mu.Lock()
				delivered++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if delivered != 1 {
		t.Errorf("delivered = %d completions, want exactly 1", delivered)
	}
}
