package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlightCollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var invocations atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			val, err, _ := g.Do("scoreboard:2024-03-01", func() (any, error) {
				invocations.Add(1)
				<-release
				return "rows", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[idx] = val
		}(i)
	}

	close(release)
	wg.Wait()

	if got := invocations.Load(); got != 1 {
		t.Fatalf("expected a single upstream call, got %d", got)
	}
	for _, val := range results {
		if val != "rows" {
			t.Fatalf("unexpected result: %v", val)
		}
	}
}

func TestSingleFlightRunsAgainAfterCompletion(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	calls := 0
	for i := 0; i < 3; i++ {
		_, _, shared := g.Do("teams", func() (any, error) {
			calls++
			return nil, nil
		})
		if shared {
			t.Fatal("sequential calls must not be shared")
		}
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}
