package domain

import (
	"sync"
	"testing"
)

func TestShutdownFlagStartsUnset(t *testing.T) {
	t.Parallel()

	var flag ShutdownFlag
	if flag.Requested() {
		t.Fatalf("new flag should not be requested")
	}
}

func TestShutdownFlagRequestIsIdempotent(t *testing.T) {
	t.Parallel()

	var flag ShutdownFlag
	flag.Request()
	flag.Request()
	if !flag.Requested() {
		t.Fatalf("flag should stay requested")
	}
}

func TestShutdownFlagConcurrentRequests(t *testing.T) {
	t.Parallel()

	var flag ShutdownFlag
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flag.Request()
		}()
	}
	wg.Wait()

	if !flag.Requested() {
		t.Fatalf("flag should be requested after concurrent writers")
	}
}
