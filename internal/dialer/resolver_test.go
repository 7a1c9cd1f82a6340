package dialer

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestResolverIPLiteral(t *testing.T) {
	t.Parallel()

	r := newResolver(func(context.Context, string) ([]net.IPAddr, error) {
		t.Error("lookup called for an IP literal")
		return nil, nil
	}, time.Minute, time.Second)

	addrs, err := r.LookupIPAddr(context.Background(), "192.0.2.7")
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || !addrs[0].IP.Equal(net.ParseIP("192.0.2.7")) {
		t.Fatalf("addrs = %v", addrs)
	}
}

func TestResolverCachesSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := newResolver(func(context.Context, string) ([]net.IPAddr, error) {
		calls.Add(1)
		return []net.IPAddr{{IP: net.ParseIP("192.0.2.1")}}, nil
	}, time.Minute, time.Second)

	for i := 0; i < 3; i++ {
		if _, err := r.LookupIPAddr(context.Background(), "cached.example"); err != nil {
			t.Fatal(err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("lookup called %d times, want 1", n)
	}
}

func TestResolverDoesNotCacheFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := newResolver(func(context.Context, string) ([]net.IPAddr, error) {
		calls.Add(1)
		return nil, errors.New("servfail")
	}, time.Minute, time.Second)

	for i := 0; i < 2; i++ {
		if _, err := r.LookupIPAddr(context.Background(), "broken.example"); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("lookup called %d times, want 2", n)
	}
}

func TestResolverEmptyAnswer(t *testing.T) {
	t.Parallel()

	r := newResolver(func(context.Context, string) ([]net.IPAddr, error) {
		return nil, nil
	}, 0, time.Second)

	if _, err := r.LookupIPAddr(context.Background(), "empty.example"); !errors.Is(err, errNoAddresses) {
		t.Fatalf("err=%v, want errNoAddresses", err)
	}
}

func TestResolverCollapsesConcurrentLookups(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	r := newResolver(func(context.Context, string) ([]net.IPAddr, error) {
		calls.Add(1)
		<-release
		return []net.IPAddr{{IP: net.ParseIP("192.0.2.9")}}, nil
	}, 0, 5*time.Second)

	const n = 5
	var started, wg sync.WaitGroup
	started.Add(n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			started.Done()
			if _, err := r.LookupIPAddr(context.Background(), "shared.example"); err != nil {
				t.Error(err)
			}
		}()
	}
	started.Wait()
	// Give the goroutines a moment to join the in-flight query.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if c := calls.Load(); c != 1 {
		t.Fatalf("lookup called %d times, want 1", c)
	}
}

func TestResolverCallerCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	r := newResolver(func(context.Context, string) ([]net.IPAddr, error) {
		<-release
		return nil, errors.New("late")
	}, 0, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := r.LookupIPAddr(ctx, "slow.example"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want deadline exceeded", err)
	}
}
