package blocklist

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"time"
)

// Reloader keeps a Holder in sync with a blocklist file.
type Reloader struct {
	Path   string
	Holder *Holder

	// Interval is how often the file's size and mtime are checked. Zero
	// disables polling; Run then only reacts to explicit triggers.
	Interval time.Duration

	// InitialBackoff and MaxBackoff bound the retry delay after a failed
	// reload. Zero values pick 5s and 5m.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	modTime time.Time
	size    int64
}

// Reload loads Path unconditionally and swaps it into Holder. On error the
// current snapshot is left in place.
func (r *Reloader) Reload() error {
	fi, err := os.Stat(r.Path)
	if err != nil {
		return fmt.Errorf("stat blocklist: %w", err)
	}

	l, err := LoadFile(r.Path)
	if err != nil {
		return err
	}

	r.Holder.Store(l)
	r.modTime, r.size = fi.ModTime(), fi.Size()
	log.Printf("blocklist: loaded %d domains from %s", l.Len(), r.Path)
	return nil
}

func (r *Reloader) reloadIfChanged() error {
	fi, err := os.Stat(r.Path)
	if err != nil {
		return fmt.Errorf("stat blocklist: %w", err)
	}
	if fi.ModTime().Equal(r.modTime) && fi.Size() == r.size {
		return nil
	}
	return r.Reload()
}

// Run polls Path every Interval and reloads whenever trigger fires, until
// ctx is done. Consecutive failures delay the next attempt with exponential
// backoff.
func (r *Reloader) Run(ctx context.Context, trigger <-chan os.Signal) error {
	initial, maxBackoff := r.InitialBackoff, r.MaxBackoff
	if initial <= 0 {
		initial = 5 * time.Second
	}
	if maxBackoff <= 0 {
		maxBackoff = 5 * time.Minute
	}

	var tick <-chan time.Time
	if r.Interval > 0 {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var failures int
	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			err = r.reloadIfChanged()
		case <-trigger:
			err = r.Reload()
		}

		if err == nil {
			if failures > 0 {
				log.Printf("blocklist: reload recovered after %d failures", failures)
			}
			failures = 0
			continue
		}

		failures++
		backoff := calcBackoff(initial, maxBackoff, failures)
		log.Printf("blocklist: reload failed (attempt #%d), keeping previous list, backoff=%s: %v", failures, backoff, err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func calcBackoff(initial, maxBackoff time.Duration, failures int) time.Duration {
	backoff := time.Duration(float64(initial) * math.Pow(2, float64(failures-1)))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}

	// +/-20% jitter.
	jitter := time.Duration((rand.Float64()*0.4 - 0.2) * float64(backoff))
	return backoff + jitter
}
