// Package provider talks to the upstream schedule provider and turns its
// responses into datasets.
package provider

import (
	"context"
	"log"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/timezone"
)

// Fetcher makes a single bounded attempt to obtain a fresh dataset. Every
// failure is logged and reported as a nil dataset.
type Fetcher struct {
	source  Source
	now     func() time.Time
	timeout time.Duration
}

type FetcherOption func(*Fetcher)

func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		f.now = now
	}
}

func NewFetcher(source Source, timeout time.Duration, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:  source,
		now:     time.Now,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) FetchFresh(ctx context.Context) *domain.Dataset {
	// an abandoned request must not cut the fetch short
	ctx = context.WithoutCancel(ctx)
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	body, err := f.source.Fetch(ctx)
	if err != nil {
		log.Printf("[PROVIDER] action=fetch status=failed err=%v", err)
		return nil
	}

	ds, err := Decode(body)
	if err != nil {
		log.Printf("[PROVIDER] action=decode status=failed err=%v", err)
		return nil
	}

	expires, err := timezone.Instant(ds.Expires)
	if err != nil {
		log.Printf("[PROVIDER] action=validate status=failed expires=%q err=%v", ds.Expires.Value, err)
		return nil
	}
	if now := f.now(); !expires.After(now) {
		log.Printf("[PROVIDER] action=validate status=stale expires=%s now=%s", expires.Format(time.RFC3339), now.UTC().Format(time.RFC3339))
		return nil
	}

	return ds
}
