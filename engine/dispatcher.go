package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// FetchMode restricts which engines may serve a request.
type FetchMode string

const (
	FetchAuto    FetchMode = "auto"
	FetchHTTP    FetchMode = "http"
	FetchBrowser FetchMode = "browser"
)

func (m FetchMode) allows(e Engine) bool {
	switch m {
	case FetchHTTP:
		return e.Name() == "http"
	case FetchBrowser:
		return e.Name() != "http"
	default:
		return true
	}
}

// Dispatcher races engines with staged start delays: the http engine starts
// at once and browser engines join if it has not answered in time. The
// first success wins and is remembered per host.
type Dispatcher struct {
	engines []Engine
	delays  []time.Duration
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] starts delays[i] after the
// race begins; missing delays are zero.
func NewDispatcher(engines []Engine, delays []time.Duration, memory *DomainMemory) *Dispatcher {
	d := make([]time.Duration, len(engines))
	copy(d, delays)
	return &Dispatcher{engines: engines, delays: d, memory: memory}
}

// Dispatch returns the first successful fetch among the engines mode allows.
// If all fail, the last error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest, mode FetchMode) (*FetchResult, error) {
	host := hostOf(req.URL)

	if name := d.memory.Get(host); name != "" {
		for _, eng := range d.engines {
			if eng.Name() != name || !mode.allows(eng) {
				continue
			}
			slog.Debug("engine memory hit", "host", host, "engine", name)
			result, err := eng.Fetch(ctx, req)
			if err == nil {
				return result, nil
			}
			slog.Info("remembered engine failed, racing all engines", "host", host, "engine", name, "error", err)
			d.memory.Delete(host)
			break
		}
	}

	return d.race(ctx, req, host, mode)
}

type raceResult struct {
	result *FetchResult
	err    error
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, host string, mode FetchMode) (*FetchResult, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	started := 0
	for i, eng := range d.engines {
		if !mode.allows(eng) {
			continue
		}
		started++
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()
			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, d.delays[i])
	}
	if started == 0 {
		return nil, fmt.Errorf("dispatcher: no engine allowed for fetch mode %q", mode)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		cancel()
		slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		d.memory.Set(host, rr.result.EngineName)
		return rr.result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
