package engine

import (
	"context"
	"time"
)

// Engine fetches a note page and returns what the extractor needs from it.
type Engine interface {
	// Name returns the engine identifier ("http", "rod", "rod-stealth").
	Name() string

	// Fetch loads the page for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to load a note page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool
}

// FetchResult is a loaded page.
type FetchResult struct {
	// HTML is the document as the engine saw it: server HTML for the http
	// engine, the rendered DOM for browser engines.
	HTML string

	// State is the serialized window.__INITIAL_STATE__ when the engine could
	// evaluate it; empty otherwise.
	State []byte

	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}
