package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/notemedia/engine"
	"github.com/use-agent/notemedia/models"
	"github.com/ysmood/gson"
)

// stateJS serializes the hydrated page state. Reactive wrappers can make it
// circular, in which case "" is returned and the extractor falls back to
// the inline script in the captured HTML.
const stateJS = `() => {
	try {
		const s = window.__INITIAL_STATE__;
		return s ? JSON.stringify(s) : "";
	} catch (e) {
		return "";
	}
}`

const statusJS = `() => {
	try {
		const entries = performance.getEntriesByType("navigation");
		if (entries.length > 0) return entries[0].responseStatus || 0;
	} catch (e) {}
	return 0;
}`

// Fetch loads the note page named by req.URL. With a dispatcher the engines
// race under req.FetchMode; a failed race falls back to a direct browser
// load unless the caller asked for http only.
func (s *Scraper) Fetch(ctx context.Context, req *models.MediaRequest) (*engine.FetchResult, error) {
	fetchReq := &engine.FetchRequest{
		URL:     req.URL,
		Headers: req.Headers,
		Timeout: s.clampTimeout(req.Timeout),
		Stealth: req.Stealth,
	}

	if s.dispatcher != nil {
		dispatchCtx, cancel := context.WithTimeout(ctx, fetchReq.Timeout)
		defer cancel()

		mode := engine.FetchMode(req.FetchMode)
		result, err := s.dispatcher.Dispatch(dispatchCtx, fetchReq, mode)
		if err == nil {
			return result, nil
		}
		if mode == engine.FetchHTTP {
			return nil, categorizeError(err, "http fetch failed")
		}
		slog.Warn("dispatcher failed, falling back to direct rod fetch", "url", req.URL, "error", err)
	}

	result, err := s.DoFetchRod(ctx, fetchReq)
	if err != nil {
		return nil, err
	}
	result.EngineName = "rod"
	return result, nil
}

func (s *Scraper) clampTimeout(seconds int) time.Duration {
	timeout := time.Duration(seconds) * time.Second
	if timeout <= 0 {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	return timeout
}

// DoFetchRod loads the page in the browser without going through the
// dispatcher. It matches engine.RodFetchFunc so the rod engines can call it.
//
// Stealth and the hijack router must be installed before navigation; they
// only affect loads that start after them. Cleanup uses the page without
// the request context so it still runs after a timeout.
func (s *Scraper) DoFetchRod(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout <= 0 || timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewMediaError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}

	// ── 3. Return the page blank ──────────────────────────────────────
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	headers := map[string]string{"Referer": "https://www.xiaohongshu.com/"}
	for k, v := range req.Headers {
		headers[k] = v
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)

	// ── 5. Hijack router (resource types + trackers) ──────────────────
	if router := setupHijack(page, s.scraperCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Navigate ───────────────────────────────────────────────────
	p := page.Context(ctx)
	navCtx, navCancel := context.WithTimeout(ctx, s.scraperCfg.NavigationTimeout)
	defer navCancel()
	if err := page.Context(navCtx).Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to note page failed")
	}

	// ── 7. Wait for media containers ──────────────────────────────────
	s.waitForMedia(p)
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	// ── 8. Capture DOM, state and metadata ────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to capture page HTML")
	}

	var state []byte
	if v := evalStringOrEmpty(p, stateJS); v != "" {
		state = []byte(v)
	}

	statusCode := 0
	if res, err := p.Eval(statusJS); err == nil {
		statusCode = res.Value.Int()
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:       rawHTML,
		State:      state,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: statusCode,
		FinalURL:   finalURL,
	}, nil
}

// waitForMedia gives carousels and players up to MediaWait to appear.
// Timing out is normal for login walls and deleted notes.
func (s *Scraper) waitForMedia(p *rod.Page) {
	if s.scraperCfg.MediaSelector == "" || s.scraperCfg.MediaWait <= 0 {
		return
	}
	if _, err := p.Timeout(s.scraperCfg.MediaWait).Element(s.scraperCfg.MediaSelector); err != nil {
		slog.Debug("media containers did not appear", "selector", s.scraperCfg.MediaSelector, "error", err)
	}
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError maps fetch failures to error codes for the API layer.
func categorizeError(err error, msg string) *models.MediaError {
	var me *models.MediaError
	switch {
	case errors.As(err, &me):
		return me
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewMediaError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewMediaError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewMediaError(models.ErrCodeNavigation, msg, err)
	}
}
