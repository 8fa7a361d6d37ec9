package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/notemedia/cache"
	"github.com/use-agent/notemedia/engine"
	"github.com/use-agent/notemedia/extractor"
	"github.com/use-agent/notemedia/models"
)

// Fetcher loads note pages. *scraper.Scraper implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req *models.MediaRequest) (*engine.FetchResult, error)
	Stats() models.PoolStats
}

// Media runs fetch and extraction for the media and batch endpoints.
type Media struct {
	fetcher     Fetcher
	pipelines   map[extractor.Mode]*extractor.Pipeline
	defaultMode extractor.Mode
	cache       *cache.Cache
}

// NewMedia builds one pipeline per mode. cc may be nil to disable caching.
func NewMedia(f Fetcher, profiles []extractor.Profile, defaultMode extractor.Mode, cc *cache.Cache, logger *slog.Logger) *Media {
	pipelines := make(map[extractor.Mode]*extractor.Pipeline, len(profiles))
	for _, p := range profiles {
		pipelines[p.Mode] = extractor.New(p, logger)
	}
	return &Media{fetcher: f, pipelines: pipelines, defaultMode: defaultMode, cache: cc}
}

func (m *Media) pipeline(mode extractor.Mode) *extractor.Pipeline {
	if p, ok := m.pipelines[mode]; ok {
		return p
	}
	return extractor.New(extractor.ProfileFor(mode), nil)
}

// PostMedia returns a handler for POST /api/v1/media.
func (m *Media) PostMedia() gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.MediaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, failed(models.ErrCodeInvalidInput, err.Error()))
			return
		}
		req.Defaults()

		resp, err := m.Extract(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Extract resolves the note URL, fetches the page and runs the pipeline
// for the requested mode. A cached response is copied before its cache
// fields are set.
func (m *Media) Extract(ctx context.Context, req *models.MediaRequest) (*models.MediaResponse, error) {
	totalStart := time.Now()

	// ── 1. Target URL ───────────────────────────────────────────────
	if req.URL == "" {
		links := extractor.ExtractLinks(req.ShareText)
		if len(links) == 0 {
			return nil, models.NewMediaError(models.ErrCodeInvalidInput, "no note link found: provide url or share_text", nil)
		}
		req.URL = links[0]
	}
	mode := extractor.ParseMode(req.Mode, m.defaultMode)

	// ── 2. Cache lookup ─────────────────────────────────────────────
	cacheKey := cache.Key(req.URL, string(mode), req.OriginalImages)
	if m.cache != nil && req.MaxAge > 0 {
		if cached, hit := m.cache.Get(cacheKey, req.MaxAge); hit {
			resp := *cached
			resp.CacheStatus = "hit"
			resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
			return &resp, nil
		}
	}

	// ── 3. Fetch ────────────────────────────────────────────────────
	fetchStart := time.Now()
	page, err := m.fetcher.Fetch(ctx, req)
	fetchMs := time.Since(fetchStart).Milliseconds()
	if err != nil {
		return nil, err
	}

	// ── 4. Note identity ────────────────────────────────────────────
	pipeline := m.pipeline(mode)
	noteID := extractor.NoteID(page.FinalURL, pipeline.Profile().NoteMarkers)
	if noteID == "" {
		return nil, models.NewMediaError(models.ErrCodeNoteNotFound, "page is not a note: "+page.FinalURL, nil)
	}

	// ── 5. Extract ──────────────────────────────────────────────────
	extractStart := time.Now()
	doc, err := extractor.NewDocumentFromString(page.HTML)
	if err != nil {
		return nil, models.NewMediaError(models.ErrCodeInternal, "failed to parse page HTML", err)
	}
	urls := pipeline.Run(extractor.Page{
		Doc:   doc,
		Path:  pathOf(page.FinalURL),
		URL:   page.FinalURL,
		State: page.State,
	})
	if req.OriginalImages {
		urls = originals(urls)
	}

	resp := &models.MediaResponse{
		Success:    true,
		NoteID:     noteID,
		URLs:       urls,
		Total:      len(urls),
		Mode:       string(mode),
		StatusCode: page.StatusCode,
		FinalURL:   page.FinalURL,
		Title:      page.Title,
		EngineUsed: page.EngineName,
		Timing: models.TimingInfo{
			TotalMs:   time.Since(totalStart).Milliseconds(),
			FetchMs:   fetchMs,
			ExtractMs: time.Since(extractStart).Milliseconds(),
		},
	}

	// ── 6. Cache store ──────────────────────────────────────────────
	if m.cache != nil && req.MaxAge > 0 {
		stored := *resp
		m.cache.Set(cacheKey, &stored)
		resp.CacheStatus = "miss"
	}
	return resp, nil
}

// originals rewrites image renditions and drops duplicates the rewrite
// creates.
func originals(urls []string) []string {
	col := extractor.NewCollector()
	for _, u := range urls {
		col.Offer(extractor.OriginalImageURL(u))
	}
	return col.List()
}

func pathOf(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Path
	}
	return raw
}

func failed(code, message string) models.MediaResponse {
	return models.MediaResponse{
		Success: false,
		URLs:    []string{},
		Error:   &models.ErrorDetail{Code: code, Message: message},
	}
}

// asMediaError keeps typed errors and wraps everything else as internal.
func asMediaError(err error) *models.MediaError {
	var me *models.MediaError
	if errors.As(err, &me) {
		return me
	}
	return models.NewMediaError(models.ErrCodeInternal, err.Error(), err)
}

func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	me := asMediaError(err)
	resp := failed(me.Code, me.Message)
	resp.Timing = timing
	c.JSON(mapErrorToStatus(me), resp)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.MediaError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeNoteNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
