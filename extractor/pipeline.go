package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Page is everything one pipeline run may inspect. It is a value snapshot;
// nothing is read from ambient state.
type Page struct {
	// Doc is the rendered document tree.
	Doc Document

	// Path is the current location path (a full URL is accepted too).
	Path string

	// URL is the absolute page URL. When set, relative src attributes are
	// resolved against it the way a browser's src property would be.
	URL string

	// State is the serialized global state binding, empty when the host
	// could not capture it.
	State []byte
}

// Pipeline runs the scan-and-resolve passes for one Profile. A Pipeline is
// stateless between runs and safe to share; each Run owns its collector.
type Pipeline struct {
	profile Profile
	logger  *slog.Logger
}

// New creates a Pipeline. A nil logger uses slog.Default().
func New(profile Profile, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{profile: profile, logger: logger}
}

// Profile returns the pipeline's configuration.
func (p *Pipeline) Profile() Profile { return p.profile }

// Run returns the deduplicated media URLs of page in pass order:
//
//  1. primary container images
//  2. live-photo clips from page state
//  3. primary container videos (blob sources recovered from state)
//  4. carousel images, then carousel videos
//
// Any fatal failure yields an empty list; callers cannot tell it apart from
// a page without media.
func (p *Pipeline) Run(page Page) (result []string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("media extraction aborted", "path", page.Path, "panic", fmt.Sprint(r))
			result = []string{}
		}
	}()

	urls, err := p.run(page)
	if err != nil {
		p.logger.Error("media extraction failed", "path", page.Path, "error", err)
		return []string{}
	}
	p.logger.Debug("media extraction complete", "path", page.Path, "mode", p.profile.Mode, "total", len(urls))
	return urls
}

var errNoDocument = errors.New("extractor: page has no document")

func (p *Pipeline) run(page Page) ([]string, error) {
	if page.Doc == nil {
		return nil, errNoDocument
	}

	r := &runState{
		Pipeline: p,
		page:     page,
		col:      NewCollector(),
		noteID:   NoteID(page.Path, p.profile.NoteMarkers),
	}
	if page.URL != "" {
		if base, err := url.Parse(page.URL); err == nil && base.IsAbs() {
			r.base = base
		}
	}

	// ── 1. Primary images ───────────────────────────────────────────
	if err := r.scan(groupsOf(p.profile.Primary, KindImage)); err != nil {
		return nil, err
	}

	// ── 2. Live photos ──────────────────────────────────────────────
	if p.profile.ResolveState {
		for _, u := range r.livePhotos() {
			r.offer("live-photo", u)
		}
	}

	// ── 3. Primary videos ───────────────────────────────────────────
	if err := r.scan(groupsOf(p.profile.Primary, KindVideo)); err != nil {
		return nil, err
	}

	// ── 4. Carousel ─────────────────────────────────────────────────
	if err := r.scan(groupsOf(p.profile.Carousel, KindImage)); err != nil {
		return nil, err
	}
	if err := r.scan(groupsOf(p.profile.Carousel, KindVideo)); err != nil {
		return nil, err
	}

	return r.col.List(), nil
}

// runState is the per-run scratch space. The page state is located at most
// once and the direct video resolved at most once per run.
type runState struct {
	*Pipeline
	page   Page
	base   *url.URL
	col    *Collector
	noteID string

	stateTried bool
	state      *PageState

	videoTried bool
	video      string
	videoOK    bool
}

func (r *runState) scan(groups []Group) error {
	for _, g := range groups {
		elems, err := r.page.Doc.QueryAll(g.Selector)
		if err != nil {
			return err
		}
		r.logger.Debug("scanning group", "group", g.Name, "selector", g.Selector, "elements", len(elems))

		for i, el := range elems {
			src := r.source(el)
			switch Validate(r.profile.Mode, g.Kind, src) {
			case Accept:
				r.offer(g.Name+" "+g.Kind.String(), src)
			case Recover:
				r.recoverBlob(g, i, src)
			default:
				if src != "" {
					r.logger.Debug("media rejected", "group", g.Name, "kind", g.Kind.String(), "index", i, "src", src)
				}
			}
		}
	}
	return nil
}

// source reads the element's trimmed src attribute, resolved against the
// page URL when one is known. data: and blob: values are not resolved.
func (r *runState) source(el Element) string {
	src, ok := el.Attr("src")
	if !ok {
		return ""
	}
	src = strings.TrimSpace(src)
	if r.base == nil || src == "" ||
		strings.HasPrefix(src, schemeData) || strings.HasPrefix(src, schemeBlob) {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return r.base.ResolveReference(ref).String()
}

func (r *runState) offer(origin, u string) {
	if r.col.Offer(u) {
		r.logger.Debug("media accepted", "origin", origin, "url", u)
		return
	}
	r.logger.Debug("media duplicate", "origin", origin, "url", u)
}

func (r *runState) recoverBlob(g Group, index int, src string) {
	if !r.profile.ResolveState {
		r.logger.Debug("media rejected", "group", g.Name, "kind", g.Kind.String(), "index", index, "src", src)
		return
	}
	u, ok := r.directVideo()
	if !ok {
		r.logger.Debug("blob source unresolved", "group", g.Name, "index", index, "src", src, "note_id", r.noteID)
		return
	}
	r.offer(g.Name+" video (recovered)", u)
}

func (r *runState) locate() *PageState {
	if !r.stateTried {
		r.stateTried = true
		st, ok := Locate(r.page)
		if ok {
			r.state = st
		}
		r.logger.Debug("page state lookup", "found", ok, "note_id", r.noteID)
	}
	return r.state
}

func (r *runState) livePhotos() []string {
	st := r.locate()
	if st == nil {
		return nil
	}
	return LivePhotos(st, r.noteID)
}

func (r *runState) directVideo() (string, bool) {
	if !r.videoTried {
		r.videoTried = true
		if st := r.locate(); st != nil {
			r.video, r.videoOK = DirectVideo(st, r.noteID, r.profile.VideoCDNBase)
		}
	}
	return r.video, r.videoOK
}
