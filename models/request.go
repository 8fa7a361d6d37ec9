package models

// MediaRequest is the payload for POST /api/v1/media.
type MediaRequest struct {
	// URL is the note page. Either URL or ShareText is required.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// ShareText is the text copied from the app's share sheet. The first
	// note or short link found in it is used when URL is empty.
	ShareText string `json:"share_text,omitempty"`

	// Mode selects the extraction profile: "lenient" (default) resolves blob
	// videos and live photos from page state, "strict" only scans the DOM.
	Mode string `json:"mode,omitempty" binding:"omitempty,oneof=strict lenient"`

	// Timeout is the maximum duration in seconds for fetching the page.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions in the browser engines.
	Stealth bool `json:"stealth,omitempty"`

	// FetchMode controls the fetching strategy.
	// "auto" (default): race the HTTP engine against the browser.
	// "http": server HTML only, media comes from the inline state.
	// "browser": rendered page only.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// MaxAge enables the response cache: a cached result younger than MaxAge
	// milliseconds is returned without fetching. 0 disables caching.
	MaxAge int64 `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// OriginalImages rewrites image CDN renditions to their original-quality
	// URLs.
	OriginalImages bool `json:"original_images,omitempty"`

	// Headers are extra request headers sent by the HTTP engine.
	Headers map[string]string `json:"headers,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *MediaRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
}
