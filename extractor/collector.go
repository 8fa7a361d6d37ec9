package extractor

// Collector accumulates unique URLs in first-seen order. It is the only
// place where deduplication happens. Not safe for concurrent use; a
// pipeline run owns exactly one.
type Collector struct {
	seen map[string]struct{}
	urls []string
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Offer appends url unless it has been offered before. It reports whether
// the url was appended.
func (c *Collector) Offer(url string) bool {
	if _, ok := c.seen[url]; ok {
		return false
	}
	c.seen[url] = struct{}{}
	c.urls = append(c.urls, url)
	return true
}

// Len returns the number of collected URLs.
func (c *Collector) Len() int { return len(c.urls) }

// List returns a copy of the collected URLs in insertion order. The result
// is never nil.
func (c *Collector) List() []string {
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}
