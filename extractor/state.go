package extractor

import (
	"errors"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// Lazy holds an undecoded JSON subtree. Page state is loosely shaped, so
// every hop is decoded on demand and a shape mismatch at one hop only
// invalidates that path.
type Lazy []byte

// UnmarshalJSON keeps a copy of the raw bytes.
func (l *Lazy) UnmarshalJSON(b []byte) error {
	*l = append((*l)[:0], b...)
	return nil
}

// PageState is the hydrated client state of a note page
// (window.__INITIAL_STATE__).
type PageState struct {
	Note Lazy `json:"note"`
}

// NoteState is state.note.
type NoteState struct {
	NoteDetailMap map[string]Lazy `json:"noteDetailMap"`
}

// NoteDetail is one noteDetailMap entry.
type NoteDetail struct {
	Note Lazy `json:"note"`
}

// NoteRecord is the post record itself.
type NoteRecord struct {
	Video     Lazy `json:"video"`
	ImageList Lazy `json:"imageList"`
}

// Video is note.video.
type Video struct {
	Consumer Lazy `json:"consumer"`
	Media    Lazy `json:"media"`
}

// VideoConsumer is note.video.consumer.
type VideoConsumer struct {
	OriginVideoKey string `json:"originVideoKey"`
}

// VideoMedia is note.video.media.
type VideoMedia struct {
	Stream Lazy `json:"stream"`
}

// ImageListEntry is one element of note.imageList.
type ImageListEntry struct {
	Stream Lazy `json:"stream"`
}

// MediaStream is a stream block keyed by codec.
type MediaStream struct {
	H264 Lazy `json:"h264"`
}

// StreamVariant is one encoded rendition. Older pages carry url instead of
// masterUrl.
type StreamVariant struct {
	MasterURL string `json:"masterUrl"`
	URL       string `json:"url"`
}

var errNoState = errors.New("extractor: empty state")

// ParseState decodes a JSON state document.
func ParseState(raw []byte) (*PageState, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, errNoState
	}

	var st PageState
	if err := json.Unmarshal([]byte(trimmed), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// HasNote reports whether the state exposes the note structure.
func (s *PageState) HasNote() bool {
	_, ok := lookup[NoteState](s.noteRaw())
	return ok
}

func (s *PageState) noteRaw() Lazy {
	if s == nil {
		return nil
	}
	return s.Note
}

// lookup decodes one hop. A missing, null or mis-shaped value yields
// (zero, false).
func lookup[T any](raw Lazy) (T, bool) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// record navigates state.note.noteDetailMap[noteID].note.
func (s *PageState) record(noteID string) (NoteRecord, bool) {
	if noteID == "" {
		return NoteRecord{}, false
	}
	ns, ok := lookup[NoteState](s.noteRaw())
	if !ok {
		return NoteRecord{}, false
	}
	entry, ok := ns.NoteDetailMap[noteID]
	if !ok {
		return NoteRecord{}, false
	}
	detail, ok := lookup[NoteDetail](entry)
	if !ok {
		return NoteRecord{}, false
	}
	return lookup[NoteRecord](detail.Note)
}

// firstMasterURL returns the URL of stream.h264[0]: its masterUrl, else its
// url, or the entry itself when it is a plain string.
func firstMasterURL(stream Lazy) (string, bool) {
	ms, ok := lookup[MediaStream](stream)
	if !ok {
		return "", false
	}
	variants, ok := lookup[[]Lazy](ms.H264)
	if !ok || len(variants) == 0 {
		return "", false
	}
	if u, ok := lookup[string](variants[0]); ok {
		return u, u != ""
	}
	v, ok := lookup[StreamVariant](variants[0])
	if !ok {
		return "", false
	}
	if v.MasterURL != "" {
		return v.MasterURL, true
	}
	return v.URL, v.URL != ""
}

// DirectVideo resolves the note's primary video URL: cdnBase joined with
// consumer.originVideoKey, or video.media.stream.h264[0].masterUrl when the
// key is absent.
func DirectVideo(state *PageState, noteID, cdnBase string) (string, bool) {
	rec, ok := state.record(noteID)
	if !ok {
		return "", false
	}
	video, ok := lookup[Video](rec.Video)
	if !ok {
		return "", false
	}
	if consumer, ok := lookup[VideoConsumer](video.Consumer); ok && consumer.OriginVideoKey != "" {
		return cdnBase + consumer.OriginVideoKey, true
	}
	if media, ok := lookup[VideoMedia](video.Media); ok {
		return firstMasterURL(media.Stream)
	}
	return "", false
}

// LivePhotos returns the motion-clip URLs of the note's live photos in
// imageList order, without exact repeats. The result is never nil.
func LivePhotos(state *PageState, noteID string) []string {
	urls := []string{}
	rec, ok := state.record(noteID)
	if !ok {
		return urls
	}
	entries, ok := lookup[[]Lazy](rec.ImageList)
	if !ok {
		return urls
	}

	seen := make(map[string]struct{}, len(entries))
	for _, raw := range entries {
		entry, ok := lookup[ImageListEntry](raw)
		if !ok {
			continue
		}
		u, ok := firstMasterURL(entry.Stream)
		if !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// profileMarker precedes <userId>/<noteId> in user-profile note URLs.
const profileMarker = "profile"

// NoteID returns the path segment that follows the first marker segment,
// without query or fragment. In /user/profile/<userId>/<noteId> the note ID
// is the segment after the user ID. path may be a bare path or an absolute
// URL.
func NoteID(path string, markers []string) string {
	if strings.Contains(path, "://") {
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		}
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		next := i + 1
		switch {
		case isMarker(seg, markers):
		case seg == profileMarker && i > 0 && segments[i-1] == "user":
			next = i + 2
		default:
			continue
		}
		if next < len(segments) && segments[next] != "" {
			return segments[next]
		}
	}
	return ""
}

func isMarker(seg string, markers []string) bool {
	for _, m := range markers {
		if seg == m {
			return true
		}
	}
	return false
}
