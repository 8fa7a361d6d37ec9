package extractor

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// DefaultVideoCDNBase is prefixed to consumer.originVideoKey to build the
// direct video URL.
const DefaultVideoCDNBase = "https://sns-video-bd.xhscdn.com/"

// Group is one element-group selector scanned by the pipeline.
type Group struct {
	// Name labels the group in diagnostics (e.g. "primary", "carousel").
	Name     string
	Selector string
	Kind     Kind
}

// Profile is the full scan/validation configuration for one Mode. Profiles
// only change which elements are read and how sources are judged; the pass
// order of the pipeline is fixed.
type Profile struct {
	Mode Mode

	// Primary lists the primary-container groups. Image groups are scanned
	// in pass 1, video groups in pass 3.
	Primary []Group

	// Carousel lists the secondary (swiper slide) groups, scanned in pass 4.
	Carousel []Group

	// ResolveState enables live-photo resolution and blob recovery from
	// page state.
	ResolveState bool

	// NoteMarkers are the path segments that precede the note ID.
	NoteMarkers []string

	// VideoCDNBase is prefixed to originVideoKey.
	VideoCDNBase string
}

var (
	primaryImages   = Group{Name: "primary", Selector: ".img-container img", Kind: KindImage}
	primaryVideos   = Group{Name: "primary", Selector: ".img-container video", Kind: KindVideo}
	carouselImages  = Group{Name: "carousel", Selector: ".swiper-slide img", Kind: KindImage}
	carouselVideos  = Group{Name: "carousel", Selector: ".swiper-slide video", Kind: KindVideo}
	playerVideos    = Group{Name: "player", Selector: ".player-container video", Kind: KindVideo}
	containerVideos = Group{Name: "player", Selector: ".media-container video", Kind: KindVideo}
)

// Strict mirrors the prefix-matching extractor: primary container and
// carousel groups, no page-state fallback.
func Strict() Profile {
	return Profile{
		Mode:         ModeStrict,
		Primary:      []Group{primaryImages, primaryVideos},
		Carousel:     []Group{carouselImages, carouselVideos},
		NoteMarkers:  []string{"explore", "item"},
		VideoCDNBase: DefaultVideoCDNBase,
	}
}

// Lenient widens the video groups to the player containers and recovers
// blob sources from page state.
func Lenient() Profile {
	return Profile{
		Mode:         ModeLenient,
		Primary:      []Group{primaryImages, primaryVideos, playerVideos, containerVideos},
		Carousel:     []Group{carouselImages, carouselVideos},
		ResolveState: true,
		NoteMarkers:  []string{"explore", "item"},
		VideoCDNBase: DefaultVideoCDNBase,
	}
}

// ProfileFor returns the named profile for mode. Unknown modes fall back to
// Lenient.
func ProfileFor(mode Mode) Profile {
	if mode == ModeStrict {
		return Strict()
	}
	return Lenient()
}

// Validate checks that every selector compiles and the profile is usable.
func (p Profile) Validate() error {
	if p.Mode != ModeStrict && p.Mode != ModeLenient {
		return fmt.Errorf("extractor: unknown mode %q", p.Mode)
	}
	for _, g := range append(append([]Group{}, p.Primary...), p.Carousel...) {
		if _, err := cascadia.Compile(g.Selector); err != nil {
			return fmt.Errorf("extractor: group %s: invalid selector %q: %w", g.Name, g.Selector, err)
		}
	}
	if p.ResolveState && len(p.NoteMarkers) == 0 {
		return fmt.Errorf("extractor: state resolution needs at least one note marker")
	}
	return nil
}

func groupsOf(groups []Group, kind Kind) []Group {
	var out []Group
	for _, g := range groups {
		if g.Kind == kind {
			out = append(out, g)
		}
	}
	return out
}
