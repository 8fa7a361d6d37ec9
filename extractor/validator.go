package extractor

import "strings"

// Mode selects one of the two validation/scan configurations.
type Mode string

const (
	// ModeStrict requires an "http" prefix, rejects blob: sources outright and
	// never consults page state.
	ModeStrict Mode = "strict"

	// ModeLenient accepts any source containing "http" and recovers blob:
	// video sources from page state.
	ModeLenient Mode = "lenient"
)

// ParseMode maps a request string onto a Mode. Unknown or empty values
// return fallback.
func ParseMode(s string, fallback Mode) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict:
		return ModeStrict
	case ModeLenient:
		return ModeLenient
	default:
		return fallback
	}
}

// Kind is the element kind a candidate was read from.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// Decision is the outcome of validating one candidate source.
type Decision int

const (
	// Reject drops the candidate.
	Reject Decision = iota
	// Accept offers the candidate to the collector as-is.
	Accept
	// Recover means the candidate is a local blob reference whose remote
	// URL must be resolved from page state.
	Recover
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Recover:
		return "recover"
	default:
		return "reject"
	}
}

const (
	schemeData = "data:"
	schemeBlob = "blob:"
	httpMarker = "http"
)

// Validate classifies a raw src attribute value. The value is never
// rewritten: exact string equality is the dedup key downstream.
func Validate(mode Mode, kind Kind, raw string) Decision {
	if strings.TrimSpace(raw) == "" {
		return Reject
	}
	if strings.HasPrefix(raw, schemeData) {
		return Reject
	}

	if strings.HasPrefix(raw, schemeBlob) {
		if mode == ModeLenient && kind == KindVideo {
			return Recover
		}
		return Reject
	}

	if mode == ModeStrict {
		if strings.HasPrefix(raw, httpMarker) {
			return Accept
		}
		return Reject
	}

	if strings.Contains(raw, httpMarker) {
		return Accept
	}
	return Reject
}
