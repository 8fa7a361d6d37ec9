package extractor

import (
	"regexp"
	"strings"
)

// StateMarker is the global the client app assigns its hydrated state to.
const StateMarker = "__INITIAL_STATE__"

// stateAssignment anchors on the assignment to the state global; the
// literal itself starts at the final brace of the match.
var stateAssignment = regexp.MustCompile(`(?:window\.)?__INITIAL_STATE__\s*=\s*\{`)

// FromSnapshot parses a serialized global-binding snapshot. It succeeds only
// when the snapshot exposes the note structure.
func FromSnapshot(raw []byte) (*PageState, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	st, err := ParseState(raw)
	if err != nil || !st.HasNote() {
		return nil, false
	}
	return st, true
}

// FromScriptText extracts and parses the state literal from the text of an
// inline script. Any parse failure is reported as not found.
func FromScriptText(text string) (*PageState, bool) {
	if !strings.Contains(text, StateMarker) {
		return nil, false
	}
	loc := stateAssignment.FindStringIndex(text)
	if loc == nil {
		return nil, false
	}
	literal, ok := objectLiteral(text[loc[1]-1:])
	if !ok {
		return nil, false
	}
	st, err := ParseState([]byte(nullUndefined(literal)))
	if err != nil {
		return nil, false
	}
	return st, true
}

// Locate finds the page state: the explicit snapshot first, then every
// inline script carrying the state marker in document order. The first
// parse that succeeds wins.
func Locate(page Page) (*PageState, bool) {
	if st, ok := FromSnapshot(page.State); ok {
		return st, true
	}
	if page.Doc == nil {
		return nil, false
	}

	scripts, err := page.Doc.QueryAll("script")
	if err != nil {
		return nil, false
	}
	for _, s := range scripts {
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			continue
		}
		if st, ok := FromScriptText(s.Text()); ok {
			return st, true
		}
	}
	return nil, false
}

// objectLiteral returns the prefix of s that forms one balanced {...}
// object, skipping braces inside string literals.
func objectLiteral(s string) (string, bool) {
	depth := 0
	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// nullUndefined rewrites bare JS undefined in value position to null.
// Text inside string literals is left alone.
func nullUndefined(s string) string {
	const word = "undefined"
	if !strings.Contains(s, word) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	escaped := false
	prev := byte(0) // last non-space byte outside strings
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			b.WriteByte(c)
			continue
		}
		if (prev == ':' || prev == '[' || prev == ',') &&
			strings.HasPrefix(s[i:], word) && !isIdentByte(s, i+len(word)) {
			b.WriteString("null")
			i += len(word) - 1
			prev = 'l'
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			prev = c
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isIdentByte(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	switch c := s[i]; {
	case c == '_', c == '$':
		return true
	case '0' <= c && c <= '9', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	}
	return false
}
