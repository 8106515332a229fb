package story

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// sceneScanner extracts the "scene" string field out of a growing,
// possibly incomplete JSON buffer so narration can stream to the client
// before the structured payload closes. It only ever reveals fully
// decoded text: partial escape sequences and split UTF-8 runes at the
// buffer edge stay hidden until completed by a later chunk.
type sceneScanner struct {
	buf     strings.Builder
	emitted int
}

// Feed appends a chunk and returns the newly revealed scene suffix,
// or "" when nothing new decoded. Feed("") flushes whatever the last
// chunk completed.
func (s *sceneScanner) Feed(chunk string) string {
	s.buf.WriteString(chunk)
	scene := s.Scene()
	if len(scene) <= s.emitted {
		return ""
	}
	delta := scene[s.emitted:]
	s.emitted = len(scene)
	return delta
}

// Scene returns the scene text decoded so far.
func (s *sceneScanner) Scene() string {
	raw := s.buf.String()
	start, ok := findSceneValue(raw)
	if !ok {
		return ""
	}
	scene, _ := decodeStringPrefix(raw[start:])
	return scene
}

// findSceneValue locates the first byte of the scene field's string
// value: the position just after `"scene"` + optional whitespace + `:` +
// optional whitespace + `"`.
func findSceneValue(raw string) (int, bool) {
	const key = `"scene"`
	from := 0
	for {
		idx := strings.Index(raw[from:], key)
		if idx < 0 {
			return 0, false
		}
		i := from + idx + len(key)
		for i < len(raw) && isJSONSpace(raw[i]) {
			i++
		}
		if i < len(raw) && raw[i] == ':' {
			i++
			for i < len(raw) && isJSONSpace(raw[i]) {
				i++
			}
			if i < len(raw) && raw[i] == '"' {
				return i + 1, true
			}
		}
		from += idx + len(key)
	}
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// decodeStringPrefix decodes JSON string content until the closing quote
// or the end of the buffer. It reports whether the closing quote was
// reached. Incomplete trailing escapes and runes are left undecoded.
func decodeStringPrefix(s string) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '"' {
			return b.String(), true
		}
		if c == '\\' {
			n, r, ok := decodeEscape(s[i:])
			if !ok {
				break
			}
			b.WriteRune(r)
			i += n
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 && !utf8.FullRuneInString(s[i:]) {
			break
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String(), false
}

// decodeEscape decodes one escape sequence at the start of s, returning
// its byte length and rune. ok is false when the sequence is truncated.
func decodeEscape(s string) (int, rune, bool) {
	if len(s) < 2 {
		return 0, 0, false
	}
	switch s[1] {
	case '"':
		return 2, '"', true
	case '\\':
		return 2, '\\', true
	case '/':
		return 2, '/', true
	case 'n':
		return 2, '\n', true
	case 't':
		return 2, '\t', true
	case 'r':
		return 2, '\r', true
	case 'b':
		return 2, '\b', true
	case 'f':
		return 2, '\f', true
	case 'u':
		if len(s) < 6 {
			return 0, 0, false
		}
		hi, ok := parseHex4(s[2:6])
		if !ok {
			return 0, 0, false
		}
		r := rune(hi)
		if !utf16.IsSurrogate(r) {
			return 6, r, true
		}
		if r >= 0xDC00 {
			// Low half with no high half before it.
			return 6, utf8.RuneError, true
		}
		// High half: hold until the buffer shows whether a \uXXXX low
		// half follows; an unpaired half decodes to U+FFFD like
		// encoding/json does, so emission never stalls on it.
		switch {
		case len(s) < 7, s[6] == '\\' && len(s) < 8:
			return 0, 0, false
		case s[6] != '\\' || s[7] != 'u':
			return 6, utf8.RuneError, true
		case len(s) < 12:
			return 0, 0, false
		}
		lo, ok := parseHex4(s[8:12])
		if !ok || rune(lo) < 0xDC00 || rune(lo) > 0xDFFF {
			return 6, utf8.RuneError, true
		}
		return 12, utf16.DecodeRune(r, rune(lo)), true
	default:
		// Invalid escape; pass the character through rather than stall.
		return 2, rune(s[1]), true
	}
}

func parseHex4(s string) (uint16, bool) {
	var v uint16
	for i := 0; i < 4; i++ {
		c := s[i]
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint16(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint16(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint16(c-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}
